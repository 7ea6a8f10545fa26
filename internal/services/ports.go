// Package services provides business logic and orchestration on top of
// the storage, routing, report and messaging layers.
package services

import (
	"context"
	"time"

	"kilometri/internal/core"
)

// TripStore is the slice of the repository trip services need.
type TripStore interface {
	CreateTrip(ctx context.Context, t *core.Trip) error
	GetTrip(ctx context.Context, userID, id int64) (core.Trip, error)
	ListTrips(ctx context.Context, userID int64, filter core.TripFilter) ([]core.Trip, error)
	ListTripsByPeriod(ctx context.Context, userID int64, first, last time.Time) ([]core.Trip, error)
	UpdateTrip(ctx context.Context, t *core.Trip) error
	DeleteTrip(ctx context.Context, userID, id int64) error
}

// ReportStore is the slice of the repository report services need.
type ReportStore interface {
	CreateReport(ctx context.Context, rep *core.MonthlyReport) error
	GetReport(ctx context.Context, userID, id int64) (core.MonthlyReport, error)
	GetReportByPeriod(ctx context.Context, userID int64, year, month int) (core.MonthlyReport, error)
	ListReports(ctx context.Context, userID int64) ([]core.MonthlyReport, error)
	SetReportFiles(ctx context.Context, id int64, pdfFile, excelFile string) error
}

// UserStore is the slice of the repository auth and report services need.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdateUserProfile(ctx context.Context, u core.User) error
}

// Renderer produces the report files.
type Renderer interface {
	RenderPDF(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error)
	RenderExcel(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error)
}

// DeliveryPublisher enqueues a report for email delivery.
type DeliveryPublisher interface {
	PublishReportDelivery(ctx context.Context, reportID int64) error
}
