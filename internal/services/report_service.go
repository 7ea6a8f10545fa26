package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"
	"kilometri/internal/report"
	"kilometri/internal/storage"
)

// ReportService owns the monthly report lifecycle: snapshot creation,
// file rendering and delivery hand-off.
type ReportService struct {
	reports   ReportStore
	trips     TripStore
	users     UserStore
	renderer  Renderer
	publisher DeliveryPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewReportService(reports ReportStore, trips TripStore, users UserStore, renderer Renderer, publisher DeliveryPublisher, logger *log.Logger) *ReportService {
	return &ReportService{
		reports:   reports,
		trips:     trips,
		users:     users,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentReport),
		now:       time.Now,
	}
}

// Generate creates the report snapshot for one user and period, renders
// both files and enqueues delivery. A period that already has a report
// yields *core.ConflictError carrying the existing row; a period with no
// trips yields *core.InsufficientDataError.
func (s *ReportService) Generate(ctx context.Context, userID int64, year, month int) (core.MonthlyReport, error) {
	if err := core.ValidateYearMonth(year, month, s.now()); err != nil {
		return core.MonthlyReport{}, err
	}

	if existing, err := s.reports.GetReportByPeriod(ctx, userID, year, month); err == nil {
		return core.MonthlyReport{}, &core.ConflictError{Existing: existing}
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.MonthlyReport{}, fmt.Errorf("check existing report: %w", err)
	}

	first, last := core.PeriodBounds(year, month)
	trips, err := s.trips.ListTripsByPeriod(ctx, userID, first, last)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("list trips: %w", err)
	}
	if len(trips) == 0 {
		return core.MonthlyReport{}, &core.InsufficientDataError{
			Message: fmt.Sprintf("no trips recorded for %s", core.PeriodLabel(year, month)),
		}
	}

	summary := core.Summarize(year, month, trips)
	rep := core.MonthlyReport{
		UserID:    userID,
		Year:      year,
		Month:     month,
		TotalKm:   summary.TotalKm,
		TripCount: summary.TripCount,
	}
	if err := s.reports.CreateReport(ctx, &rep); err != nil {
		// a concurrent generate for the same period can win the insert
		if errors.Is(err, storage.ErrDuplicateReport) {
			existing, getErr := s.reports.GetReportByPeriod(ctx, userID, year, month)
			if getErr != nil {
				return core.MonthlyReport{}, fmt.Errorf("load conflicting report: %w", getErr)
			}
			return core.MonthlyReport{}, &core.ConflictError{Existing: existing}
		}
		return core.MonthlyReport{}, fmt.Errorf("create report: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("load report owner: %w", err)
	}

	now := s.now()
	pdfFile, err := s.renderer.RenderPDF(user, rep, trips, now)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("render pdf: %w", err)
	}
	excelFile, err := s.renderer.RenderExcel(user, rep, trips, now)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("render excel: %w", err)
	}
	if err := s.reports.SetReportFiles(ctx, rep.ID, pdfFile, excelFile); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("store report files: %w", err)
	}
	rep.PDFFile = pdfFile
	rep.ExcelFile = excelFile

	// delivery is async; a publish failure is not fatal because the
	// worker also sweeps for unsent reports
	if err := s.publishDelivery(ctx, rep.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue report delivery",
			log.FieldReportID, rep.ID,
			log.FieldError, err.Error())
	}

	s.logger.InfoContext(ctx, "report generated",
		log.FieldOperation, log.OpGenerate,
		log.FieldUserID, userID,
		log.FieldReportID, rep.ID,
		log.FieldYear, year,
		log.FieldMonth, month,
		log.FieldDistanceKm, rep.TotalKm.String())
	return rep, nil
}

// Get loads one report owned by the user.
func (s *ReportService) Get(ctx context.Context, userID, reportID int64) (core.MonthlyReport, error) {
	return s.reports.GetReport(ctx, userID, reportID)
}

// List returns the user's reports, newest period first.
func (s *ReportService) List(ctx context.Context, userID int64) ([]core.MonthlyReport, error) {
	return s.reports.ListReports(ctx, userID)
}

func (s *ReportService) publishDelivery(ctx context.Context, reportID int64) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "delivery publisher not available, relying on sweep",
			log.FieldReportID, reportID)
		return nil
	}
	return s.publisher.PublishReportDelivery(ctx, reportID)
}

// compile-time check that the concrete generator satisfies Renderer
var _ Renderer = (*report.Generator)(nil)
