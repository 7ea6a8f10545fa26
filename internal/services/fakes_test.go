package services

import (
	"context"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"
	"kilometri/internal/storage"
)

// in-memory stores for service tests

type fakeStore struct {
	trips   map[int64]core.Trip
	reports map[int64]core.MonthlyReport
	users   map[int64]core.User
	nextID  int64

	createReportErr error
	publishErr      error
	published       []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trips:   map[int64]core.Trip{},
		reports: map[int64]core.MonthlyReport{},
		users:   map[int64]core.User{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateTrip(ctx context.Context, t *core.Trip) error {
	t.ID = f.id()
	f.trips[t.ID] = *t
	return nil
}

func (f *fakeStore) GetTrip(ctx context.Context, userID, id int64) (core.Trip, error) {
	t, ok := f.trips[id]
	if !ok || t.UserID != userID {
		return core.Trip{}, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTrips(ctx context.Context, userID int64, filter core.TripFilter) ([]core.Trip, error) {
	var out []core.Trip
	for _, t := range f.trips {
		if t.UserID != userID {
			continue
		}
		if filter.Date != nil && !t.Date.Equal(*filter.Date) {
			continue
		}
		if filter.DateAfter != nil && t.Date.Before(*filter.DateAfter) {
			continue
		}
		if filter.DateBefore != nil && t.Date.After(*filter.DateBefore) {
			continue
		}
		if filter.IsManual != nil && t.IsManual != *filter.IsManual {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListTripsByPeriod(ctx context.Context, userID int64, first, last time.Time) ([]core.Trip, error) {
	var out []core.Trip
	for _, t := range f.trips {
		if t.UserID == userID && !t.Date.Before(first) && !t.Date.After(last) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTrip(ctx context.Context, t *core.Trip) error {
	old, ok := f.trips[t.ID]
	if !ok || old.UserID != t.UserID {
		return core.ErrNotFound
	}
	f.trips[t.ID] = *t
	return nil
}

func (f *fakeStore) DeleteTrip(ctx context.Context, userID, id int64) error {
	t, ok := f.trips[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(f.trips, id)
	return nil
}

func (f *fakeStore) CreateReport(ctx context.Context, rep *core.MonthlyReport) error {
	if f.createReportErr != nil {
		return f.createReportErr
	}
	for _, r := range f.reports {
		if r.UserID == rep.UserID && r.Year == rep.Year && r.Month == rep.Month {
			return storage.ErrDuplicateReport
		}
	}
	rep.ID = f.id()
	f.reports[rep.ID] = *rep
	return nil
}

func (f *fakeStore) GetReport(ctx context.Context, userID, id int64) (core.MonthlyReport, error) {
	r, ok := f.reports[id]
	if !ok || r.UserID != userID {
		return core.MonthlyReport{}, core.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) GetReportByPeriod(ctx context.Context, userID int64, year, month int) (core.MonthlyReport, error) {
	for _, r := range f.reports {
		if r.UserID == userID && r.Year == year && r.Month == month {
			return r, nil
		}
	}
	return core.MonthlyReport{}, core.ErrNotFound
}

func (f *fakeStore) ListReports(ctx context.Context, userID int64) ([]core.MonthlyReport, error) {
	var out []core.MonthlyReport
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) SetReportFiles(ctx context.Context, id int64, pdfFile, excelFile string) error {
	r, ok := f.reports[id]
	if !ok {
		return core.ErrNotFound
	}
	r.PDFFile = pdfFile
	r.ExcelFile = excelFile
	f.reports[id] = r
	return nil
}

func (f *fakeStore) CreateUser(ctx context.Context, u *core.User) error {
	u.ID = f.id()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (f *fakeStore) UpdateUserProfile(ctx context.Context, u core.User) error {
	old, ok := f.users[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) PublishReportDelivery(ctx context.Context, reportID int64) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, reportID)
	return nil
}

// fakeRenderer records calls and returns deterministic filenames.
type fakeRenderer struct {
	pdfErr   error
	excelErr error
	rendered int
}

func (f *fakeRenderer) RenderPDF(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error) {
	if f.pdfErr != nil {
		return "", f.pdfErr
	}
	f.rendered++
	return "report.pdf", nil
}

func (f *fakeRenderer) RenderExcel(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error) {
	if f.excelErr != nil {
		return "", f.excelErr
	}
	f.rendered++
	return "report.xlsx", nil
}

// fakeDistance returns a fixed result or error.
type fakeDistance struct {
	result core.DistanceResult
	err    error
	calls  int
}

func (f *fakeDistance) Distance(ctx context.Context, start, end string) (core.DistanceResult, error) {
	f.calls++
	if f.err != nil {
		return core.DistanceResult{}, f.err
	}
	return f.result, nil
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}
