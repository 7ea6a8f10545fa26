package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"
	"kilometri/internal/storage"
)

// fakeStore is an in-memory stand-in for the sqlite repository.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	trips   map[int64]core.Trip
	reports map[int64]core.MonthlyReport
	users   map[int64]core.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trips:   make(map[int64]core.Trip),
		reports: make(map[int64]core.MonthlyReport),
		users:   make(map[int64]core.User),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateTrip(ctx context.Context, t *core.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.id()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	f.trips[t.ID] = *t
	return nil
}

func (f *fakeStore) GetTrip(ctx context.Context, userID, id int64) (core.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok || t.UserID != userID {
		return core.Trip{}, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTrips(ctx context.Context, userID int64, filter core.TripFilter) ([]core.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Trip
	for _, t := range f.trips {
		if t.UserID == userID && !t.Date.Before(first) && !t.Date.After(last) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTrip(ctx context.Context, t *core.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.trips[t.ID]
	if !ok || old.UserID != t.UserID {
		return core.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	f.trips[t.ID] = *t
	return nil
}

func (f *fakeStore) DeleteTrip(ctx context.Context, userID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(f.trips, id)
	return nil
}

func (f *fakeStore) CreateReport(ctx context.Context, rep *core.MonthlyReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reports {
		if existing.UserID == rep.UserID && existing.Year == rep.Year && existing.Month == rep.Month {
			return storage.ErrDuplicateReport
		}
	}
	rep.ID = f.id()
	rep.CreatedAt = time.Now().UTC()
	f.reports[rep.ID] = *rep
	return nil
}

func (f *fakeStore) GetReport(ctx context.Context, userID, id int64) (core.MonthlyReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep, ok := f.reports[id]
	if !ok || rep.UserID != userID {
		return core.MonthlyReport{}, core.ErrNotFound
	}
	return rep, nil
}

func (f *fakeStore) GetReportByPeriod(ctx context.Context, userID int64, year, month int) (core.MonthlyReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rep := range f.reports {
		if rep.UserID == userID && rep.Year == year && rep.Month == month {
			return rep, nil
		}
	}
	return core.MonthlyReport{}, core.ErrNotFound
}

func (f *fakeStore) ListReports(ctx context.Context, userID int64) ([]core.MonthlyReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.MonthlyReport
	for _, rep := range f.reports {
		if rep.UserID == userID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (f *fakeStore) SetReportFiles(ctx context.Context, id int64, pdfFile, excelFile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep, ok := f.reports[id]
	if !ok {
		return core.ErrNotFound
	}
	rep.PDFFile = pdfFile
	rep.ExcelFile = excelFile
	f.reports[id] = rep
	return nil
}

func (f *fakeStore) CreateUser(ctx context.Context, u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (f *fakeStore) UpdateUserProfile(ctx context.Context, u core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.users[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	f.users[u.ID] = u
	return nil
}

// fakeRenderer produces file names without touching the filesystem.
type fakeRenderer struct{}

func (fakeRenderer) RenderPDF(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error) {
	return fmt.Sprintf("report_%d_%d_%02d.pdf", rep.UserID, rep.Year, rep.Month), nil
}

func (fakeRenderer) RenderExcel(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error) {
	return fmt.Sprintf("report_%d_%d_%02d.xlsx", rep.UserID, rep.Year, rep.Month), nil
}

// fakeDistance returns a canned lookup result.
type fakeDistance struct {
	result core.DistanceResult
	err    error
	calls  int
}

func (f *fakeDistance) Distance(ctx context.Context, startAddress, endAddress string) (core.DistanceResult, error) {
	f.calls++
	if f.err != nil {
		return core.DistanceResult{}, f.err
	}
	return f.result, nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}
