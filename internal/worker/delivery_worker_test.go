package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"kilometri/internal/amqp"
	"kilometri/internal/core"

	"github.com/shopspring/decimal"
)

type fakeDeliveryStore struct {
	reports map[int64]core.MonthlyReport
	users   map[int64]core.User
	marked  []int64
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		reports: map[int64]core.MonthlyReport{},
		users:   map[int64]core.User{},
	}
}

func (f *fakeDeliveryStore) GetReportByID(ctx context.Context, id int64) (core.MonthlyReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return core.MonthlyReport{}, core.ErrNotFound
	}
	return r, nil
}

func (f *fakeDeliveryStore) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeDeliveryStore) MarkReportSent(ctx context.Context, id int64, sentAt time.Time) error {
	r, ok := f.reports[id]
	if !ok || r.SentAt != nil {
		return core.ErrNotFound
	}
	r.SentAt = &sentAt
	f.reports[id] = r
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeDeliveryStore) ListUnsentReports(ctx context.Context, limit int) ([]core.MonthlyReport, error) {
	var out []core.MonthlyReport
	for _, r := range f.reports {
		if r.SentAt == nil && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSender struct {
	err  error
	sent []int64
}

func (f *fakeSender) SendReport(ctx context.Context, user core.User, rep core.MonthlyReport, attachments []string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, rep.ID)
	return nil
}

func seedReport(store *fakeDeliveryStore, id int64, sent bool) {
	store.users[1] = core.User{ID: 1, Username: "mk", Email: "mk@example.com"}
	rep := core.MonthlyReport{
		ID:        id,
		UserID:    1,
		Year:      2025,
		Month:     12,
		TotalKm:   decimal.RequireFromString("350.25"),
		TripCount: 2,
		PDFFile:   "report.pdf",
		ExcelFile: "report.xlsx",
	}
	if sent {
		now := time.Now()
		rep.SentAt = &now
	}
	store.reports[id] = rep
}

func TestHandleDeliveryMessage(t *testing.T) {
	store := newFakeDeliveryStore()
	sender := &fakeSender{}
	seedReport(store, 1, false)
	w := NewDeliveryWorker(store, sender, "/reports", 10)

	err := w.HandleDeliveryMessage(context.Background(), amqp.NewReportDeliveryMessage(1))
	if err != nil {
		t.Fatalf("HandleDeliveryMessage() error = %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != 1 {
		t.Errorf("sent = %v, want [1]", sender.sent)
	}
	if store.reports[1].SentAt == nil {
		t.Error("SentAt not recorded after delivery")
	}
}

func TestHandleDeliveryMessageMissingReport(t *testing.T) {
	store := newFakeDeliveryStore()
	sender := &fakeSender{}
	w := NewDeliveryWorker(store, sender, "/reports", 10)

	// a deleted report must not requeue forever
	if err := w.HandleDeliveryMessage(context.Background(), amqp.NewReportDeliveryMessage(99)); err != nil {
		t.Errorf("HandleDeliveryMessage() error = %v, want nil for missing report", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want none", sender.sent)
	}
}

func TestHandleDeliveryMessageAlreadySent(t *testing.T) {
	store := newFakeDeliveryStore()
	sender := &fakeSender{}
	seedReport(store, 1, true)
	w := NewDeliveryWorker(store, sender, "/reports", 10)

	if err := w.HandleDeliveryMessage(context.Background(), amqp.NewReportDeliveryMessage(1)); err != nil {
		t.Fatalf("HandleDeliveryMessage() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want none for already-delivered report", sender.sent)
	}
}

func TestHandleDeliveryMessageNoRenderedFiles(t *testing.T) {
	store := newFakeDeliveryStore()
	sender := &fakeSender{}
	seedReport(store, 1, false)
	rep := store.reports[1]
	rep.PDFFile = ""
	rep.ExcelFile = ""
	store.reports[1] = rep
	w := NewDeliveryWorker(store, sender, "/reports", 10)

	// a report whose rendering failed has nothing to attach; skip it
	// without erroring so the message is not requeued
	if err := w.HandleDeliveryMessage(context.Background(), amqp.NewReportDeliveryMessage(1)); err != nil {
		t.Fatalf("HandleDeliveryMessage() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want none for a report without files", sender.sent)
	}
	if store.reports[1].SentAt != nil {
		t.Error("SentAt recorded for an undelivered report")
	}
}

func TestHandleDeliveryMessageSendFailure(t *testing.T) {
	store := newFakeDeliveryStore()
	sender := &fakeSender{err: errors.New("smtp down")}
	seedReport(store, 1, false)
	w := NewDeliveryWorker(store, sender, "/reports", 10)

	if err := w.HandleDeliveryMessage(context.Background(), amqp.NewReportDeliveryMessage(1)); err == nil {
		t.Fatal("HandleDeliveryMessage() error = nil, want error so the message requeues")
	}
	if store.reports[1].SentAt != nil {
		t.Error("SentAt recorded despite send failure")
	}
}

func TestProcessPendingReports(t *testing.T) {
	store := newFakeDeliveryStore()
	sender := &fakeSender{}
	seedReport(store, 1, false)
	seedReport(store, 2, false)
	w := NewDeliveryWorker(store, sender, "/reports", 10)

	if err := w.ProcessPendingReports(context.Background()); err != nil {
		t.Fatalf("ProcessPendingReports() error = %v", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d reports, want 2", len(sender.sent))
	}

	// second sweep finds nothing
	sender.sent = nil
	if err := w.ProcessPendingReports(context.Background()); err != nil {
		t.Fatalf("second ProcessPendingReports() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("second sweep sent %v, want none", sender.sent)
	}
}
