// Package worker delivers generated reports by email, driven by queue
// messages with a periodic sweep as backup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"kilometri/internal/amqp"
	"kilometri/internal/core"
	"kilometri/internal/mail"
)

// DeliveryStore is the slice of the repository the worker needs.
type DeliveryStore interface {
	GetReportByID(ctx context.Context, id int64) (core.MonthlyReport, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	MarkReportSent(ctx context.Context, id int64, sentAt time.Time) error
	ListUnsentReports(ctx context.Context, limit int) ([]core.MonthlyReport, error)
}

// DeliveryWorker mails report files to their owners and records the send.
type DeliveryWorker struct {
	storage    DeliveryStore
	sender     mail.Sender
	reportsDir string
	batchSize  int
	now        func() time.Time
}

func NewDeliveryWorker(storage DeliveryStore, sender mail.Sender, reportsDir string, batchSize int) *DeliveryWorker {
	return &DeliveryWorker{
		storage:    storage,
		sender:     sender,
		reportsDir: reportsDir,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// HandleDeliveryMessage processes a single report delivery message from AMQP
func (w *DeliveryWorker) HandleDeliveryMessage(ctx context.Context, msg *amqp.ReportDeliveryMessage) error {
	slog.InfoContext(ctx, "Processing delivery message", "report_id", msg.ReportID)

	rep, err := w.storage.GetReportByID(ctx, msg.ReportID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// report was deleted after the message was queued; drop it
			slog.WarnContext(ctx, "Report no longer exists, dropping message",
				"report_id", msg.ReportID)
			return nil
		}
		return fmt.Errorf("get report from storage: %w", err)
	}

	return w.deliver(ctx, rep)
}

// ProcessPendingReports mails any reports that were generated but never
// delivered. This is a backup mechanism in case AMQP messages are lost.
func (w *DeliveryWorker) ProcessPendingReports(ctx context.Context) error {
	pending, err := w.storage.ListUnsentReports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending reports: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending reports", "count", len(pending))

	for _, rep := range pending {
		if err := w.deliver(ctx, rep); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver pending report",
				"report_id", rep.ID,
				"error", err)
			// keep going, the next sweep retries this one
		}
	}

	return nil
}

// RunSweep calls ProcessPendingReports on a fixed interval until ctx is
// cancelled.
func (w *DeliveryWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingReports(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending report sweep failed", "error", err)
			}
		}
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, rep core.MonthlyReport) error {
	if rep.SentAt != nil {
		slog.InfoContext(ctx, "Report already delivered, skipping", "report_id", rep.ID)
		return nil
	}

	if rep.PDFFile == "" && rep.ExcelFile == "" {
		// rendering failed after the report row was created; there is
		// nothing to attach, so mailing it would only confuse the user
		slog.WarnContext(ctx, "Report has no rendered files, skipping delivery",
			"report_id", rep.ID)
		return nil
	}

	user, err := w.storage.GetUserByID(ctx, rep.UserID)
	if err != nil {
		return fmt.Errorf("get report owner: %w", err)
	}

	var attachments []string
	if rep.PDFFile != "" {
		attachments = append(attachments, filepath.Join(w.reportsDir, rep.PDFFile))
	}
	if rep.ExcelFile != "" {
		attachments = append(attachments, filepath.Join(w.reportsDir, rep.ExcelFile))
	}

	if err := w.sender.SendReport(ctx, user, rep, attachments); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	if err := w.storage.MarkReportSent(ctx, rep.ID, w.now()); err != nil {
		// a concurrent delivery may have marked it first; the mail went
		// out either way
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Report marked sent concurrently", "report_id", rep.ID)
			return nil
		}
		return fmt.Errorf("mark report sent: %w", err)
	}

	slog.InfoContext(ctx, "Report delivered",
		"report_id", rep.ID,
		"user_id", rep.UserID,
		"recipient", user.Email)
	return nil
}
