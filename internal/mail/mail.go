// Package mail delivers generated reports to their owners over SMTP.
package mail

import (
	"context"
	"fmt"

	"kilometri/internal/core"
	"kilometri/internal/log"

	"github.com/go-gomail/gomail"
)

// Sender is the delivery boundary the worker depends on.
type Sender interface {
	SendReport(ctx context.Context, user core.User, rep core.MonthlyReport, attachments []string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *log.Logger
}

func NewSMTPSender(host string, port int, username, password, from string, logger *log.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger.WithComponent(log.ComponentMail),
	}
}

// SendReport mails the report files to the owning user. Attachments are
// absolute paths; an empty slice still sends the summary body.
func (s *SMTPSender) SendReport(ctx context.Context, user core.User, rep core.MonthlyReport, attachments []string) error {
	period := core.PeriodLabel(rep.Year, rep.Month)

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetAddressHeader("To", user.Email, user.FullName())
	msg.SetHeader("Subject", "Kilometer report "+period)
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nattached is your kilometer report for %s: %d trips, %s km in total.\n",
		user.FullName(), period, rep.TripCount, rep.TotalKm.StringFixed(2)))
	for _, f := range attachments {
		msg.Attach(f)
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.logger.ErrorContext(ctx, "report mail failed",
			log.FieldOperation, log.OpDeliver,
			log.FieldReportID, rep.ID,
			log.FieldRecipient, user.Email,
			log.FieldError, err.Error())
		return fmt.Errorf("send report mail: %w", err)
	}

	s.logger.InfoContext(ctx, "report mailed",
		log.FieldOperation, log.OpDeliver,
		log.FieldReportID, rep.ID,
		log.FieldRecipient, user.Email)
	return nil
}
