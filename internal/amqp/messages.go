package amqp

import (
	"encoding/json"
	"time"
)

// ReportDeliveryMessage asks the worker to email one generated report.
// It carries only the ID; the worker loads the current row from the
// database so a message can never deliver stale file paths.
type ReportDeliveryMessage struct {
	ReportID  int64     `json:"report_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportDeliveryMessage creates a delivery message for one report
func NewReportDeliveryMessage(reportID int64) *ReportDeliveryMessage {
	return &ReportDeliveryMessage{
		ReportID:  reportID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportDeliveryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportDeliveryMessageFromJSON creates a message from JSON bytes
func ReportDeliveryMessageFromJSON(data []byte) (*ReportDeliveryMessage, error) {
	var msg ReportDeliveryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
