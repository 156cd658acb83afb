package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	NotificationStatusScheduled = "scheduled"
	NotificationStatusActive    = "active"
)

const (
	RecurrenceNone    = "none"
	RecurrenceMonthly = "monthly"
)

// NotificationTypePaymentReminder tags reminders about an upcoming investment payment.
const NotificationTypePaymentReminder = "payment_reminder"

// RecordID is the identifier of a NotificationRecord. Older browser clients
// persisted numeric ids, so decoding accepts JSON numbers as well as strings.
type RecordID string

func (id *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// NotificationRecord is one entry of the persisted notification list.
// ScheduledAt stays a raw string so values that fail to parse survive a
// round trip through storage unchanged.
type NotificationRecord struct {
	ID          RecordID `json:"id"`
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Amount      *float64 `json:"amount,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	ScheduledAt string   `json:"scheduledAt,omitempty"`
	Recurring   string   `json:"recurring,omitempty"`
	Status      string   `json:"status"`
	Read        bool     `json:"read"`
	Timestamp   string   `json:"timestamp"`
	ActivatedAt string   `json:"activatedAt,omitempty"`
}

func (n NotificationRecord) IsScheduled() bool { return n.Status == NotificationStatusScheduled }

func (n NotificationRecord) IsActive() bool { return n.Status == NotificationStatusActive }

// IsMonthly reports whether activation should produce a follow-up record.
// Any recurrence other than monthly is treated as one-shot.
func (n NotificationRecord) IsMonthly() bool { return n.Recurring == RecurrenceMonthly }
