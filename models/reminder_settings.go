package models

// ReminderSettings controls automatic payment reminders created when an
// investment is recorded.
type ReminderSettings struct {
	AutoCreate bool   `json:"autoCreate"`
	DaysBefore int    `json:"daysBefore" validate:"gte=0,lte=31"`
	Recurrence string `json:"recurrence" validate:"oneof=none monthly"`
}

func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{AutoCreate: true, DaysBefore: 3, Recurrence: RecurrenceMonthly}
}
