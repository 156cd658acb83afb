package notifications

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/models"
)

// Payload carries the caller supplied fields of a new notification. Message
// is accepted from push producers that do not send a body.
type Payload struct {
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Body        string   `json:"body,omitempty"`
	Message     string   `json:"message,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	ScheduledAt string   `json:"scheduledAt,omitempty"`
	Recurring   string   `json:"recurring,omitempty"`
}

// Changes is a shallow patch; nil fields are left alone.
type Changes struct {
	Type        *string  `json:"type,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Body        *string  `json:"body,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	DueDate     *string  `json:"dueDate,omitempty"`
	ScheduledAt *string  `json:"scheduledAt,omitempty"`
	Recurring   *string  `json:"recurring,omitempty"`
}

func (c Changes) apply(rec models.NotificationRecord) models.NotificationRecord {
	if c.Type != nil {
		rec.Type = *c.Type
	}
	if c.Title != nil {
		rec.Title = *c.Title
	}
	if c.Body != nil {
		rec.Body = *c.Body
	}
	if c.Amount != nil && (rec.Amount == nil || *rec.Amount != *c.Amount) {
		amount := *c.Amount
		rec.Amount = &amount
	}
	if c.DueDate != nil {
		rec.DueDate = *c.DueDate
	}
	if c.ScheduledAt != nil {
		rec.ScheduledAt = *c.ScheduledAt
	}
	if c.Recurring != nil {
		rec.Recurring = *c.Recurring
	}
	return rec
}

// Service is the notification API used by handlers and the live feed.
// Unknown ids are ignored; the only errors returned come from persistence.
type Service struct {
	store *Store
	now   func() time.Time
	newID func() models.RecordID
	log   logrus.FieldLogger
}

func NewService(store *Store, opts ...Option) *Service {
	o := buildOptions(opts)
	return &Service{
		store: store,
		now:   o.now,
		newID: o.newID,
		log:   o.log.WithField("component", "notification_service"),
	}
}

// AddNotification prepends a new record. A scheduledAt in the future makes
// it scheduled, anything else makes it active and unread.
func (s *Service) AddNotification(p Payload) (models.NotificationRecord, error) {
	now := s.now()
	rec := models.NotificationRecord{
		ID:          s.newID(),
		Type:        p.Type,
		Title:       p.Title,
		Body:        p.Body,
		Amount:      p.Amount,
		DueDate:     p.DueDate,
		ScheduledAt: p.ScheduledAt,
		Recurring:   p.Recurring,
		Status:      models.NotificationStatusActive,
		Timestamp:   FormatTime(now),
	}
	if rec.Body == "" {
		rec.Body = p.Message
	}
	if at, ok := ParseTime(p.ScheduledAt); ok && at.After(now) {
		rec.Status = models.NotificationStatusScheduled
		rec.ScheduledAt = FormatTime(at)
	}

	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		return append([]models.NotificationRecord{rec}, records...), true
	})
	if err != nil {
		return rec, fmt.Errorf("add notification: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": rec.ID, "status": rec.Status, "type": rec.Type}).Debug("notification added")
	return rec, nil
}

func (s *Service) MarkRead(id string) error {
	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		i := indexOf(records, id)
		if i < 0 || records[i].Read {
			return records, false
		}
		records[i].Read = true
		return records, true
	})
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// MarkAllRead marks every active record read. Scheduled records are left alone.
func (s *Service) MarkAllRead() error {
	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		changed := false
		for i := range records {
			if records[i].IsActive() && !records[i].Read {
				records[i].Read = true
				changed = true
			}
		}
		return records, changed
	})
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (s *Service) RemoveNotification(id string) error {
	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		i := indexOf(records, id)
		if i < 0 {
			return records, false
		}
		return append(records[:i], records[i+1:]...), true
	})
	if err != nil {
		return fmt.Errorf("remove notification: %w", err)
	}
	return nil
}

// UpdateNotification patches a record in place. Moving scheduledAt into the
// past does not activate the record; the next scheduler tick does.
func (s *Service) UpdateNotification(id string, changes Changes) error {
	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		i := indexOf(records, id)
		if i < 0 {
			return records, false
		}
		next := changes.apply(records[i])
		if next == records[i] {
			return records, false
		}
		records[i] = next
		return records, true
	})
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}

func (s *Service) ClearAll() error {
	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		return []models.NotificationRecord{}, len(records) > 0
	})
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

func (s *Service) Get(id string) (models.NotificationRecord, bool) {
	records := s.store.Load()
	if i := indexOf(records, id); i >= 0 {
		return records[i], true
	}
	return models.NotificationRecord{}, false
}

func (s *Service) List() []models.NotificationRecord {
	return s.store.Load()
}

// Active returns the records shown in the live panel.
func (s *Service) Active() []models.NotificationRecord {
	return filter(s.store.Load(), models.NotificationRecord.IsActive)
}

// Scheduled returns the records waiting for their scheduledAt.
func (s *Service) Scheduled() []models.NotificationRecord {
	return filter(s.store.Load(), models.NotificationRecord.IsScheduled)
}

func (s *Service) UnreadCount() int {
	return Summarize(s.store.Load()).Unread
}

func (s *Service) Summary() Summary {
	return Summarize(s.store.Load())
}

func (s *Service) Subscribe(onChange Listener) func() {
	return s.store.Subscribe(onChange)
}

func indexOf(records []models.NotificationRecord, id string) int {
	for i := range records {
		if string(records[i].ID) == id {
			return i
		}
	}
	return -1
}

func filter(records []models.NotificationRecord, keep func(models.NotificationRecord) bool) []models.NotificationRecord {
	out := make([]models.NotificationRecord, 0, len(records))
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}
