package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/database"
	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/utils"
)

const investmentDateLayout = "2006-01-02"

// KV is the key/value storage the settings document lives in.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

type ReminderSettingsService struct {
	kv       KV
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewReminderSettingsService(kv KV, log logrus.FieldLogger) *ReminderSettingsService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReminderSettingsService{
		kv:       kv,
		validate: validator.New(),
		log:      log.WithField("component", "reminder_settings"),
	}
}

// Get returns the stored settings, or the defaults when nothing valid is stored.
func (s *ReminderSettingsService) Get() models.ReminderSettings {
	raw, ok, err := s.kv.Get(database.KeyReminderSettings)
	if err != nil {
		s.log.WithError(err).Warn("reading reminder settings failed, using defaults")
		return models.DefaultReminderSettings()
	}
	if !ok || raw == "" {
		return models.DefaultReminderSettings()
	}

	var settings models.ReminderSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.log.WithError(err).Warn("malformed reminder settings, using defaults")
		return models.DefaultReminderSettings()
	}
	if err := s.validate.Struct(settings); err != nil {
		s.log.WithError(err).Warn("invalid reminder settings, using defaults")
		return models.DefaultReminderSettings()
	}
	return settings
}

func (s *ReminderSettingsService) Save(settings models.ReminderSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid reminder settings: %w", err)
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	if err := s.kv.Set(database.KeyReminderSettings, string(data)); err != nil {
		return fmt.Errorf("saving reminder settings: %w", err)
	}
	return nil
}

// PlanPaymentReminder builds the reminder for the next installment of inv:
// due one calendar month after the investment date, announced daysBefore
// days earlier at UTC midnight.
func PlanPaymentReminder(inv models.Investment, settings models.ReminderSettings) (notifications.Payload, error) {
	invested, err := time.ParseInLocation(investmentDateLayout, inv.Date, time.UTC)
	if err != nil {
		return notifications.Payload{}, fmt.Errorf("investment date %q: %w", inv.Date, err)
	}

	due := invested.AddDate(0, 1, 0)
	scheduled := due.AddDate(0, 0, -settings.DaysBefore)
	amount := inv.Amount

	recurring := models.RecurrenceNone
	if settings.Recurrence == models.RecurrenceMonthly {
		recurring = models.RecurrenceMonthly
	}

	return notifications.Payload{
		Type:        models.NotificationTypePaymentReminder,
		Title:       "Payment due: " + inv.Name,
		Body:        fmt.Sprintf("%s due on %s for %s", utils.FormatCurrencyINR(inv.Amount), due.Format(investmentDateLayout), inv.Name),
		Amount:      &amount,
		DueDate:     due.Format(investmentDateLayout),
		ScheduledAt: notifications.FormatTime(scheduled),
		Recurring:   recurring,
	}, nil
}
