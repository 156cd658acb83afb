package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/mf-tracker/database"
	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
)

type brokenKV struct{}

func (brokenKV) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }
func (brokenKV) Set(string, string) error         { return errors.New("disk on fire") }

func newSettingsService(kv KV) *ReminderSettingsService {
	logger, _ := test.NewNullLogger()
	return NewReminderSettingsService(kv, logger)
}

func TestReminderSettingsDefaults(t *testing.T) {
	svc := newSettingsService(database.NewMemoryKV())
	assert.Equal(t, models.ReminderSettings{AutoCreate: true, DaysBefore: 3, Recurrence: "monthly"}, svc.Get())

	assert.Equal(t, models.DefaultReminderSettings(), newSettingsService(brokenKV{}).Get())
}

func TestReminderSettingsMalformedFallsBack(t *testing.T) {
	kv := database.NewMemoryKV()
	svc := newSettingsService(kv)

	require.NoError(t, kv.Set(database.KeyReminderSettings, "{not json"))
	assert.Equal(t, models.DefaultReminderSettings(), svc.Get())

	require.NoError(t, kv.Set(database.KeyReminderSettings, `{"autoCreate":false,"daysBefore":-4,"recurrence":"monthly"}`))
	assert.Equal(t, models.DefaultReminderSettings(), svc.Get())
}

func TestReminderSettingsSave(t *testing.T) {
	kv := database.NewMemoryKV()
	svc := newSettingsService(kv)

	want := models.ReminderSettings{AutoCreate: false, DaysBefore: 5, Recurrence: "none"}
	require.NoError(t, svc.Save(want))
	assert.Equal(t, want, svc.Get())

	assert.Error(t, svc.Save(models.ReminderSettings{DaysBefore: 2, Recurrence: "weekly"}))
	assert.Error(t, svc.Save(models.ReminderSettings{DaysBefore: 40, Recurrence: "none"}))
	assert.Equal(t, want, svc.Get())

	assert.Error(t, newSettingsService(brokenKV{}).Save(want))
}

func TestPlanPaymentReminder(t *testing.T) {
	inv := models.Investment{Name: "Index Fund SIP", Amount: 2500, Date: "2024-03-10"}

	payload, err := PlanPaymentReminder(inv, models.ReminderSettings{AutoCreate: true, DaysBefore: 3, Recurrence: "monthly"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypePaymentReminder, payload.Type)
	assert.Equal(t, "Payment due: Index Fund SIP", payload.Title)
	assert.Equal(t, "2024-04-10", payload.DueDate)
	assert.Equal(t, "2024-04-07T00:00:00.000Z", payload.ScheduledAt)
	assert.Equal(t, "monthly", payload.Recurring)
	require.NotNil(t, payload.Amount)
	assert.Equal(t, 2500.0, *payload.Amount)
	assert.Contains(t, payload.Body, "₹2,500")

	payload, err = PlanPaymentReminder(inv, models.ReminderSettings{DaysBefore: 0, Recurrence: "none"})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-10T00:00:00.000Z", payload.ScheduledAt)
	assert.Equal(t, "none", payload.Recurring)

	_, err = PlanPaymentReminder(models.Investment{Name: "x", Date: "10/03/2024"}, models.DefaultReminderSettings())
	assert.Error(t, err)
}

func TestPlannedReminderSchedulesInService(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := notifications.NewStore(database.NewMemoryKV())
	svc := notifications.NewService(store, notifications.WithClock(func() time.Time { return now }))

	payload, err := PlanPaymentReminder(models.Investment{Name: "Bluechip", Amount: 1000, Date: "2024-03-10"}, models.DefaultReminderSettings())
	require.NoError(t, err)
	rec, err := svc.AddNotification(payload)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusScheduled, rec.Status)
	assert.Len(t, svc.Scheduled(), 1)
}

const schemeJSON = `{"meta":{"fund_house":"Axis Mutual Fund","scheme_type":"Open Ended Schemes","scheme_category":"Equity Scheme","scheme_code":120503,"scheme_name":"Axis ELSS"},"data":[{"date":"15-03-2024","nav":"85.1"},{"date":"14-03-2024","nav":"84.7"},{"date":"13-03-2024","nav":"84.0"}],"status":"SUCCESS"}`

func newMarket(t *testing.T, handler http.HandlerFunc) *MarketService {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	m := NewMarketService(srv.URL, logger)
	m.Delay = time.Millisecond
	return m
}

func TestGetScheme(t *testing.T) {
	var path atomic.Value
	m := newMarket(t, func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, schemeJSON)
	})

	scheme, err := m.GetScheme(context.Background(), "120503")
	require.NoError(t, err)
	assert.Equal(t, "/mf/120503", path.Load())
	assert.Equal(t, "Axis ELSS", scheme.Meta.SchemeName)
	assert.Equal(t, 120503, scheme.Meta.SchemeCode)
	assert.Len(t, scheme.Data, 3)

	latest := Latest(scheme, 2)
	assert.Len(t, latest.Data, 2)
	assert.Equal(t, "85.1", latest.Data[0].NAV)
	assert.Len(t, scheme.Data, 3)
}

func TestGetSchemeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	m := newMarket(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, schemeJSON)
	})

	scheme, err := m.GetScheme(context.Background(), "120503")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Axis Mutual Fund", scheme.Meta.FundHouse)
}

func TestGetSchemeNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	m := newMarket(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := m.GetScheme(context.Background(), "999999")
	assert.ErrorIs(t, err, ErrSchemeNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetSchemeGivesUp(t *testing.T) {
	var calls atomic.Int32
	m := newMarket(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := m.GetScheme(context.Background(), "1")
	assert.Error(t, err)
	assert.Equal(t, int32(m.Attempts), calls.Load())

	_, err = m.GetScheme(context.Background(), "")
	assert.Error(t, err)
}
