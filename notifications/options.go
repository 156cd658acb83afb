package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/database"
	"github.com/yeremiapane/mf-tracker/models"
)

// DefaultTickInterval is how often a started Scheduler reconciles the store.
const DefaultTickInterval = 30 * time.Second

type options struct {
	key      string
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() models.RecordID
	interval time.Duration
}

// Option configures a Store, Scheduler or Service.
type Option func(*options)

// WithStorageKey sets the key the store persists under.
func WithStorageKey(key string) Option {
	return func(o *options) { o.key = key }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(gen func() models.RecordID) Option {
	return func(o *options) { o.newID = gen }
}

// WithInterval sets the scheduler tick interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		key:      database.KeyNotifications,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		newID:    NewRecordID,
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRecordID returns a UUIDv7: millisecond timestamp ordered, with random
// bits separating ids minted within the same millisecond.
func NewRecordID() models.RecordID {
	id, err := uuid.NewV7()
	if err != nil {
		return models.RecordID(uuid.NewString())
	}
	return models.RecordID(id.String())
}
