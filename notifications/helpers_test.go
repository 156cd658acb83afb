package notifications

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yeremiapane/mf-tracker/database"
	"github.com/yeremiapane/mf-tracker/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// countingBackend records how often the store writes.
type countingBackend struct {
	*database.MemoryKV
	sets atomic.Int32
}

func newCountingBackend() *countingBackend {
	return &countingBackend{MemoryKV: database.NewMemoryKV()}
}

func (b *countingBackend) Set(key, value string) error {
	b.sets.Add(1)
	return b.MemoryKV.Set(key, value)
}

func (b *countingBackend) raw() string {
	v, _, _ := b.Get(database.KeyNotifications)
	return v
}

type failingBackend struct{}

var errBackendDown = errors.New("backend down")

func (failingBackend) Get(string) (string, bool, error) { return "", false, errBackendDown }
func (failingBackend) Set(string, string) error         { return errBackendDown }

func sequentialIDs() func() models.RecordID {
	var n atomic.Int64
	return func() models.RecordID {
		return models.RecordID(fmt.Sprintf("id-%d", n.Add(1)))
	}
}

func byID(records []models.NotificationRecord, id models.RecordID) (models.NotificationRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return models.NotificationRecord{}, false
}

var baseTime = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

// flakyBackend fails the next getFailures reads and then behaves normally.
type flakyBackend struct {
	*database.MemoryKV
	getFailures atomic.Int32
	sets        atomic.Int32
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryKV: database.NewMemoryKV()}
}

func (b *flakyBackend) Get(key string) (string, bool, error) {
	for n := b.getFailures.Load(); n > 0; n = b.getFailures.Load() {
		if b.getFailures.CompareAndSwap(n, n-1) {
			return "", false, errBackendDown
		}
	}
	return b.MemoryKV.Get(key)
}

func (b *flakyBackend) Set(key, value string) error {
	b.sets.Add(1)
	return b.MemoryKV.Set(key, value)
}

// readOnlyBackend serves reads and rejects every write.
type readOnlyBackend struct {
	*database.MemoryKV
}

func (readOnlyBackend) Set(string, string) error { return errBackendDown }

func warnedCount(s *Scheduler) int {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	return len(s.warned)
}
