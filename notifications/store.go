package notifications

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/models"
)

// Backend is string-keyed storage holding JSON documents.
type Backend interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Listener receives the snapshot written by a mutation.
type Listener func(records []models.NotificationRecord)

// Store is the persisted, ordered notification list. All mutations go
// through Update, which serializes them; one Store should own a storage key
// per process. Processes sharing a backend overwrite each other's snapshots.
type Store struct {
	backend Backend
	key     string
	log     logrus.FieldLogger

	mu sync.Mutex

	subMu   sync.RWMutex
	subs    map[uint64]Listener
	nextSub uint64

	timerHeld atomic.Bool
}

func NewStore(backend Backend, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		backend: backend,
		key:     o.key,
		log:     o.log.WithField("component", "notification_store"),
		subs:    make(map[uint64]Listener),
	}
}

// Load returns the persisted records. Missing or malformed data yields an
// empty list, and so does a failing backend.
func (s *Store) Load() []models.NotificationRecord {
	records, err := s.load()
	if err != nil {
		s.log.WithError(err).Warn("reading notifications failed, treating as empty")
		return []models.NotificationRecord{}
	}
	return records
}

// load is Load for writers: a backend failure is returned instead of being
// mistaken for an empty list.
func (s *Store) load() ([]models.NotificationRecord, error) {
	raw, ok, err := s.backend.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []models.NotificationRecord{}, nil
	}

	var records []models.NotificationRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.log.WithError(err).Warn("stored notifications are malformed, treating as empty")
		return []models.NotificationRecord{}, nil
	}
	if records == nil {
		return []models.NotificationRecord{}, nil
	}
	return records, nil
}

// Save overwrites the persisted list and notifies subscribers.
func (s *Store) Save(records []models.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(records); err != nil {
		return err
	}
	s.notify(records)
	return nil
}

// Update runs fn against a copy of the current snapshot. When fn reports a
// change the result is persisted and subscribers are notified; otherwise the
// backend is not touched. If the snapshot cannot be read, fn is not called
// and nothing is written.
func (s *Store) Update(fn func(records []models.NotificationRecord) ([]models.NotificationRecord, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return false, err
	}
	next, changed := fn(current)
	if !changed {
		return false, nil
	}
	if err := s.write(next); err != nil {
		return false, err
	}
	s.notify(next)
	return true, nil
}

// Subscribe registers onChange for every persisted mutation. Listeners run
// on the mutating goroutine while the store is locked, so they must not call
// back into the store. The returned function unsubscribes and may be called
// more than once.
func (s *Store) Subscribe(onChange Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = onChange
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) write(records []models.NotificationRecord) error {
	if records == nil {
		records = []models.NotificationRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}
	if err := s.backend.Set(s.key, string(raw)); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	return nil
}

func (s *Store) notify(records []models.NotificationRecord) {
	s.subMu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subMu.RUnlock()

	if len(listeners) == 0 {
		return
	}
	snapshot := slices.Clone(records)
	for _, l := range listeners {
		l(snapshot)
	}
}

func (s *Store) acquireTimer() bool { return s.timerHeld.CompareAndSwap(false, true) }

func (s *Store) releaseTimer() { s.timerHeld.Store(false) }
