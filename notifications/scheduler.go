package notifications

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/models"
)

var ErrSchedulerRunning = errors.New("notifications: a scheduler is already running for this store")

// TickResult describes one reconciliation pass.
type TickResult struct {
	Records     []models.NotificationRecord
	Changed     bool
	Activated   []models.RecordID
	Rescheduled []models.RecordID
	Unparseable []models.RecordID
}

// Reconcile activates every scheduled record whose scheduledAt is not after
// now. Monthly records get a follow-up scheduled record appended one calendar
// month later; appended records are not evaluated in the same pass. Records
// with an unparseable scheduledAt are left as they are. The input slice is
// never modified.
func Reconcile(records []models.NotificationRecord, now time.Time, newID func() models.RecordID) TickResult {
	res := TickResult{Records: records}
	next := slices.Clone(records)
	stamp := FormatTime(now)

	for i, n := 0, len(next); i < n; i++ {
		rec := next[i]
		if !rec.IsScheduled() || rec.ScheduledAt == "" {
			continue
		}
		at, ok := ParseTime(rec.ScheduledAt)
		if !ok {
			res.Unparseable = append(res.Unparseable, rec.ID)
			continue
		}
		if at.After(now) {
			continue
		}

		activated := rec
		activated.Status = models.NotificationStatusActive
		activated.ActivatedAt = stamp
		next[i] = activated
		res.Activated = append(res.Activated, rec.ID)

		if rec.IsMonthly() {
			follow := rec
			follow.ID = newID()
			follow.Status = models.NotificationStatusScheduled
			follow.ScheduledAt = FormatTime(NextMonthly(at))
			follow.ActivatedAt = ""
			next = append(next, follow)
			res.Rescheduled = append(res.Rescheduled, follow.ID)
		}
	}

	if len(res.Activated) > 0 {
		res.Records = next
		res.Changed = true
	}
	return res
}

// Scheduler periodically reconciles a Store against the clock.
type Scheduler struct {
	store    *Store
	interval time.Duration
	now      func() time.Time
	newID    func() models.RecordID
	log      logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	warnMu sync.Mutex
	warned map[models.RecordID]struct{}
}

func NewScheduler(store *Store, opts ...Option) *Scheduler {
	o := buildOptions(opts)
	return &Scheduler{
		store:    store,
		interval: o.interval,
		now:      o.now,
		newID:    o.newID,
		log:      o.log.WithField("component", "notification_scheduler"),
		warned:   make(map[models.RecordID]struct{}),
	}
}

// Start ticks once immediately and then every interval until Stop is called
// or ctx is done. Only one scheduler may run per Store.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || !s.store.acquireTimer() {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.log.WithField("interval", s.interval).Info("notification scheduler started")
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("notification scheduler stopped")
}

// Tick runs a single reconciliation pass against the current snapshot.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	if err := ctx.Err(); err != nil {
		return TickResult{}, err
	}

	var (
		res        TickResult
		reconciled bool
	)
	_, err := s.store.Update(func(records []models.NotificationRecord) ([]models.NotificationRecord, bool) {
		res = Reconcile(records, s.now(), s.newID)
		reconciled = true
		return res.Records, res.Changed
	})
	if reconciled {
		s.reportUnparseable(res.Unparseable)
	}
	return res, err
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.store.releaseTimer()

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.Tick(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithError(err).Error("notification tick failed")
		}
		return
	}
	if res.Changed {
		s.log.WithFields(logrus.Fields{
			"activated":   len(res.Activated),
			"rescheduled": len(res.Rescheduled),
		}).Info("scheduled notifications activated")
	}
}

// reportUnparseable logs each record with a bad scheduledAt once. ids is the
// full set for the current snapshot; records that were fixed or removed are
// forgotten so the set stays bounded.
func (s *Scheduler) reportUnparseable(ids []models.RecordID) {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()

	current := make(map[models.RecordID]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
		if _, seen := s.warned[id]; seen {
			continue
		}
		s.warned[id] = struct{}{}
		s.log.WithField("id", id).Warn("scheduledAt is not a valid timestamp, record will stay scheduled")
	}
	for id := range s.warned {
		if _, ok := current[id]; !ok {
			delete(s.warned, id)
		}
	}
}
