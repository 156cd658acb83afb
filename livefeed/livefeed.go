// Package livefeed mirrors an external websocket channel into the
// notification API. Every inbound frame becomes a new notification.
package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
)

// DefaultReconnectInterval is the fixed wait between connection attempts.
const DefaultReconnectInterval = 5 * time.Second

// attemptsPerCycle bounds one retry.Do call; the run loop starts a new cycle
// afterwards, so reconnection never gives up.
const attemptsPerCycle = 10

var ErrAlreadyStarted = errors.New("livefeed: already started")

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Sink receives inbound events.
type Sink interface {
	AddNotification(p notifications.Payload) (models.NotificationRecord, error)
}

type Adapter struct {
	url       string
	sink      Sink
	reconnect time.Duration
	dialer    *websocket.Dialer
	log       logrus.FieldLogger

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Adapter)

func WithReconnectInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.reconnect = d
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Adapter) { a.log = l }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(a *Adapter) { a.dialer = d }
}

// New returns an adapter for url. An empty url yields an adapter that never
// connects.
func New(url string, sink Sink, opts ...Option) *Adapter {
	a := &Adapter{
		url:       url,
		sink:      sink,
		reconnect: DefaultReconnectInterval,
		dialer:    websocket.DefaultDialer,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithField("component", "livefeed")
	return a
}

func (a *Adapter) Enabled() bool { return a.url != "" }

func (a *Adapter) State() State { return State(a.state.Load()) }

func (a *Adapter) setState(s State) { a.state.Store(int32(s)) }

// Start connects in the background and keeps reconnecting until Stop is
// called or ctx is done.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.Enabled() {
		a.log.Debug("no live feed address configured, adapter inactive")
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(ctx, a.done)
	return nil
}

// Stop closes the socket and waits for the background loop to exit.
func (a *Adapter) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	a.setState(Disconnected)
}

func (a *Adapter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for ctx.Err() == nil {
		err := retry.Do(
			func() error { return a.session(ctx) },
			retry.Attempts(attemptsPerCycle),
			retry.Delay(a.reconnect),
			retry.MaxDelay(a.reconnect),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				a.log.WithError(err).WithField("attempt", n+1).Warn("live feed disconnected, reconnecting")
			}),
		)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			a.log.WithError(err).Warn("live feed still unreachable, starting a new reconnect cycle")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.reconnect):
		}
	}
}

// session dials once and pumps messages until the connection drops. It
// returns nil only when ctx was cancelled.
func (a *Adapter) session(ctx context.Context) error {
	a.setState(Connecting)
	conn, _, err := a.dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		a.setState(Disconnected)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dial %s: %w", a.url, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
		a.setState(Disconnected)
	}()

	a.setState(Connected)
	a.log.WithField("url", a.url).Info("live feed connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		a.deliver(data)
	}
}

func (a *Adapter) deliver(data []byte) {
	rec, err := a.sink.AddNotification(Decode(data))
	if err != nil {
		a.log.WithError(err).Error("storing live feed notification failed")
		return
	}
	a.log.WithField("id", rec.ID).Debug("live feed notification stored")
}

// Decode turns an inbound frame into a payload. Frames that are not a JSON
// object are kept verbatim as the body.
func Decode(data []byte) notifications.Payload {
	var p notifications.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return notifications.Payload{Body: string(data)}
	}
	return p
}
