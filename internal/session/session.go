// Package session drives the scan, resolve, display and reset cycle of a
// scanner screen.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ppiankov/vedcheck/internal/logging"
	"github.com/ppiankov/vedcheck/internal/model"
)

// Default timings of a session
const (
	DefaultDebounce = 1000 * time.Millisecond
	DefaultDwell    = 5000 * time.Millisecond
)

// ErrAlreadyRunning is returned when Run is called twice
var ErrAlreadyRunning = errors.New("session is already running")

// State of the scanner screen
type State string

const (
	Idle       State = "idle"
	Resolving  State = "resolving"
	Displaying State = "displaying"
)

// Snapshot is what the presentation layer renders
type Snapshot struct {
	ScanID  string       `json:"scan_id,omitempty"`
	State   State        `json:"state"`
	Raw     string       `json:"raw,omitempty"`
	Proof   *model.Proof `json:"proof,omitempty"`
	Unknown bool         `json:"unknown,omitempty"`
	Offline bool         `json:"offline,omitempty"`
	At      time.Time    `json:"at"`
}

// Loading reports whether a resolution is in flight
func (s Snapshot) Loading() bool {
	return s.State == Resolving
}

// Pipeline parses and resolves scanned texts
type Pipeline interface {
	Parse(raw string) (*model.Token, error)
	Resolve(ctx context.Context, tok *model.Token) (*model.Proof, error)
}

// Option configures a Session
type Option func(*Session)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the session logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = logging.OrDiscard(l) }
}

// WithObserver registers fn to receive every snapshot. Observers run on the
// session goroutine and must not call back into the session.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// WithDebounce sets the minimum interval between accepted scans
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithDwell sets how long a result stays on screen
func WithDwell(d time.Duration) Option {
	return func(s *Session) { s.dwell = d }
}

// Session is the scanner state machine. All state is owned by the Run
// goroutine; Scan and Clear are delivered to it and answered synchronously.
type Session struct {
	pipeline  Pipeline
	clock     clockwork.Clock
	logger    *slog.Logger
	observers []func(Snapshot)
	debounce  time.Duration
	dwell     time.Duration

	events  chan any
	done    chan struct{}
	running atomic.Bool

	// loop-owned
	current  Snapshot
	gen      uint64
	throttle *Throttle
	timer    clockwork.Timer
	cancel   context.CancelFunc

	mu     sync.RWMutex
	latest Snapshot
}

type scanEvent struct {
	raw   string
	reply chan bool
}

type clearEvent struct {
	reply chan struct{}
}

type resolvedEvent struct {
	gen   uint64
	proof *model.Proof
	err   error
}

type expiredEvent struct {
	gen uint64
}

// New creates an idle session
func New(p Pipeline, opts ...Option) *Session {
	s := &Session{
		pipeline: p,
		clock:    clockwork.NewRealClock(),
		logger:   logging.Discard(),
		debounce: DefaultDebounce,
		dwell:    DefaultDwell,
		events:   make(chan any),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.throttle = NewThrottle(s.debounce)
	s.current = Snapshot{State: Idle, At: s.clock.Now()}
	s.latest = s.current
	return s
}

// NewFromConfig creates a session with timings taken from cfg
func NewFromConfig(p Pipeline, cfg model.SessionConfig, opts ...Option) *Session {
	base := []Option{WithDebounce(cfg.Debounce), WithDwell(cfg.Dwell)}
	return New(p, append(base, opts...)...)
}

// Run processes events until ctx is done
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)
	defer s.supersede()

	s.notify(s.current)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

// Scan feeds one scanned text. It reports whether the scan was accepted.
func (s *Session) Scan(raw string) bool {
	reply := make(chan bool, 1)
	if !s.send(scanEvent{raw: raw, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-s.done:
		return false
	}
}

// Clear returns the session to Idle and forgets the debounce window
func (s *Session) Clear() {
	reply := make(chan struct{}, 1)
	if !s.send(clearEvent{reply: reply}) {
		return
	}
	select {
	case <-reply:
	case <-s.done:
	}
}

// Snapshot returns the latest published state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Done is closed once Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) send(ev any) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case scanEvent:
		ev.reply <- s.handleScan(ctx, ev.raw)
	case clearEvent:
		s.handleClear()
		ev.reply <- struct{}{}
	case resolvedEvent:
		s.handleResolved(ev)
	case expiredEvent:
		s.handleExpired(ev)
	default:
		s.logger.Error("unknown session event", "type", fmt.Sprintf("%T", ev))
	}
}

func (s *Session) handleScan(ctx context.Context, raw string) bool {
	switch {
	case s.current.State == Resolving:
		s.logger.Debug("scan ignored while resolving")
		return false
	case s.current.State == Displaying && raw == s.current.Raw:
		return false
	}

	if !s.throttle.Allow(s.clock.Now()) {
		s.logger.Debug("scan debounced")
		return false
	}

	tok, err := s.pipeline.Parse(raw)
	if err == nil && tok == nil {
		s.logger.Debug("scan carried no token")
		return false
	}

	s.supersede()
	scanID := uuid.NewString()
	s.transition(Snapshot{ScanID: scanID, State: Resolving, Raw: raw})

	if err != nil {
		s.logger.Warn("unrecognized scan", "scan_id", scanID, "error", err)
		s.display(Snapshot{ScanID: scanID, State: Displaying, Raw: raw, Unknown: true})
		return true
	}

	gen := s.gen
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		proof, err := s.pipeline.Resolve(rctx, tok)
		s.send(resolvedEvent{gen: gen, proof: proof, err: err})
	}()

	return true
}

func (s *Session) handleResolved(ev resolvedEvent) {
	if ev.gen != s.gen || s.current.State != Resolving {
		s.logger.Debug("dropping stale resolution", "generation", ev.gen)
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	snap := s.current
	snap.State = Displaying

	switch {
	case ev.err != nil:
		snap.Unknown = true
		snap.Offline = IsNetworkError(ev.err)
		s.logger.Warn("proof resolution failed", "scan_id", snap.ScanID, "offline", snap.Offline, "error", ev.err)
	case ev.proof == nil:
		snap.Unknown = true
		s.logger.Warn("proof resolution returned nothing", "scan_id", snap.ScanID)
	default:
		snap.Proof = ev.proof
	}

	s.display(snap)
}

func (s *Session) handleExpired(ev expiredEvent) {
	if ev.gen != s.gen || s.current.State != Displaying {
		return
	}
	s.timer = nil
	s.transition(Snapshot{State: Idle})
}

func (s *Session) handleClear() {
	s.supersede()
	s.throttle.Reset()
	s.transition(Snapshot{State: Idle})
}

// display shows snap and arms the auto-reset timer
func (s *Session) display(snap Snapshot) {
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.dwell, func() {
		s.send(expiredEvent{gen: gen})
	})
	s.transition(snap)
}

// supersede invalidates the pending timer and any in-flight resolution
func (s *Session) supersede() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) transition(snap Snapshot) {
	snap.At = s.clock.Now()
	s.current = snap
	s.logger.Debug("session transition", "state", snap.State, "scan_id", snap.ScanID)
	s.notify(snap)
}

func (s *Session) notify(snap Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	for _, fn := range s.observers {
		fn(snap)
	}
}

// IsNetworkError reports whether err means the lookup host could not be
// reached: a failed dial, a failed name lookup or a timeout. Redirect, TLS
// and status failures do not count.
func IsNetworkError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
