package escalation

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/agentsafe/asc/core"
)

// Status is an escalation tracker's lifecycle state (spec §4.6).
type Status int

const (
	Pending Status = iota
	Acknowledged
	Resolved
	Expired
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Acknowledged:
		return "acknowledged"
	case Resolved:
		return "resolved"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Tracker follows one Escalation from creation to Resolved or Expired.
type Tracker struct {
	Escalation *Escalation
	Status     Status
	Response   *Response
}

var (
	// ErrNotPending is returned when Acknowledge/Resolve is called on a
	// tracker that already left the Pending/Acknowledged states.
	ErrNotPending = fmt.Errorf("escalation: tracker is not pending or acknowledged")
	// ErrNotFound is returned when an unknown tracker ID is requested.
	ErrNotFound = fmt.Errorf("escalation: tracker not found")
)

// Acknowledge transitions Pending -> Acknowledged.
func (t *Tracker) Acknowledge() error {
	if t.Status != Pending {
		return ErrNotPending
	}
	t.Status = Acknowledged
	return nil
}

// Resolve transitions Pending/Acknowledged -> Resolved, recording resp.
func (t *Tracker) Resolve(resp Response) error {
	if t.Status != Pending && t.Status != Acknowledged {
		return ErrNotPending
	}
	t.Status = Resolved
	t.Response = &resp
	return nil
}

// DeliveryMode controls the ordering between invoking the expiry callback
// and marking a tracker Expired — adopted from
// hitl_checkpoint_store.go's at-least-once/at-most-once semantics.
type DeliveryMode int

const (
	// AtLeastOnce marks Expired only after the callback returns, so a
	// crash mid-callback causes redelivery on the next scan.
	AtLeastOnce DeliveryMode = iota
	// AtMostOnce marks Expired before invoking the callback, so a crash
	// mid-callback loses that single delivery rather than redelivering.
	AtMostOnce
)

// ExpiryCallback is invoked once per tracker that transitions to Expired.
type ExpiryCallback func(*Tracker)

// Registry is the process-facing collection of in-flight escalation
// trackers for one SafetyState's host. Unlike RecoveryStrategy/
// LearnedErrorPattern, escalation trackers are not a process-wide
// registry in the spec's sense — they are scoped to whatever host code
// owns them — but the type is still built mutex-first so a host may share
// one Registry across goroutines per spec §5.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	callback ExpiryCallback
	mode     DeliveryMode
	logger   core.Logger
}

// Option configures NewRegistry.
type Option func(*Registry)

// WithExpiryCallback registers a callback invoked when a tracker expires.
func WithExpiryCallback(cb ExpiryCallback) Option {
	return func(r *Registry) { r.callback = cb }
}

// WithDeliveryMode selects at-least-once or at-most-once expiry delivery.
func WithDeliveryMode(mode DeliveryMode) Option {
	return func(r *Registry) { r.mode = mode }
}

// WithLogger attaches a logger, scoped to "asc/escalation" if it
// implements core.ComponentAwareLogger.
func WithLogger(l core.Logger) Option {
	return func(r *Registry) { r.logger = core.ScopedLogger(l, "escalation") }
}

// NewRegistry builds an escalation tracker registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		trackers: make(map[string]*Tracker),
		mode:     AtLeastOnce,
		logger:   &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track registers a new Pending tracker for esc.
func (r *Registry) Track(esc *Escalation) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &Tracker{Escalation: esc, Status: Pending}
	r.trackers[esc.ID] = t
	return t
}

// Get returns the tracker for id.
func (r *Registry) Get(id string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[id]
	return t, ok
}

// Acknowledge acknowledges the tracker for id.
func (r *Registry) Acknowledge(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[id]
	if !ok {
		return ErrNotFound
	}
	return t.Acknowledge()
}

// Resolve resolves the tracker for id with a raw human response string,
// parsed via ParseResponse (spec §4.6's response grammar).
func (r *Registry) Resolve(id, rawResponse string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[id]
	if !ok {
		return ErrNotFound
	}
	return t.Resolve(ParseResponse(rawResponse))
}

// ProcessExpirations scans every Pending/Acknowledged tracker and expires
// the ones whose Escalation.ExpiresAtMs has passed, delivering the expiry
// callback per the configured DeliveryMode. Returns the IDs expired this
// call. This is the escalation analogue of
// hitl_checkpoint_store.go's processExpiredCheckpoints: expired trackers
// fail safe (Expired, not silently dropped) per spec §7 EscalationExpired.
func (r *Registry) ProcessExpirations(now int64) []string {
	r.mu.Lock()
	var due []*Tracker
	for _, t := range r.trackers {
		if (t.Status == Pending || t.Status == Acknowledged) && now >= t.Escalation.ExpiresAtMs {
			due = append(due, t)
		}
	}
	r.mu.Unlock()

	var expiredIDs []string
	for _, t := range due {
		r.expireOne(t)
		expiredIDs = append(expiredIDs, t.Escalation.ID)
	}
	return expiredIDs
}

func (r *Registry) expireOne(t *Tracker) {
	switch r.mode {
	case AtMostOnce:
		r.mu.Lock()
		t.Status = Expired
		r.mu.Unlock()
		r.invokeCallbackSafely(t)
	default: // AtLeastOnce
		r.invokeCallbackSafely(t)
		r.mu.Lock()
		t.Status = Expired
		r.mu.Unlock()
	}
}

// invokeCallbackSafely calls the registered expiry callback with a
// recover() guard, matching invokeCallbackSafely in
// hitl_checkpoint_store.go: a panicking host callback must not take down
// the ASC or leave a tracker stuck mid-transition.
func (r *Registry) invokeCallbackSafely(t *Tracker) {
	if r.callback == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("escalation expiry callback panicked", map[string]interface{}{
				"operation":    "escalation.ProcessExpirations",
				"escalationId": t.Escalation.ID,
				"panic":        rec,
				"stack":        string(debug.Stack()),
			})
		}
	}()
	r.callback(t)
}
