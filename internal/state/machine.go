package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const noState = "none"

var (
	// ErrSessionNotFound indicates that the owner has no active wizard.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTransition indicates that a requested step does not exist in the wizard.
	ErrInvalidTransition = errors.New("invalid session step")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe wizard transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine is the session store used by the wizard layer. It adds idle expiry
// and step bookkeeping on top of a Storage backend.
type Machine struct {
	storage Storage
	locker  Locker
	log     *slog.Logger
	idleTTL time.Duration
	now     func() time.Time
}

// Option customises a Machine.
type Option func(*Machine)

// WithIdleTTL expires sessions that were not touched for ttl. Zero disables expiry.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Machine) { m.idleTTL = ttl }
}

// WithLocker sets the per-owner lock implementation.
func WithLocker(locker Locker) Option {
	return func(m *Machine) { m.locker = locker }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine creates a session machine over storage.
func NewMachine(storage Storage, log *slog.Logger, opts ...Option) *Machine {
	if log == nil {
		log = slog.Default()
	}

	m := &Machine{
		storage: storage,
		locker:  NewMemoryLocker(),
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start creates or overwrites the session of ownerID with an empty wizard at step 0.
func (m *Machine) Start(ctx context.Context, ownerID int64, wizard Wizard) (*Session, error) {
	if wizard == nil {
		return nil, fmt.Errorf("start session: nil wizard")
	}

	from := noState
	if previous, err := m.Get(ctx, ownerID); err == nil {
		from = string(previous.State())
	}

	wizard.SetStep(0)
	now := m.now().UTC()
	session := &Session{
		OwnerID:   ownerID,
		Wizard:    wizard,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.storage.SetSession(ctx, session); err != nil {
		return nil, err
	}

	transitionRecorder(from, string(wizard.State()))
	m.log.Debug("session started", "owner_id", ownerID, "state", wizard.State())

	return session, nil
}

// Get returns the active session of ownerID. Sessions idle for longer than
// the configured TTL are cleared and reported as absent.
func (m *Machine) Get(ctx context.Context, ownerID int64) (*Session, error) {
	session, err := m.storage.GetSession(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if m.Expired(session) {
		if clearErr := m.storage.ClearSession(ctx, ownerID); clearErr != nil {
			m.log.Warn("failed to clear expired session", "owner_id", ownerID, "error", clearErr)
		}
		transitionRecorder(string(session.State()), noState)
		m.log.Info("session expired", "owner_id", ownerID, "state", session.State())
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Save persists a session previously returned by Get or Start.
func (m *Machine) Save(ctx context.Context, session *Session) error {
	if session == nil || session.Wizard == nil {
		return fmt.Errorf("save session: empty session")
	}

	if !IsStepAllowed(session.State(), session.Step()) {
		return fmt.Errorf("%w: %s step %d", ErrInvalidTransition, session.State(), session.Step())
	}

	session.UpdatedAt = m.now().UTC()
	return m.storage.SetSession(ctx, session)
}

// Update applies fn to the wizard data of ownerID and persists the result.
// Nothing is stored when fn fails.
func (m *Machine) Update(ctx context.Context, ownerID int64, fn func(Wizard) error) error {
	session, err := m.Get(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := fn(session.Wizard); err != nil {
		return err
	}

	return m.Save(ctx, session)
}

// SetStep moves the wizard of ownerID to step.
func (m *Machine) SetStep(ctx context.Context, ownerID int64, step int) error {
	session, err := m.Get(ctx, ownerID)
	if err != nil {
		return err
	}

	if !IsStepAllowed(session.State(), step) {
		m.log.Warn("invalid session step", "owner_id", ownerID, "state", session.State(), "step", step)
		return ErrInvalidTransition
	}

	session.Wizard.SetStep(step)
	return m.Save(ctx, session)
}

// NextStep advances the wizard of ownerID by one step.
func (m *Machine) NextStep(ctx context.Context, ownerID int64) error {
	session, err := m.Get(ctx, ownerID)
	if err != nil {
		return err
	}

	return m.SetStep(ctx, ownerID, session.Step()+1)
}

// Clear removes the session of ownerID. Clearing an absent session is a no-op.
func (m *Machine) Clear(ctx context.Context, ownerID int64) error {
	from := ""
	if session, err := m.storage.GetSession(ctx, ownerID); err == nil {
		from = string(session.State())
	}

	if err := m.storage.ClearSession(ctx, ownerID); err != nil {
		return err
	}

	if from != "" {
		transitionRecorder(from, noState)
		m.log.Debug("session cleared", "owner_id", ownerID, "state", from)
	}

	return nil
}

// All returns every active session.
func (m *Machine) All(ctx context.Context) ([]*Session, error) {
	sessions, err := m.storage.GetAllSessions(ctx)
	if err != nil {
		return nil, err
	}

	active := sessions[:0]
	for _, session := range sessions {
		if !m.Expired(session) {
			active = append(active, session)
		}
	}

	return active, nil
}

// Lock serialises work on ownerID's session across concurrent updates.
func (m *Machine) Lock(ctx context.Context, ownerID int64) (func(), error) {
	return m.locker.Acquire(ctx, ownerID)
}

// Expired reports whether session was idle for longer than the TTL.
func (m *Machine) Expired(session *Session) bool {
	if m.idleTTL <= 0 || session == nil {
		return false
	}

	return m.now().Sub(session.UpdatedAt) > m.idleTTL
}
