package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/automat/internal/logging"
	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/dsl"
	"github.com/aretw0/automat/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold an instance.
const DefaultLockTTL = 30 * time.Second

// ErrMachineMismatch is returned when a stored snapshot belongs to another machine.
var ErrMachineMismatch = errors.New("snapshot belongs to another machine")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to persisted instances of one machine definition.
// Each call loads the snapshot, restores the instance, applies the input and
// saves the result while holding the instance's lock, so concurrent callers
// never lose updates. Locks are reference counted and dropped when unused.
type Manager struct {
	def   *dsl.Definition
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	tracer  automaton.Tracer
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithTracer installs tracer on every restored instance.
func WithTracer(tracer automaton.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager for def backed by store.
func NewManager(def *dsl.Definition, store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		def:     def,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Definition returns the managed machine definition.
func (m *Manager) Definition() *dsl.Definition { return m.def }

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore { return m.store }

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock runs fn while holding the lock for instance id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"instance_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start loads instance id, creating it in the initial state if it does not exist.
func (m *Manager) Start(ctx context.Context, id string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		snap, err = m.load(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("failed to check instance existence: %w", err)
		}

		state, err := m.def.NewInstance().Snapshot()
		if err != nil {
			return err
		}
		snap = domain.NewSnapshot(id, m.def.Name(), state)
		if err := m.store.Save(ctx, id, snap); err != nil {
			return fmt.Errorf("failed to initialize instance: %w", err)
		}
		m.logger.Debug("Instance started", "instance_id", id, "machine", m.def.Name())
		return nil
	})
	return snap, err
}

// Load returns the stored snapshot of instance id.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		snap, err = m.load(ctx, id)
		return err
	})
	return snap, err
}

func (m *Manager) load(ctx context.Context, id string) (*domain.Snapshot, error) {
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Machine != m.def.Name() {
		return nil, fmt.Errorf("%w: instance %q is a %q, not a %q", ErrMachineMismatch, id, snap.Machine, m.def.Name())
	}
	return snap, nil
}

// Input applies one input to instance id and saves the new state.
//
// Inputs rejected before a transition (unknown input, bad arguments, no
// transition) leave the stored snapshot untouched. When an output fails
// after the state advanced, the new state is saved and the output's error
// is returned with it.
func (m *Manager) Input(ctx context.Context, id, input string, args ...any) (any, *domain.Snapshot, error) {
	var (
		result any
		snap   *domain.Snapshot
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		stored, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		snap = stored

		var opts []automaton.TransitionerOption
		if m.tracer != nil {
			opts = append(opts, automaton.WithTracer(m.tracer))
		}
		inst, err := m.def.Restore(stored.State, opts...)
		if err != nil {
			return fmt.Errorf("failed to restore instance %q: %w", id, err)
		}
		before := inst.State()

		result, err = inst.InputByName(ctx, input, args...)
		if err != nil && inst.State().Equal(before) {
			return err
		}

		state, serr := inst.Snapshot()
		if serr != nil {
			return serr
		}
		snap = domain.NewSnapshot(id, m.def.Name(), state)
		if serr := m.store.Save(ctx, id, snap); serr != nil {
			return errors.Join(err, fmt.Errorf("failed to save instance %q: %w", id, serr))
		}
		return err
	})
	return result, snap, err
}

// Delete removes instance id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
