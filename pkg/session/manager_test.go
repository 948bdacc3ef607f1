package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/automat/pkg/adapters/memory"
	"github.com/aretw0/automat/pkg/adapters/redis"
	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/dsl"
	"github.com/aretw0/automat/pkg/flags"
	"github.com/aretw0/automat/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke lost updates if locking is missing.
type SlowStore struct {
	data map[string]*domain.Snapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]*domain.Snapshot)
	}
	s.data[id] = snap.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[id]; ok {
		return snap.Clone(), nil
	}
	return nil, domain.ErrSnapshotNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) { return nil, nil }

var errJammed = errors.New("switch jammed")

// lightswitch flips power; flipping on with jam=true fails after the state advanced.
func lightswitch(t *testing.T) *dsl.Definition {
	t.Helper()
	b := dsl.New("lightswitch")
	require.NoError(t, b.DeclareFlag(flags.Flag{Name: "power", Domain: []string{"off", "on"}, Initial: "off", Serialized: "p"}))
	flip, err := b.DeclareInput("flip", "jam")
	require.NoError(t, err)
	click, err := b.DeclareOutput("click", func(ctx context.Context, args ...any) (any, error) {
		if jam, _ := args[0].(bool); jam {
			return nil, errJammed
		}
		return "click", nil
	}, "jam")
	require.NoError(t, err)

	off := domain.Compose(map[string]string{"power": "off"})
	on := domain.Compose(map[string]string{"power": "on"})
	require.NoError(t, b.DeclareTransition(off, flip, on, []*domain.Symbol{click}, dsl.WithCollector(dsl.CollectLast)))
	require.NoError(t, b.DeclareTransition(on, flip, off, nil))

	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func TestManager_StartAndInput(t *testing.T) {
	mgr := session.NewManager(lightswitch(t), memory.NewStore())
	ctx := context.Background()

	snap, err := mgr.Start(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p": "off"}, snap.State)
	assert.Equal(t, "lightswitch", snap.Machine)

	res, snap, err := mgr.Input(ctx, "hall", "flip", false)
	require.NoError(t, err)
	assert.Equal(t, "click", res)
	assert.Equal(t, map[string]string{"p": "on"}, snap.State)

	loaded, err := mgr.Load(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, "on", loaded.State["p"])

	// Start on an existing instance does not reset it.
	again, err := mgr.Start(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, "on", again.State["p"])
}

func TestManager_InputFailures(t *testing.T) {
	mgr := session.NewManager(lightswitch(t), memory.NewStore())
	ctx := context.Background()
	_, err := mgr.Start(ctx, "hall")
	require.NoError(t, err)

	_, _, err = mgr.Input(ctx, "nowhere", "flip", false)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	_, _, err = mgr.Input(ctx, "hall", "dim")
	assert.ErrorIs(t, err, domain.ErrUnknownInput)

	_, _, err = mgr.Input(ctx, "hall", "flip")
	assert.ErrorIs(t, err, domain.ErrBadArguments)

	// The output fails, but the switch is on and that is what gets saved.
	_, snap, err := mgr.Input(ctx, "hall", "flip", true)
	assert.ErrorIs(t, err, errJammed)
	assert.Equal(t, "on", snap.State["p"])
	loaded, err := mgr.Load(ctx, "hall")
	require.NoError(t, err)
	assert.Equal(t, "on", loaded.State["p"])
}

func TestManager_MachineMismatch(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "x", domain.NewSnapshot("x", "turnstile", map[string]string{"state": "locked"})))

	mgr := session.NewManager(lightswitch(t), store)
	_, err := mgr.Load(ctx, "x")
	assert.ErrorIs(t, err, session.ErrMachineMismatch)
	_, err = mgr.Start(ctx, "x")
	assert.ErrorIs(t, err, session.ErrMachineMismatch)
}

func TestManager_Locking(t *testing.T) {
	mgr := session.NewManager(lightswitch(t), &SlowStore{})
	ctx := context.Background()
	_, err := mgr.Start(ctx, "race")
	require.NoError(t, err)

	// Eleven serialized flips leave the light on; a lost update would not.
	var wg sync.WaitGroup
	for i := 0; i < 11; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := mgr.Input(ctx, "race", "flip", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := mgr.Load(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, "on", snap.State["p"])
}

func TestManager_ConcurrentStart(t *testing.T) {
	mgr := session.NewManager(lightswitch(t), &SlowStore{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := mgr.Start(ctx, "atomic-init")
			assert.NoError(t, err)
			assert.NotNil(t, snap)
		}()
	}
	wg.Wait()

	snap, err := mgr.Load(ctx, "atomic-init")
	require.NoError(t, err)
	assert.Equal(t, "off", snap.State["p"])
}

func TestManager_DistributedLockAndTrace(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	var traced []string
	tracer := func(old domain.State, in *domain.Symbol, new domain.State) automaton.OutputTracer {
		traced = append(traced, old.String()+" -> "+new.String())
		return nil
	}
	mgr := session.NewManager(lightswitch(t), redis.NewFromClient(client),
		session.WithLocker(redis.NewLocker(client, "test:")),
		session.WithLockTTL(time.Second),
		session.WithTracer(tracer),
	)
	ctx := context.Background()

	_, err := mgr.Start(ctx, "porch")
	require.NoError(t, err)
	_, _, err = mgr.Input(ctx, "porch", "flip", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"{power:off} -> {power:on}"}, traced)
	assert.False(t, mr.Exists("test:lock:porch"), "the distributed lock is released")

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"porch"}, ids)

	require.NoError(t, mgr.Delete(ctx, "porch"))
	_, err = mgr.Load(ctx, "porch")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}
