package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/seatd/internal/ledger"
	"github.com/dropDatabas3/seatd/internal/store/memory"
)

func seed(t *testing.T, st ledger.Store, roomID string, assignments ...ledger.Assignment) {
	t.Helper()
	_, err := st.Transact(context.Background(), roomID, func(state *ledger.RoomState) (*ledger.RoomState, error) {
		next := state.Clone()
		for _, a := range assignments {
			next.Assignments[a.SlotID] = a
		}
		return next, nil
	})
	require.NoError(t, err)
}

func TestSweepOnce_ExpiresStaleLeases(t *testing.T) {
	st := memory.New()
	nowMs := time.Now().UnixMilli()

	seed(t, st, "ops-a",
		ledger.Assignment{SlotID: "collector_01", OccupantID: "u1", LastContactAt: nowMs},
		ledger.Assignment{SlotID: "collector_02", OccupantID: "u2", LastContactAt: nowMs - 120_000},
	)
	seed(t, st, "ops-b",
		ledger.Assignment{SlotID: "crew_01", OccupantID: "u3", LastContactAt: nowMs - 120_000},
	)

	sw := New(st, Config{TTL: 60 * time.Second})
	expired := sw.SweepOnce(context.Background())
	require.Equal(t, 2, expired)

	stateA, err := st.Load(context.Background(), "ops-a")
	require.NoError(t, err)
	require.Contains(t, stateA.Assignments, "collector_01")
	require.NotContains(t, stateA.Assignments, "collector_02")

	stateB, err := st.Load(context.Background(), "ops-b")
	require.NoError(t, err)
	require.Empty(t, stateB.Assignments)
}

func TestSweepOnce_NothingToExpire(t *testing.T) {
	st := memory.New()
	seed(t, st, "ops", ledger.Assignment{SlotID: "crew_01", OccupantID: "u1", LastContactAt: time.Now().UnixMilli()})

	sw := New(st, Config{TTL: 60 * time.Second})
	require.Equal(t, 0, sw.SweepOnce(context.Background()))
}

// commitCountingStore cuenta las transacciones que terminan en commit.
type commitCountingStore struct {
	ledger.Store
	commits int
}

func (c *commitCountingStore) Transact(ctx context.Context, roomID string, fn ledger.TxnFunc) (*ledger.RoomState, error) {
	st, err := c.Store.Transact(ctx, roomID, fn)
	if err == nil {
		c.commits++
	}
	return st, err
}

func TestSweepOnce_SkipsCommitWhenNothingExpired(t *testing.T) {
	mem := memory.New()
	nowMs := time.Now().UnixMilli()
	seed(t, mem, "ops", ledger.Assignment{SlotID: "crew_01", OccupantID: "u1", LastContactAt: nowMs})

	counting := &commitCountingStore{Store: mem}
	sw := New(counting, Config{TTL: 60 * time.Second})

	// Sala sin leases vencidos: la pasada no escribe nada.
	require.Equal(t, 0, sw.SweepOnce(context.Background()))
	require.Equal(t, 0, counting.commits)

	// Con un lease vencido sí hay exactamente un commit.
	seed(t, mem, "ops", ledger.Assignment{SlotID: "crew_02", OccupantID: "u2", LastContactAt: nowMs - 120_000})
	require.Equal(t, 1, sw.SweepOnce(context.Background()))
	require.Equal(t, 1, counting.commits)
}

// failingStore envuelve un store y falla las transacciones de una sala.
type failingStore struct {
	ledger.Store
	failRoom string
}

var errBroken = errors.New("backend unavailable")

func (f *failingStore) Transact(ctx context.Context, roomID string, fn ledger.TxnFunc) (*ledger.RoomState, error) {
	if roomID == f.failRoom {
		return nil, errBroken
	}
	return f.Store.Transact(ctx, roomID, fn)
}

func TestSweepOnce_RoomFailureIsIsolated(t *testing.T) {
	mem := memory.New()
	nowMs := time.Now().UnixMilli()

	seed(t, mem, "ops-bad", ledger.Assignment{SlotID: "crew_01", OccupantID: "u1", LastContactAt: nowMs - 120_000})
	seed(t, mem, "ops-good", ledger.Assignment{SlotID: "crew_01", OccupantID: "u2", LastContactAt: nowMs - 120_000})

	sw := New(&failingStore{Store: mem, failRoom: "ops-bad"}, Config{TTL: 60 * time.Second})
	expired := sw.SweepOnce(context.Background())

	// La sala rota no aborta la pasada: la sana se compacta igual.
	require.Equal(t, 1, expired)
	state, err := mem.Load(context.Background(), "ops-good")
	require.NoError(t, err)
	require.Empty(t, state.Assignments)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	sw := New(memory.New(), Config{TTL: time.Second, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
