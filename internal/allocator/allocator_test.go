package allocator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/seatd/internal/catalog"
	"github.com/dropDatabas3/seatd/internal/store/memory"
)

func newAllocator(t *testing.T, sizes catalog.Sizes, cfg Config) (*Allocator, *memory.Mem) {
	t.Helper()
	st := memory.New()
	return New(st, catalog.New(sizes), cfg), st
}

func TestAllocate_GrantsLowestSlot(t *testing.T) {
	a, _ := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()
	now := time.Now()

	res, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)
	require.Equal(t, "collector_01", res.SlotID)
	require.Equal(t, catalog.PoolCollector, res.Pool)
	require.False(t, res.Reused)

	res2, err := a.Allocate(ctx, "ops", "u2", catalog.PoolCollector, "src.cam2", now)
	require.NoError(t, err)
	require.Equal(t, "collector_02", res2.SlotID)
}

func TestAllocate_IdempotentPerOccupant(t *testing.T) {
	a, st := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()
	now := time.Now()

	first, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)

	// Reconexión: mismo seat, label refrescado, sin duplicados.
	later := now.Add(30 * time.Second)
	second, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCollector, "src.cam1b", later)
	require.NoError(t, err)
	require.Equal(t, first.SlotID, second.SlotID)
	require.True(t, second.Reused)
	require.Equal(t, 1, second.Counts.Total)

	state, err := st.Load(ctx, "ops")
	require.NoError(t, err)
	require.Equal(t, "src.cam1b", state.Assignments[first.SlotID].DisplayLabel)
	require.Equal(t, later.UnixMilli(), state.Assignments[first.SlotID].LastContactAt)
}

func TestAllocate_CrewBorrowsCollector(t *testing.T) {
	a, _ := newAllocator(t, catalog.Sizes{Collector: 2, Monitor: 1, Crew: 1}, Config{Ceiling: 10})
	ctx := context.Background()
	now := time.Now()

	_, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCrew, "host", now)
	require.NoError(t, err)

	// Crew lleno: el siguiente crew toma un slot collector pero sigue
	// contando como crew.
	res, err := a.Allocate(ctx, "ops", "u2", catalog.PoolCrew, "guest", now)
	require.NoError(t, err)
	require.Equal(t, "collector_01", res.SlotID)
	require.Equal(t, catalog.PoolCrew, res.Pool)
	require.Equal(t, 2, res.Counts.Crew)
	require.Equal(t, 0, res.Counts.Collector)
}

func TestAllocate_NoBorrowForMonitor(t *testing.T) {
	a, _ := newAllocator(t, catalog.Sizes{Collector: 2, Monitor: 1, Crew: 1}, Config{Ceiling: 10})
	ctx := context.Background()
	now := time.Now()

	_, err := a.Allocate(ctx, "ops", "u1", catalog.PoolMonitor, "mon.wall", now)
	require.NoError(t, err)

	_, err = a.Allocate(ctx, "ops", "u2", catalog.PoolMonitor, "mon.wall2", now)
	require.ErrorIs(t, err, ErrNoCapacity)
}

func TestAllocate_GlobalCeiling(t *testing.T) {
	a, _ := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 16; i++ {
		_, err := a.Allocate(ctx, "ops", occupant("c", i), catalog.PoolCollector, "src.cam", now)
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, err := a.Allocate(ctx, "ops", occupant("m", i), catalog.PoolMonitor, "mon.wall", now)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := a.Allocate(ctx, "ops", occupant("w", i), catalog.PoolCrew, "host", now)
		require.NoError(t, err)
	}

	// 25 ocupados: el 26º se rechaza aunque pida cualquier pool.
	_, err := a.Allocate(ctx, "ops", "u26", catalog.PoolCrew, "late", now)
	require.ErrorIs(t, err, ErrNoCapacity)
}

func TestAllocate_ExpiredSeatsFreeCapacity(t *testing.T) {
	a, _ := newAllocator(t, catalog.Sizes{Collector: 1, Monitor: 1, Crew: 1}, Config{Ceiling: 1})
	ctx := context.Background()
	now := time.Now()

	_, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)

	// Con el techo alcanzado y u1 vencido, u2 recupera la capacidad.
	later := now.Add(61 * time.Second)
	res, err := a.Allocate(ctx, "ops", "u2", catalog.PoolCollector, "src.cam2", later)
	require.NoError(t, err)
	require.Equal(t, "collector_01", res.SlotID)
	require.Equal(t, 1, res.Counts.Total)
}

func TestAllocate_RoomsAreIndependent(t *testing.T) {
	a, _ := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()
	now := time.Now()

	r1, err := a.Allocate(ctx, "ops-a", "u1", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)
	r2, err := a.Allocate(ctx, "ops-b", "u2", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)
	require.Equal(t, "collector_01", r1.SlotID)
	require.Equal(t, "collector_01", r2.SlotID)
}

func TestAllocate_RaceForLastSlot(t *testing.T) {
	a, _ := newAllocator(t, catalog.Sizes{Collector: 1, Monitor: 1, Crew: 1}, Config{Ceiling: 1})
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = a.Allocate(ctx, "ops", occupant("u", i), catalog.PoolCrew, "host", now)
		}(i)
	}
	wg.Wait()

	ok, exhausted := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case err == ErrNoCapacity:
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one occupant wins the last seat")
	require.Equal(t, 1, exhausted)
}

func TestHeartbeat_RefreshesLease(t *testing.T) {
	a, st := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()
	now := time.Now()

	res, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCrew, "host", now)
	require.NoError(t, err)

	beat := now.Add(59 * time.Second)
	require.NoError(t, a.Heartbeat(ctx, "ops", "u1", beat))

	state, err := st.Load(ctx, "ops")
	require.NoError(t, err)
	require.Equal(t, beat.UnixMilli(), state.Assignments[res.SlotID].LastContactAt)

	// Un heartbeat a tiempo mantiene el seat vivo más allá del TTL original.
	later := beat.Add(59 * time.Second)
	res2, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCrew, "host", later)
	require.NoError(t, err)
	require.Equal(t, res.SlotID, res2.SlotID)
	require.True(t, res2.Reused)
}

func TestHeartbeat_NeverCreatesAssignments(t *testing.T) {
	a, st := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()

	require.NoError(t, a.Heartbeat(ctx, "ops", "ghost", time.Now()))

	state, err := st.Load(ctx, "ops")
	require.NoError(t, err)
	for _, assignment := range state.Assignments {
		require.NotEqual(t, "ghost", assignment.OccupantID)
	}
}

func TestRevoke_RemovesFreshAssignment(t *testing.T) {
	a, _ := newAllocator(t, catalog.DefaultSizes, Config{})
	ctx := context.Background()
	now := time.Now()

	res, err := a.Allocate(ctx, "ops", "u1", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)

	// Revoke es incondicional: el lease está fresco y aun así sale.
	require.NoError(t, a.Revoke(ctx, "ops", res.SlotID))

	res2, err := a.Allocate(ctx, "ops", "u2", catalog.PoolCollector, "src.cam1", now)
	require.NoError(t, err)
	require.Equal(t, res.SlotID, res2.SlotID)
}

func TestRevoke_UnknownSlotIsNoop(t *testing.T) {
	a, _ := newAllocator(t, catalog.DefaultSizes, Config{})
	require.NoError(t, a.Revoke(context.Background(), "ops", "collector_09"))
}

func occupant(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+i))
}
