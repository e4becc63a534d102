package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/seatd/internal/ledger"
)

func put(st *ledger.RoomState, slotID, occupantID string) *ledger.RoomState {
	next := st.Clone()
	next.Assignments[slotID] = ledger.Assignment{SlotID: slotID, OccupantID: occupantID, LastContactAt: 1}
	return next
}

func TestTransact_CommitAndLoad(t *testing.T) {
	m := New()
	ctx := context.Background()

	_, err := m.Transact(ctx, "ops", func(st *ledger.RoomState) (*ledger.RoomState, error) {
		return put(st, "crew_01", "u1"), nil
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	st, err := m.Load(ctx, "ops")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Assignments["crew_01"].OccupantID != "u1" {
		t.Fatalf("commit not visible: %+v", st.Assignments)
	}

	rooms, err := m.Rooms(ctx)
	if err != nil || len(rooms) != 1 || rooms[0] != "ops" {
		t.Fatalf("rooms = %v, err = %v", rooms, err)
	}
}

func TestTransact_ConflictOnConcurrentWrite(t *testing.T) {
	m := New()
	ctx := context.Background()

	_, err := m.Transact(ctx, "ops", func(st *ledger.RoomState) (*ledger.RoomState, error) {
		// Escritor concurrente comitea mientras esta transacción computa.
		if _, err := m.Transact(ctx, "ops", func(inner *ledger.RoomState) (*ledger.RoomState, error) {
			return put(inner, "crew_02", "u2"), nil
		}); err != nil {
			t.Fatalf("inner transact: %v", err)
		}
		return put(st, "crew_01", "u1"), nil
	})
	if !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// La escritura del ganador sobrevive intacta.
	st, _ := m.Load(ctx, "ops")
	if _, ok := st.Assignments["crew_02"]; !ok {
		t.Fatal("winner write lost")
	}
	if _, ok := st.Assignments["crew_01"]; ok {
		t.Fatal("loser write must not be applied")
	}
}

func TestTransact_FnErrorDoesNotCommit(t *testing.T) {
	m := New()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := m.Transact(ctx, "ops", func(st *ledger.RoomState) (*ledger.RoomState, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	rooms, _ := m.Rooms(ctx)
	if len(rooms) != 0 {
		t.Fatalf("failed transaction must not create the room: %v", rooms)
	}
}

func TestTransact_SnapshotIsolation(t *testing.T) {
	m := New()
	ctx := context.Background()

	_, err := m.Transact(ctx, "ops", func(st *ledger.RoomState) (*ledger.RoomState, error) {
		return put(st, "crew_01", "u1"), nil
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	st, _ := m.Load(ctx, "ops")
	st.Assignments["crew_09"] = ledger.Assignment{SlotID: "crew_09", OccupantID: "hack", LastContactAt: 1}

	st2, _ := m.Load(ctx, "ops")
	if _, ok := st2.Assignments["crew_09"]; ok {
		t.Fatal("Load must return an isolated copy")
	}
}
