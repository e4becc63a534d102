// Package memory implementa el Room Ledger en memoria del proceso.
//
// Útil para desarrollo, testing y despliegues de una sola instancia. El
// commit es compare-and-swap por versión: el snapshot se toma bajo read
// lock, fn corre sin locks y el commit falla con ledger.ErrConflict si otro
// escritor comiteó entre medio, igual que los backends compartidos. Así los
// paths de retry del Allocator se ejercitan también in-process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dropDatabas3/seatd/internal/ledger"
)

type entry struct {
	state   *ledger.RoomState
	version uint64
}

// Mem implementa ledger.Store.
type Mem struct {
	mu    sync.RWMutex
	rooms map[string]*entry
}

// New crea un store en memoria vacío.
func New() *Mem {
	return &Mem{rooms: make(map[string]*entry)}
}

func (m *Mem) snapshot(roomID string) (*ledger.RoomState, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rooms[roomID]
	if !ok {
		return ledger.NewRoomState(), 0
	}
	return e.state.Clone(), e.version
}

// Transact implementa ledger.Store.
func (m *Mem) Transact(ctx context.Context, roomID string, fn ledger.TxnFunc) (*ledger.RoomState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, version := m.snapshot(roomID)
	next, err := fn(st)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := uint64(0)
	if e, ok := m.rooms[roomID]; ok {
		current = e.version
	}
	if current != version {
		return nil, ledger.ErrConflict
	}
	m.rooms[roomID] = &entry{state: next.Clone(), version: version + 1}
	return next, nil
}

// Load implementa ledger.Store.
func (m *Mem) Load(ctx context.Context, roomID string) (*ledger.RoomState, error) {
	st, _ := m.snapshot(roomID)
	return st, nil
}

// Rooms implementa ledger.Store. El orden es estable para que los sweeps
// sean reproducibles en tests.
func (m *Mem) Rooms(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Ping implementa ledger.Store.
func (m *Mem) Ping(ctx context.Context) error { return nil }

// Close implementa ledger.Store.
func (m *Mem) Close() error { return nil }
