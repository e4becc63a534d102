package ledger

import (
	"context"
	"errors"
)

// ErrConflict indica fallo del control de concurrencia optimista: otro
// escritor comiteó entre el load y el commit. El caller decide si reintenta
// (Allocate) o lo deja pasar (Heartbeat).
var ErrConflict = errors.New("ledger: transaction conflict")

// TxnFunc computa el próximo estado a partir del actual. Recibe una copia
// que puede mutar libremente; retornar un error aborta la transacción sin
// efectos. Puede ejecutarse más de una vez si hay conflicto y el caller
// reintenta, por lo que no debe tener efectos colaterales externos.
type TxnFunc func(st *RoomState) (*RoomState, error)

// Store es el backend del Room Ledger. Cada sala es una unidad de
// concurrencia independiente: no hay locking entre salas.
//
// Transact aplica fn como read-modify-write atómico sobre el estado de la
// sala: load, compute, commit-si-nadie-escribió (o la primitiva transaccional
// equivalente del backend). Retorna ErrConflict si el commit optimista
// falló; el Allocator reintenta el ciclo completo una cantidad acotada de
// veces.
type Store interface {
	Transact(ctx context.Context, roomID string, fn TxnFunc) (*RoomState, error)

	// Load retorna el estado actual de la sala (sin compactar). Una sala
	// desconocida retorna estado vacío, no error: la inexistencia y la
	// vaciedad son lo mismo para el ledger.
	Load(ctx context.Context, roomID string) (*RoomState, error)

	// Rooms lista los ids de salas conocidas por el backend (para el sweeper).
	Rooms(ctx context.Context) ([]string, error)

	// Ping verifica la salud del backend.
	Ping(ctx context.Context) error

	Close() error
}
