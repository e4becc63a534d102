// Package pg implementa el Room Ledger sobre Postgres.
//
// Cada sala es una fila con el estado como JSONB. Transact corre dentro de
// una transacción con SELECT ... FOR UPDATE: el row lock serializa a los
// escritores de la misma sala, así que este backend nunca produce
// ledger.ErrConflict (la primitiva transaccional es pesimista, el contrato
// atómico se cumple igual).
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/seatd/internal/ledger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS room_states (
    room_id    TEXT PRIMARY KEY,
    state      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Config configura la conexión.
type Config struct {
	DSN          string
	MaxOpenConns int
}

// PG implementa ledger.Store.
type PG struct {
	pool *pgxpool.Pool
}

// New abre el pool, verifica la conexión y crea el esquema si falta.
func New(ctx context.Context, cfg Config) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store/pg: parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("store/pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/pg: ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/pg: ensure schema: %w", err)
	}
	return &PG{pool: pool}, nil
}

// Transact implementa ledger.Store.
func (s *PG) Transact(ctx context.Context, roomID string, fn ledger.TxnFunc) (*ledger.RoomState, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("store/pg: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT state FROM room_states WHERE room_id = $1 FOR UPDATE`, roomID,
	).Scan(&raw)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store/pg: load %s: %w", roomID, err)
	}

	st := ledger.NewRoomState()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, st); err != nil {
			return nil, fmt.Errorf("store/pg: decode state %s: %w", roomID, err)
		}
		if st.Assignments == nil {
			st.Assignments = make(map[string]ledger.Assignment)
		}
	}

	next, err := fn(st)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO room_states (room_id, state, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (room_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		roomID, b)
	if err != nil {
		return nil, fmt.Errorf("store/pg: save %s: %w", roomID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("store/pg: commit %s: %w", roomID, err)
	}
	return next, nil
}

// Load implementa ledger.Store.
func (s *PG) Load(ctx context.Context, roomID string) (*ledger.RoomState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM room_states WHERE room_id = $1`, roomID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.NewRoomState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store/pg: load %s: %w", roomID, err)
	}
	st := ledger.NewRoomState()
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("store/pg: decode state %s: %w", roomID, err)
	}
	if st.Assignments == nil {
		st.Assignments = make(map[string]ledger.Assignment)
	}
	return st, nil
}

// Rooms implementa ledger.Store.
func (s *PG) Rooms(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT room_id FROM room_states ORDER BY room_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Ping implementa ledger.Store.
func (s *PG) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implementa ledger.Store.
func (s *PG) Close() error {
	s.pool.Close()
	return nil
}
