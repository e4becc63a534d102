// Package redis implementa el Room Ledger sobre Redis.
//
// El estado de cada sala vive como documento JSON en una key propia y las
// salas conocidas se indexan en un set. La transacción optimista usa
// WATCH/MULTI/EXEC: si otro escritor toca la key entre el GET y el EXEC,
// Redis aborta el EXEC y lo mapeamos a ledger.ErrConflict.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/seatd/internal/ledger"
)

// Config configura la conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prefijo de todas las keys (default "seatd")
}

// Redis implementa ledger.Store.
type Redis struct {
	client *redis.Client
	prefix string
}

// New crea el store y verifica la conexión.
func New(ctx context.Context, cfg Config) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("store/redis: ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "seatd"
	}
	return &Redis{client: rdb, prefix: prefix}, nil
}

func (s *Redis) stateKey(roomID string) string {
	return fmt.Sprintf("%s:rooms:%s:state", s.prefix, roomID)
}

func (s *Redis) indexKey() string {
	return s.prefix + ":rooms"
}

func decodeState(raw string) (*ledger.RoomState, error) {
	if raw == "" {
		return ledger.NewRoomState(), nil
	}
	var st ledger.RoomState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("store/redis: decode state: %w", err)
	}
	if st.Assignments == nil {
		st.Assignments = make(map[string]ledger.Assignment)
	}
	return &st, nil
}

// Transact implementa ledger.Store.
func (s *Redis) Transact(ctx context.Context, roomID string, fn ledger.TxnFunc) (*ledger.RoomState, error) {
	key := s.stateKey(roomID)
	var out *ledger.RoomState

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		st, err := decodeState(raw)
		if err != nil {
			return err
		}

		next, err := fn(st)
		if err != nil {
			return err
		}
		b, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			pipe.SAdd(ctx, s.indexKey(), roomID)
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ledger.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Load implementa ledger.Store.
func (s *Redis) Load(ctx context.Context, roomID string) (*ledger.RoomState, error) {
	raw, err := s.client.Get(ctx, s.stateKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return ledger.NewRoomState(), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeState(raw)
}

// Rooms implementa ledger.Store.
func (s *Redis) Rooms(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.indexKey()).Result()
}

// Ping implementa ledger.Store.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implementa ledger.Store.
func (s *Redis) Close() error {
	return s.client.Close()
}
