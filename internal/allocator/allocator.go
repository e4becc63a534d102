// Package allocator implementa la máquina de estados de asignación de seats:
// reuso idempotente, claim del slot libre más bajo, préstamo entre pools y
// techo global, todo dentro de una transacción atómica por sala.
package allocator

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/seatd/internal/catalog"
	"github.com/dropDatabas3/seatd/internal/ledger"
	"github.com/dropDatabas3/seatd/internal/observability/logger"
)

// ErrNoCapacity indica que no hay seat disponible: techo global alcanzado,
// o ningún slot libre en el pool pedido ni en el pool prestador. Es una
// condición esperada bajo carga, no un bug.
var ErrNoCapacity = errors.New("allocator: no seat available")

// Política de préstamo: crew (demanda baja y con ráfagas) puede tomar slots
// libres de collector (capacidad nominal alta). El techo global sigue siendo
// el único límite duro.
const (
	borrowerPool = catalog.PoolCrew
	lenderPool   = catalog.PoolCollector
)

// Config parametriza el Allocator.
type Config struct {
	// TTL es el silencio máximo antes de considerar abandonada una asignación.
	TTL time.Duration

	// Ceiling es el máximo de asignaciones simultáneas por sala.
	Ceiling int

	// MaxRetries acota los reintentos ante conflicto de escritura optimista.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 60 * time.Second
	}
	if c.Ceiling <= 0 {
		c.Ceiling = 25
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	return c
}

// Result es la asignación finalizada que vuelve al caller.
type Result struct {
	SlotID string
	Pool   catalog.Pool
	Counts ledger.Counts
	// Reused indica que el ocupante ya tenía este seat (reconexión).
	Reused bool
}

// Allocator decide y comitea asignaciones contra el Room Ledger.
type Allocator struct {
	store ledger.Store
	cat   *catalog.Catalog
	cfg   Config
}

// New crea un Allocator.
func New(store ledger.Store, cat *catalog.Catalog, cfg Config) *Allocator {
	return &Allocator{store: store, cat: cat, cfg: cfg.withDefaults()}
}

// TTL retorna el lease TTL configurado.
func (a *Allocator) TTL() time.Duration { return a.cfg.TTL }

// Allocate asigna un seat al ocupante en la sala indicada.
//
// Dentro de una única transacción: compacta (recupera capacidad vencida
// antes de decidir admisión), reusa la asignación existente del ocupante si
// la hay (refrescando label y last contact), y si no, reclama el slot libre
// más bajo del pool pedido, con fallback al pool prestador para crew. La
// asignación nueva registra el pool PEDIDO, no el nativo del slot.
//
// Los conflictos de escritura se reintentan hasta MaxRetries; agotarlos se
// reporta como ErrNoCapacity (no poder determinar disponibilidad con
// seguridad se trata igual que no tener disponibilidad).
func (a *Allocator) Allocate(ctx context.Context, roomID, occupantID string, pool catalog.Pool, displayLabel string, now time.Time) (Result, error) {
	nowMs := now.UnixMilli()

	var assignedSlot string
	var assignedPool catalog.Pool
	var reused bool

	fn := func(st *ledger.RoomState) (*ledger.RoomState, error) {
		cleaned := ledger.Compact(st, now, a.cfg.TTL)
		reused = false

		// Idempotencia por ocupante: reconectar nunca pierde ni duplica el seat.
		if existing, ok := ledger.FindByOccupant(cleaned, occupantID); ok {
			existing.DisplayLabel = displayLabel
			existing.LastContactAt = nowMs
			cleaned.Assignments[existing.SlotID] = existing
			assignedSlot, assignedPool = existing.SlotID, existing.Pool
			reused = true
			return cleaned, nil
		}

		if ledger.CountsByPool(cleaned).Total >= a.cfg.Ceiling {
			return nil, ErrNoCapacity
		}

		slot, ok := ledger.FindFreeSlot(a.cat, cleaned, pool)
		if !ok && pool == borrowerPool {
			slot, ok = ledger.FindFreeSlot(a.cat, cleaned, lenderPool)
		}
		if !ok {
			return nil, ErrNoCapacity
		}

		cleaned.Assignments[slot.ID] = ledger.Assignment{
			SlotID:        slot.ID,
			OccupantID:    occupantID,
			Pool:          pool,
			DisplayLabel:  displayLabel,
			LastContactAt: nowMs,
		}
		assignedSlot, assignedPool = slot.ID, pool
		return cleaned, nil
	}

	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxRetries; attempt++ {
		st, err := a.store.Transact(ctx, roomID, fn)
		if errors.Is(err, ledger.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return Result{}, err
		}
		return Result{
			SlotID: assignedSlot,
			Pool:   assignedPool,
			Counts: ledger.CountsByPool(st),
			Reused: reused,
		}, nil
	}

	logger.From(ctx).Warn("allocate retries exhausted",
		logger.Component("allocator"),
		logger.RoomID(roomID),
		logger.Err(lastErr),
	)
	return Result{}, ErrNoCapacity
}

// Heartbeat refresca el last contact de la asignación del ocupante.
//
// Best-effort: si el ocupante no tiene asignación (expiró o nunca la tuvo)
// no hace nada y no falla — el heartbeat jamás crea asignaciones. Un
// conflicto de escritura se deja pasar sin reintento agresivo: el próximo
// ciclo de heartbeat se auto-repara.
func (a *Allocator) Heartbeat(ctx context.Context, roomID, occupantID string, now time.Time) error {
	nowMs := now.UnixMilli()

	_, err := a.store.Transact(ctx, roomID, func(st *ledger.RoomState) (*ledger.RoomState, error) {
		cleaned := ledger.Compact(st, now, a.cfg.TTL)
		if existing, ok := ledger.FindByOccupant(cleaned, occupantID); ok {
			existing.LastContactAt = nowMs
			cleaned.Assignments[existing.SlotID] = existing
		}
		return cleaned, nil
	})
	if errors.Is(err, ledger.ErrConflict) {
		return nil
	}
	return err
}

// Revoke elimina incondicionalmente la asignación del slot, sin importar
// TTL ni identidad del ocupante. La autorización del caller es
// responsabilidad de la capa que llama.
func (a *Allocator) Revoke(ctx context.Context, roomID, slotID string) error {
	fn := func(st *ledger.RoomState) (*ledger.RoomState, error) {
		next := st.Clone()
		delete(next.Assignments, slotID)
		return next, nil
	}

	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxRetries; attempt++ {
		if _, err := a.store.Transact(ctx, roomID, fn); err != nil {
			if errors.Is(err, ledger.ErrConflict) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}
