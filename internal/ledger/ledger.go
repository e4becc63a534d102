// Package ledger modela el estado por sala: qué seat está ocupado por quién
// y desde cuándo. Todas las funciones de este paquete son puras; la vuelta
// atómica al storage la da ledger.Store (ver store.go).
package ledger

import (
	"strings"
	"time"

	"github.com/dropDatabas3/seatd/internal/catalog"
)

// Assignment es el binding vivo de un slot a un ocupante.
//
// Pool registra el rol SOLICITADO, no el pool nativo del slot: bajo la
// política de préstamo un crew puede ocupar un slot collector y los
// consumidores downstream se guían por este campo.
type Assignment struct {
	SlotID        string       `json:"slotId"`
	OccupantID    string       `json:"occupantId"`
	Pool          catalog.Pool `json:"pool"`
	DisplayLabel  string       `json:"displayLabel"`
	LastContactAt int64        `json:"lastContactAt"` // epoch millis
}

// RoomState es el ledger de una sala: asignaciones vivas por slot id.
type RoomState struct {
	LastCompactedAt int64                 `json:"lastCompactedAt"` // epoch millis
	Assignments     map[string]Assignment `json:"assignments"`
}

// NewRoomState crea un estado vacío.
func NewRoomState() *RoomState {
	return &RoomState{Assignments: make(map[string]Assignment)}
}

// Clone retorna una copia profunda del estado (las Assignment son valores).
func (st *RoomState) Clone() *RoomState {
	if st == nil {
		return NewRoomState()
	}
	out := &RoomState{
		LastCompactedAt: st.LastCompactedAt,
		Assignments:     make(map[string]Assignment, len(st.Assignments)),
	}
	for k, v := range st.Assignments {
		out.Assignments[k] = v
	}
	return out
}

// Counts agrupa la ocupación por pool más el total.
type Counts struct {
	Total     int `json:"total"`
	Collector int `json:"collector"`
	Monitor   int `json:"monitor"`
	Crew      int `json:"crew"`
}

// Compact retorna el estado sin las asignaciones vencidas: toda entrada con
// más de ttl de silencio respecto de now se descarta. No muta st: es el lado
// de lectura de la transacción atómica. Un estado compactado nunca contiene
// una asignación más vieja que el TTL.
func Compact(st *RoomState, now time.Time, ttl time.Duration) *RoomState {
	nowMs := now.UnixMilli()
	next := &RoomState{
		LastCompactedAt: nowMs,
		Assignments:     make(map[string]Assignment),
	}
	if st == nil {
		return next
	}
	for slotID, a := range st.Assignments {
		if a.OccupantID == "" || a.LastContactAt == 0 {
			continue
		}
		if nowMs-a.LastContactAt > ttl.Milliseconds() {
			continue
		}
		a.SlotID = slotID
		next.Assignments[slotID] = a
	}
	return next
}

// FindByOccupant retorna la asignación del ocupante, si existe.
func FindByOccupant(st *RoomState, occupantID string) (Assignment, bool) {
	if st == nil {
		return Assignment{}, false
	}
	for _, a := range st.Assignments {
		if a.OccupantID == occupantID {
			return a, true
		}
	}
	return Assignment{}, false
}

// CountsByPool calcula la ocupación por pool y el total.
func CountsByPool(st *RoomState) Counts {
	var c Counts
	if st == nil {
		return c
	}
	for _, a := range st.Assignments {
		c.Total++
		switch a.Pool {
		case catalog.PoolCollector:
			c.Collector++
		case catalog.PoolMonitor:
			c.Monitor++
		case catalog.PoolCrew:
			c.Crew++
		}
	}
	return c
}

// FindFreeSlot retorna el slot libre de número más bajo del pool pedido,
// recorriendo el catálogo en orden determinístico.
func FindFreeSlot(cat *catalog.Catalog, st *RoomState, pool catalog.Pool) (catalog.Slot, bool) {
	for _, s := range cat.InPool(pool) {
		if _, occupied := st.Assignments[s.ID]; !occupied {
			return s, true
		}
	}
	return catalog.Slot{}, false
}

// NormalizeRoomID normaliza un room id de entrada libre antes de usarlo como
// clave de storage o claim del token: trim, lowercase y solo [a-z0-9_-].
// Esto evita colisiones entre salas e inyección de claves.
func NormalizeRoomID(room string) string {
	room = strings.ToLower(strings.TrimSpace(room))
	var b strings.Builder
	b.Grow(len(room))
	for _, r := range room {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
