// Package seats contiene los DTOs de la API de seats.
package seats

// AllocateRequest es el body de POST /v1/seats/allocate.
type AllocateRequest struct {
	Room         string `json:"room"`
	DisplayLabel string `json:"displayLabel"`
	Role         string `json:"role,omitempty"`
}

// PoolCounts agrupa la ocupación por pool más el total.
type PoolCounts struct {
	Total     int `json:"total"`
	Collector int `json:"collector"`
	Monitor   int `json:"monitor"`
	Crew      int `json:"crew"`
}

// AllocateResponse devuelve el seat otorgado y su credencial de sala.
type AllocateResponse struct {
	Room       string     `json:"room"`
	SlotID     string     `json:"slotId"`
	Pool       string     `json:"pool"`
	Credential string     `json:"credential"`
	Counts     PoolCounts `json:"counts"`
	// TTLSeconds indica cada cuánto debe llegar un heartbeat como máximo.
	TTLSeconds int `json:"ttlSeconds"`
}

// HeartbeatRequest es el body de POST /v1/seats/heartbeat.
type HeartbeatRequest struct {
	Room string `json:"room"`
}

// HeartbeatResponse confirma la recepción del heartbeat.
type HeartbeatResponse struct {
	OK bool `json:"ok"`
}

// RevokeRequest es el body de POST /v1/seats/revoke.
type RevokeRequest struct {
	Room   string `json:"room"`
	SlotID string `json:"slotId"`
}

// RevokeResponse confirma la revocación.
type RevokeResponse struct {
	OK bool `json:"ok"`
}

// SeatView describe una asignación viva para inspección.
type SeatView struct {
	SlotID        string `json:"slotId"`
	Pool          string `json:"pool"`
	OccupantID    string `json:"occupantId"`
	DisplayLabel  string `json:"displayLabel"`
	LastContactAt int64  `json:"lastContactAt"`
}

// RoomSeatsResponse es la respuesta de GET /v1/rooms/{roomID}/seats.
type RoomSeatsResponse struct {
	Room   string     `json:"room"`
	Seats  []SeatView `json:"seats"`
	Counts PoolCounts `json:"counts"`
}
