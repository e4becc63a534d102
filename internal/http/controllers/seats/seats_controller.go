// Package seats contiene el controller de la API de seats.
package seats

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/seatd/internal/http/dto/seats"
	httperrors "github.com/dropDatabas3/seatd/internal/http/errors"
	"github.com/dropDatabas3/seatd/internal/http/helpers"
	mw "github.com/dropDatabas3/seatd/internal/http/middlewares"
	svc "github.com/dropDatabas3/seatd/internal/http/services/seats"
)

// Controller maneja las rutas de seats.
type Controller struct {
	service svc.Service
}

// New crea un controller de seats.
func New(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Allocate maneja POST /v1/seats/allocate
func (c *Controller) Allocate(w http.ResponseWriter, r *http.Request) {
	var req dto.AllocateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Allocate(r.Context(), mw.GetOccupantID(r.Context()), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Heartbeat maneja POST /v1/seats/heartbeat
func (c *Controller) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req dto.HeartbeatRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Heartbeat(r.Context(), mw.GetOccupantID(r.Context()), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Revoke maneja POST /v1/seats/revoke
func (c *Controller) Revoke(w http.ResponseWriter, r *http.Request) {
	var req dto.RevokeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Revoke(r.Context(), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// RoomSeats maneja GET /v1/rooms/{roomID}/seats
func (c *Controller) RoomSeats(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	resp, err := c.service.RoomSeats(r.Context(), roomID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
