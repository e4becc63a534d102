// Package http arma el router y el servidor de la API de seats.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	seatsctrl "github.com/dropDatabas3/seatd/internal/http/controllers/seats"
	"github.com/dropDatabas3/seatd/internal/http/helpers"
	mw "github.com/dropDatabas3/seatd/internal/http/middlewares"
)

// RouterDeps contiene las dependencias para armar el router.
type RouterDeps struct {
	Seats *seatsctrl.Controller

	// AuthSecret valida los bearer tokens de los callers.
	AuthSecret   string
	AuthCacheTTL time.Duration

	// Ready reporta si las dependencias críticas responden.
	Ready func(r *http.Request) error

	// Metrics es el handler de /metrics (opcional).
	Metrics http.Handler
}

// NewRouter arma el router chi con la cadena de middlewares estándar.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	base := []mw.Middleware{
		mw.WithRecover(),
		mw.WithRequestID(),
		WithMetricsMiddleware(),
		mw.WithLogging(),
	}
	auth := append(append([]mw.Middleware{}, base...),
		mw.RequireAuthOrDev(deps.AuthSecret, deps.AuthCacheTTL),
	)

	r.Method(http.MethodGet, "/healthz", mw.Chain(http.HandlerFunc(handleHealthz), base...))
	r.Method(http.MethodGet, "/readyz", mw.Chain(readyzHandler(deps.Ready), base...))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Method(http.MethodPost, "/v1/seats/allocate", mw.Chain(http.HandlerFunc(deps.Seats.Allocate), auth...))
	r.Method(http.MethodPost, "/v1/seats/heartbeat", mw.Chain(http.HandlerFunc(deps.Seats.Heartbeat), auth...))
	r.Method(http.MethodPost, "/v1/seats/revoke", mw.Chain(http.HandlerFunc(deps.Seats.Revoke), auth...))
	r.Method(http.MethodGet, "/v1/rooms/{roomID}/seats", mw.Chain(http.HandlerFunc(deps.Seats.RoomSeats), auth...))

	return r
}

// WithMetricsMiddleware adapta WithMetrics a la firma Middleware.
func WithMetricsMiddleware() mw.Middleware {
	return func(next http.Handler) http.Handler {
		return WithMetrics(next)
	}
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readyzHandler(ready func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r); err != nil {
				helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
