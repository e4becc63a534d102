// Package seats contiene el service de la API de seats: validación de
// entrada, derivación de pool y moderador, y traducción de errores de
// dominio a la taxonomía HTTP.
package seats

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dropDatabas3/seatd/internal/allocator"
	"github.com/dropDatabas3/seatd/internal/catalog"
	dto "github.com/dropDatabas3/seatd/internal/http/dto/seats"
	httperrors "github.com/dropDatabas3/seatd/internal/http/errors"
	"github.com/dropDatabas3/seatd/internal/ledger"
	"github.com/dropDatabas3/seatd/internal/metrics"
	"github.com/dropDatabas3/seatd/internal/observability/logger"
	"github.com/dropDatabas3/seatd/internal/token"
)

// Service define las operaciones de seats expuestas por la API.
type Service interface {
	Allocate(ctx context.Context, occupantID string, req dto.AllocateRequest) (dto.AllocateResponse, error)
	Heartbeat(ctx context.Context, occupantID string, req dto.HeartbeatRequest) (dto.HeartbeatResponse, error)
	Revoke(ctx context.Context, req dto.RevokeRequest) (dto.RevokeResponse, error)
	RoomSeats(ctx context.Context, roomID string) (dto.RoomSeatsResponse, error)
}

// Deps contiene las dependencias inyectables del service.
type Deps struct {
	Allocator *allocator.Allocator
	Issuer    *token.Issuer // nil deshabilita la emisión (allocate responde 503)
	Store     ledger.Store
	Catalog   *catalog.Catalog
}

type service struct {
	deps Deps
}

// New crea un service de seats.
func New(deps Deps) Service {
	return &service{deps: deps}
}

const componentSeats = "seats"

// poolForLabel deriva el pool del prefijo del display label: las fuentes de
// captura se nombran "src.*", los puestos de monitoreo "mon.*" y cualquier
// otro label es crew. El prefijo se compara sin distinguir mayúsculas; el
// label original se conserva tal cual para mostrar y para la credencial.
func poolForLabel(label string) catalog.Pool {
	lowered := strings.ToLower(label)
	switch {
	case strings.HasPrefix(lowered, "src."):
		return catalog.PoolCollector
	case strings.HasPrefix(lowered, "mon."):
		return catalog.PoolMonitor
	default:
		return catalog.PoolCrew
	}
}

// isModerator marca la credencial como moderadora cuando el caller pide rol
// "admin". El rol viene del request sin verificación adicional: habilita
// features del cliente de media, no es una frontera de seguridad.
func isModerator(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), "admin")
}

func (s *service) Allocate(ctx context.Context, occupantID string, req dto.AllocateRequest) (dto.AllocateResponse, error) {
	log := logger.From(ctx).With(logger.Component(componentSeats), logger.Op("Allocate"))

	if occupantID == "" {
		return dto.AllocateResponse{}, httperrors.ErrUnauthenticated
	}
	roomID := ledger.NormalizeRoomID(req.Room)
	if roomID == "" {
		return dto.AllocateResponse{}, httperrors.ErrInvalidArgument.WithDetail("room is required")
	}
	label := strings.TrimSpace(req.DisplayLabel)
	if label == "" {
		return dto.AllocateResponse{}, httperrors.ErrInvalidArgument.WithDetail("displayLabel is required")
	}
	if s.deps.Issuer == nil {
		return dto.AllocateResponse{}, httperrors.ErrFailedPrecondition
	}

	pool := poolForLabel(label)
	moderator := isModerator(req.Role)

	res, err := s.deps.Allocator.Allocate(ctx, roomID, occupantID, pool, label, time.Now())
	if err != nil {
		if errors.Is(err, allocator.ErrNoCapacity) {
			metrics.RecordAllocation(string(pool), "exhausted")
			log.Info("allocation exhausted", logger.RoomID(roomID), logger.Pool(string(pool)))
			return dto.AllocateResponse{}, httperrors.ErrResourceExhausted
		}
		return dto.AllocateResponse{}, httperrors.ErrInternal.WithCause(err)
	}

	cred, err := s.deps.Issuer.Issue(token.Grant{
		RoomID:       roomID,
		SlotID:       res.SlotID,
		DisplayLabel: label,
		Moderator:    moderator,
	})
	if err != nil {
		if errors.Is(err, token.ErrNotConfigured) {
			return dto.AllocateResponse{}, httperrors.ErrFailedPrecondition
		}
		return dto.AllocateResponse{}, httperrors.ErrInternal.WithCause(err)
	}

	result := "granted"
	if res.Reused {
		result = "reused"
	}
	metrics.RecordAllocation(string(pool), result)
	log.Info("seat allocated",
		logger.RoomID(roomID),
		logger.SlotID(res.SlotID),
		logger.OccupantID(occupantID),
		logger.Pool(string(res.Pool)),
		logger.Bool("reused", res.Reused),
	)

	return dto.AllocateResponse{
		Room:       roomID,
		SlotID:     res.SlotID,
		Pool:       string(res.Pool),
		Credential: cred,
		Counts:     toCounts(res.Counts),
		TTLSeconds: int(s.deps.Allocator.TTL().Seconds()),
	}, nil
}

func (s *service) Heartbeat(ctx context.Context, occupantID string, req dto.HeartbeatRequest) (dto.HeartbeatResponse, error) {
	if occupantID == "" {
		return dto.HeartbeatResponse{}, httperrors.ErrUnauthenticated
	}
	roomID := ledger.NormalizeRoomID(req.Room)
	if roomID == "" {
		return dto.HeartbeatResponse{}, httperrors.ErrInvalidArgument.WithDetail("room is required")
	}

	if err := s.deps.Allocator.Heartbeat(ctx, roomID, occupantID, time.Now()); err != nil {
		return dto.HeartbeatResponse{}, httperrors.ErrInternal.WithCause(err)
	}
	return dto.HeartbeatResponse{OK: true}, nil
}

func (s *service) Revoke(ctx context.Context, req dto.RevokeRequest) (dto.RevokeResponse, error) {
	log := logger.From(ctx).With(logger.Component(componentSeats), logger.Op("Revoke"))

	roomID := ledger.NormalizeRoomID(req.Room)
	if roomID == "" {
		return dto.RevokeResponse{}, httperrors.ErrInvalidArgument.WithDetail("room is required")
	}
	slotID := strings.TrimSpace(req.SlotID)
	if slotID == "" {
		return dto.RevokeResponse{}, httperrors.ErrInvalidArgument.WithDetail("slotId is required")
	}
	if _, ok := s.deps.Catalog.PoolOf(slotID); !ok {
		return dto.RevokeResponse{}, httperrors.ErrInvalidArgument.WithDetail("unknown slotId")
	}

	if err := s.deps.Allocator.Revoke(ctx, roomID, slotID); err != nil {
		return dto.RevokeResponse{}, httperrors.ErrInternal.WithCause(err)
	}
	metrics.RecordRevocation()
	log.Info("seat revoked", logger.RoomID(roomID), logger.SlotID(slotID))
	return dto.RevokeResponse{OK: true}, nil
}

func (s *service) RoomSeats(ctx context.Context, roomID string) (dto.RoomSeatsResponse, error) {
	normalized := ledger.NormalizeRoomID(roomID)
	if normalized == "" {
		return dto.RoomSeatsResponse{}, httperrors.ErrInvalidArgument.WithDetail("room is required")
	}

	st, err := s.deps.Store.Load(ctx, normalized)
	if err != nil {
		return dto.RoomSeatsResponse{}, httperrors.ErrInternal.WithCause(err)
	}
	live := ledger.Compact(st, time.Now(), s.deps.Allocator.TTL())

	resp := dto.RoomSeatsResponse{Room: normalized, Seats: make([]dto.SeatView, 0, len(live.Assignments))}
	for _, a := range live.Assignments {
		resp.Seats = append(resp.Seats, dto.SeatView{
			SlotID:        a.SlotID,
			Pool:          string(a.Pool),
			OccupantID:    a.OccupantID,
			DisplayLabel:  a.DisplayLabel,
			LastContactAt: a.LastContactAt,
		})
	}
	sort.Slice(resp.Seats, func(i, j int) bool { return resp.Seats[i].SlotID < resp.Seats[j].SlotID })

	resp.Counts = toCounts(ledger.CountsByPool(live))
	return resp, nil
}

func toCounts(c ledger.Counts) dto.PoolCounts {
	return dto.PoolCounts{
		Total:     c.Total,
		Collector: c.Collector,
		Monitor:   c.Monitor,
		Crew:      c.Crew,
	}
}
