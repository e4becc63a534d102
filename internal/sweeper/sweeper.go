// Package sweeper ejecuta la expiración periódica de leases en todas las
// salas. Es el único componente autorizado a descartar asignaciones sin
// señal explícita por ocupante: codifica el modelo de falla para
// desconexiones abruptas (crash del browser, pérdida de red), donde nunca
// llega un release y el TTL es el único camino de recuperación.
package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/seatd/internal/ledger"
	"github.com/dropDatabas3/seatd/internal/metrics"
	"github.com/dropDatabas3/seatd/internal/observability/logger"
)

// Config parametriza el Sweeper.
type Config struct {
	// TTL es el lease TTL (debe coincidir con el del Allocator).
	TTL time.Duration

	// Interval es el período entre pasadas. Default: 60s.
	Interval time.Duration

	// Parallelism acota cuántas salas se compactan a la vez. Default: 4.
	Parallelism int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 60 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	return c
}

// Sweeper compacta todas las salas conocidas en un período fijo.
type Sweeper struct {
	store ledger.Store
	cfg   Config
}

// New crea un Sweeper.
func New(store ledger.Store, cfg Config) *Sweeper {
	return &Sweeper{store: store, cfg: cfg.withDefaults()}
}

// Run corre el loop hasta que el contexto se cancele.
func (s *Sweeper) Run(ctx context.Context) {
	log := logger.Named("sweeper")
	log.Info("sweeper started", logger.Duration(s.cfg.Interval))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce compacta cada sala una vez y retorna cuántas asignaciones
// expiradas se recolectaron. El fallo de una sala se loguea y no aborta el
// resto: no hay caller al que propagarle errores.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	log := logger.Named("sweeper")
	start := time.Now()

	rooms, err := s.store.Rooms(ctx)
	if err != nil {
		log.Error("list rooms failed", logger.Err(err))
		metrics.RecordSweep("error", 0, time.Since(start))
		return 0
	}

	var expired atomic.Int64
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, roomID := range rooms {
		roomID := roomID
		g.Go(func() error {
			n, err := s.sweepRoom(gctx, roomID)
			if err != nil {
				failed.Add(1)
				log.Warn("room sweep failed", logger.RoomID(roomID), logger.Err(err))
				return nil // aislar: una sala no aborta las demás
			}
			expired.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()

	result := "ok"
	if failed.Load() > 0 {
		result = "error"
	}
	n := int(expired.Load())
	metrics.RecordSweep(result, n, time.Since(start))
	if n > 0 {
		log.Info("sweep pass completed",
			logger.Count(n),
			logger.Int("rooms", len(rooms)),
			logger.DurationMs(time.Since(start).Milliseconds()),
		)
	}
	return n
}

// errNothingExpired aborta la transacción de compactación sin escribir:
// una sala sin leases vencidos no gana nada con un commit por minuto.
var errNothingExpired = errors.New("sweeper: nothing expired")

func (s *Sweeper) sweepRoom(ctx context.Context, roomID string) (int, error) {
	removed := 0
	_, err := s.store.Transact(ctx, roomID, func(st *ledger.RoomState) (*ledger.RoomState, error) {
		cleaned := ledger.Compact(st, time.Now(), s.cfg.TTL)
		removed = len(st.Assignments) - len(cleaned.Assignments)
		if removed == 0 {
			return nil, errNothingExpired
		}
		return cleaned, nil
	})
	if errors.Is(err, errNothingExpired) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return removed, nil
}
