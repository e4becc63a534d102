// Package metrics registra los instrumentos Prometheus del dominio de seats.
// Los helpers Record* toleran registro no inicializado (nil-safe) para que
// los paquetes de core puedan usarse en tests sin tocar el registry global.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once    sync.Once
	initErr error

	allocationsTotal *prometheus.CounterVec
	revocationsTotal prometheus.Counter
	sweepRunsTotal   *prometheus.CounterVec
	sweepExpired     prometheus.Counter
	sweepDuration    prometheus.Histogram
)

// Register inicializa y registra los instrumentos de dominio. Idempotente.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		allocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatd_allocations_total",
			Help: "Asignaciones de seat por pool pedido y resultado",
		}, []string{"pool", "result"}) // result: granted|reused|exhausted

		revocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seatd_revocations_total",
			Help: "Revocaciones administrativas de seats",
		})

		sweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatd_sweep_runs_total",
			Help: "Pasadas del sweeper por resultado",
		}, []string{"result"}) // result: ok|error

		sweepExpired = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seatd_sweep_expired_total",
			Help: "Asignaciones expiradas y recolectadas por el sweeper",
		})

		sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seatd_sweep_duration_seconds",
			Help:    "Duración de una pasada completa del sweeper",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0},
		})

		for _, c := range []prometheus.Collector{
			allocationsTotal, revocationsTotal, sweepRunsTotal, sweepExpired, sweepDuration,
		} {
			if err := register(reg, c); err != nil {
				initErr = err
				return
			}
		}
	})
	return initErr
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// RecordAllocation registra el resultado de un Allocate.
func RecordAllocation(pool, result string) {
	if allocationsTotal != nil {
		allocationsTotal.WithLabelValues(pool, result).Inc()
	}
}

// RecordRevocation registra una revocación administrativa.
func RecordRevocation() {
	if revocationsTotal != nil {
		revocationsTotal.Inc()
	}
}

// RecordSweep registra una pasada del sweeper.
func RecordSweep(result string, expired int, dur time.Duration) {
	if sweepRunsTotal != nil {
		sweepRunsTotal.WithLabelValues(result).Inc()
	}
	if sweepExpired != nil && expired > 0 {
		sweepExpired.Add(float64(expired))
	}
	if sweepDuration != nil {
		sweepDuration.Observe(dur.Seconds())
	}
}
