package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/seatd/internal/catalog"
	"github.com/dropDatabas3/seatd/internal/ledger"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
)

// MetricsConfig agrupa dependencias para exponer /metrics.
type MetricsConfig struct {
	Registry prometheus.Registerer

	// Store habilita el collector de ocupación por pool (opcional).
	Store   ledger.Store
	Catalog *catalog.Catalog
	TTL     time.Duration
}

// RegisterMetrics inicializa las métricas HTTP y, opcionalmente, registra un
// collector de ocupación de seats. Devuelve el handler para /metrics.
func RegisterMetrics(cfg MetricsConfig) (http.Handler, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		for _, c := range []prometheus.Collector{httpRequestsTotal, httpRequestDuration, httpInflight} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	if cfg.Store != nil {
		collector := newOccupancyCollector(cfg.Store, cfg.Catalog, cfg.TTL)
		if err := registerCollector(registry, collector); err != nil {
			return nil, err
		}
	}

	// El handler sirve el mismo registry donde se registraron los
	// collectors; un *prometheus.Registry propio también es Gatherer.
	if gatherer, ok := registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// WithMetrics instrumenta requests HTTP con métricas Prometheus.
func WithMetrics(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &metricsRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (m *metricsRecorder) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

// normalizePath colapsa segmentos dinámicos para mantener baja la cardinalidad.
func normalizePath(p string) string {
	parts := strings.Split(p, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "rooms" && parts[i+1] != "" {
			parts[i+1] = ":roomID"
		}
	}
	return strings.Join(parts, "/")
}

// registerCollector registra el collector, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// occupancyCollector expone gauges de ocupación viva por pool, calculadas en
// el momento del scrape sobre el estado compactado de cada sala.
type occupancyCollector struct {
	store ledger.Store
	cat   *catalog.Catalog
	ttl   time.Duration

	roomsDesc    *prometheus.Desc
	occupiedDesc *prometheus.Desc
	capacityDesc *prometheus.Desc
}

func newOccupancyCollector(store ledger.Store, cat *catalog.Catalog, ttl time.Duration) *occupancyCollector {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &occupancyCollector{
		store:        store,
		cat:          cat,
		ttl:          ttl,
		roomsDesc:    prometheus.NewDesc("seatd_rooms", "Cantidad de salas conocidas", nil, nil),
		occupiedDesc: prometheus.NewDesc("seatd_seats_occupied", "Seats ocupados (no expirados) por pool", []string{"pool"}, nil),
		capacityDesc: prometheus.NewDesc("seatd_seats_capacity", "Tamaño del pool de slots en el catálogo", []string{"pool"}, nil),
	}
}

func (c *occupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.roomsDesc
	ch <- c.occupiedDesc
	ch <- c.capacityDesc
}

func (c *occupancyCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rooms, err := c.store.Rooms(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.roomsDesc, prometheus.GaugeValue, float64(len(rooms)))

	var totals ledger.Counts
	now := time.Now()
	for _, roomID := range rooms {
		st, err := c.store.Load(ctx, roomID)
		if err != nil {
			continue
		}
		counts := ledger.CountsByPool(ledger.Compact(st, now, c.ttl))
		totals.Collector += counts.Collector
		totals.Monitor += counts.Monitor
		totals.Crew += counts.Crew
	}
	ch <- prometheus.MustNewConstMetric(c.occupiedDesc, prometheus.GaugeValue, float64(totals.Collector), string(catalog.PoolCollector))
	ch <- prometheus.MustNewConstMetric(c.occupiedDesc, prometheus.GaugeValue, float64(totals.Monitor), string(catalog.PoolMonitor))
	ch <- prometheus.MustNewConstMetric(c.occupiedDesc, prometheus.GaugeValue, float64(totals.Crew), string(catalog.PoolCrew))

	if c.cat != nil {
		for _, p := range []catalog.Pool{catalog.PoolCollector, catalog.PoolMonitor, catalog.PoolCrew} {
			ch <- prometheus.MustNewConstMetric(c.capacityDesc, prometheus.GaugeValue, float64(len(c.cat.InPool(p))), string(p))
		}
	}
}
