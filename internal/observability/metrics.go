package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/studyladder/internal/platform/envutil"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

const namespace = "studyladder"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	advanceTotal   *prometheus.CounterVec
	itemsArchived  prometheus.Counter
	itemsGenerated prometheus.Counter

	regressTotal    *prometheus.CounterVec
	itemsUnarchived prometheus.Counter
	itemsReduced    prometheus.Counter

	generationTotal   *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	pgStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// Init builds the process-wide metrics on a private registry with the Go
// runtime and process collectors attached. Returns nil when METRICS_ENABLED
// is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		instance = MustNewMetrics(reg)
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// MustNewMetrics registers every collector on reg. A collector that is
// already registered is reused so repeated construction against one registry
// is safe.
func MustNewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	latencyBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		registry: reg,
		apiRequests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"})),
		apiLatency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route", "status"})),
		apiInflight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "inflight_requests",
			Help:      "In-flight API requests.",
		})),
		advanceTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "advance_total",
			Help:      "Session completions by outcome.",
		}, []string{"outcome"})),
		itemsArchived: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "items_archived_total",
			Help:      "Items archived after mastery.",
		})),
		itemsGenerated: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "items_generated_total",
			Help:      "Harder items created to replace archived ones.",
		})),
		regressTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "regress_total",
			Help:      "Struggling-session handling by outcome.",
		}, []string{"outcome"})),
		itemsUnarchived: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "items_unarchived_total",
			Help:      "Archived items restored for reinforcement.",
		})),
		itemsReduced: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progression",
			Name:      "items_mastery_reduced_total",
			Help:      "Failed items whose mastery was reduced.",
		})),
		generationTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Content generation calls by status.",
		}, []string{"status"})),
		generationLatency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Content generation latency by status.",
			Buckets:   latencyBuckets,
		}, []string{"status"})),
		llmRequests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "LLM API calls by model/endpoint/status.",
		}, []string{"model", "endpoint", "status"})),
		llmLatency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM API latency by model/endpoint.",
			Buckets:   latencyBuckets,
		}, []string{"model", "endpoint"})),
		llmTokens: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "LLM tokens by model and direction.",
		}, []string{"model", "direction"})),
		pgStats: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "postgres",
			Name:      "pool",
			Help:      "database/sql pool statistics.",
		}, []string{"stat"})),
		redisUp: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "up",
			Help:      "1 when the last redis ping succeeded.",
		})),
		redisPing: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "ping_seconds",
			Help:      "Latency of the last successful redis ping.",
		})),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAdvance(outcome string, archived, generated int) {
	if m == nil {
		return
	}
	m.advanceTotal.WithLabelValues(outcome).Inc()
	if archived > 0 {
		m.itemsArchived.Add(float64(archived))
	}
	if generated > 0 {
		m.itemsGenerated.Add(float64(generated))
	}
}

func (m *Metrics) ObserveRegress(outcome string, unarchived, reduced int) {
	if m == nil {
		return
	}
	m.regressTotal.WithLabelValues(outcome).Inc()
	if unarchived > 0 {
		m.itemsUnarchived.Add(float64(unarchived))
	}
	if reduced > 0 {
		m.itemsReduced.Add(float64(reduced))
	}
}

func (m *Metrics) ObserveGeneration(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generationTotal.WithLabelValues(status).Inc()
	m.generationLatency.WithLabelValues(status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	m.llmLatency.WithLabelValues(model, endpoint).Observe(dur.Seconds())
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.collectPostgres(log, db)
			}
		}
	}()
}

func (m *Metrics) collectPostgres(log *logger.Logger, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: postgres stats unavailable", "error", err)
		}
		return
	}
	stats := sqlDB.Stats()
	m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
	m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
	m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
	m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
	m.pgStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
}

// StartRedisCollector pings the shared client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *goredis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				err := rdb.Ping(pingCtx).Err()
				cancel()
				if err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
