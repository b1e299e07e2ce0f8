// Package bootstrap assembles a runnable HTTP server around the pipeline.
//
// It builds the logger, the Prometheus registry, the middleware chain and the
// router from a Config, and owns the server lifecycle: start, hot reload,
// graceful shutdown. The pipeline itself stays transport-agnostic; everything
// net/http specific lives here and in adapters/stdhttp.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vixgo/conduit/adapters/prom"
	"github.com/vixgo/conduit/adapters/stdhttp"
	"github.com/vixgo/conduit/config"
	"github.com/vixgo/conduit/middleware"
	"github.com/vixgo/conduit/observability"
	"github.com/vixgo/conduit/pipeline"
	"github.com/vixgo/conduit/ports"
)

// App wires configuration, logging, metrics and the pipeline into one server.
type App struct {
	Logger     zerolog.Logger
	Holder     *config.Holder
	Registry   *prometheus.Registry
	HTTPServer *http.Server

	cfg   atomic.Pointer[config.Config]
	chain atomic.Pointer[pipeline.Pipeline]
	final pipeline.Final
	sink  ports.MetricsSink

	// limiter survives pipeline rebuilds so a config reload does not
	// hand every client a fresh bucket.
	limiter *middleware.LimiterState
}

// New creates an application from a fixed configuration.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		final:   defaultFinal,
		limiter: middleware.NewLimiterState(),
	}
	if err := a.init(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWithHotReload creates an application that reloads configuration on
// file change and SIGHUP. The middleware chain is rebuilt atomically; the
// listener address is not reloadable.
func NewWithHotReload(path string) (*App, error) {
	a := &App{
		final:   defaultFinal,
		limiter: middleware.NewLimiterState(),
	}

	bootCfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	holder, err := config.NewHolder(path, buildLogger(bootCfg))
	if err != nil {
		return nil, err
	}
	a.Holder = holder

	if err := a.init(holder.Get()); err != nil {
		holder.Stop()
		return nil, err
	}

	holder.OnChange(func(cfg *config.Config) {
		a.cfg.Store(cfg)
		a.chain.Store(a.buildPipeline(cfg))
		a.Logger.Info().Msg("pipeline rebuilt from new configuration")
	})

	if err := holder.WatchFile(); err != nil {
		holder.Stop()
		return nil, fmt.Errorf("watch config: %w", err)
	}
	holder.WatchSignals()

	return a, nil
}

// SetFinal replaces the terminal handler run after the middleware chain.
// Must be called before Run.
func (a *App) SetFinal(final pipeline.Final) {
	if final != nil {
		a.final = final
	}
}

// Pipeline returns the currently active middleware chain.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.chain.Load()
}

func (a *App) init(cfg *config.Config) error {
	a.cfg.Store(cfg)
	a.Logger = buildLogger(cfg)

	a.Registry = prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		sink, err := prom.New("conduit", a.Registry)
		if err != nil {
			return fmt.Errorf("build metrics sink: %w", err)
		}
		a.sink = sink
	}

	a.chain.Store(a.buildPipeline(cfg))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      a.buildRouter(cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
	return nil
}

// buildLogger creates a zerolog logger from the logging config.
func buildLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stderr)
	if cfg.Logging.Format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return out.Level(level).With().Timestamp().Logger()
}

// buildPipeline assembles the middleware chain and hooks for cfg.
func (a *App) buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	p := pipeline.New()

	logger := a.Logger
	pipeline.Provide(p.Services(), &logger)
	pipeline.Provide(p.Services(), a.limiter)

	if cfg.Observability.DevOnly {
		// Tracing, metrics and debug trace together, dev environments only.
		observability.EnableDev(p, observability.DevSinks{
			Metrics: a.sink,
			Debug:   logSink{logger},
		}, true)
	} else {
		var hooks pipeline.Hooks
		if cfg.Observability.Tracing {
			hooks = pipeline.MergeHooks(hooks, observability.TracingHooks(observability.TracingOptions{}))
		}
		if a.sink != nil {
			hooks = pipeline.MergeHooks(hooks, observability.MetricsHooks(a.sink, observability.DefaultMetricsOptions()))
		}
		if cfg.Observability.DebugTrace {
			hooks = pipeline.MergeHooks(hooks, observability.DebugTraceHooks(logSink{logger}, observability.DebugTraceOptions{}))
		}
		p.SetHooks(hooks)
	}

	p.Use(middleware.Recovery(middleware.RecoveryOptions{}))
	p.Use(middleware.NewRequestIDMiddleware(middleware.RequestIDOptions{
		HeaderName:     cfg.RequestID.Header,
		RejectIncoming: cfg.RequestID.RejectIncoming,
	}))
	p.Use(middleware.NewTimingMiddleware(middleware.TimingOptions{}))
	p.Use(middleware.Logger(middleware.LoggerOptions{}))
	p.Use(pipeline.UseIf(cfg.RateLimit.Enabled, middleware.RateLimit(middleware.RateLimitOptions{
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
		KeyHeader:    cfg.RateLimit.KeyHeader,
		State:        a.limiter,
	})))

	return p
}

// buildRouter mounts health, metrics and the pipeline on a chi router.
func (a *App) buildRouter(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	}

	// Everything else goes through the middleware chain. The chain pointer
	// is re-read per request so hot reload swaps take effect immediately.
	r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		stdhttp.Handler(a.chain.Load(), a.final)(w, req)
	}))

	return r
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	cfg := a.cfg.Load()

	timeout := 10 * time.Second
	if cfg != nil && cfg.Server.ShutdownTimeout > 0 {
		timeout = cfg.Server.ShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			return err
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// defaultFinal answers requests that no middleware short-circuited.
func defaultFinal(req ports.Request, res ports.Response) {
	res.SetStatus(http.StatusOK)
	res.SetHeader("Content-Type", "application/json")
	fmt.Fprintf(res, `{"method":%q,"path":%q}`, req.Method(), req.Path())
}

// logSink routes debug trace lines into the structured logger.
type logSink struct {
	logger zerolog.Logger
}

func (s logSink) Log(line string) {
	s.logger.Debug().Msg(line)
}

var _ ports.TraceSink = logSink{}
