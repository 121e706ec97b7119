package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeGuard/pkg/config"
	xhttp "TradeGuard/pkg/http"
	pkgkafka "TradeGuard/pkg/kafka"
	applogger "TradeGuard/pkg/logger"
)

// Sweeper drops idle per-client state, such as rate-limit buckets.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handlers   []xhttp.Handler
	consumer   *pkgkafka.Consumer
	intake     pkgkafka.MessageHandler
	publisher  io.Closer
	sweeper    Sweeper
	httpServer *xhttp.Server
}

// Options carries the optional parts of the App. Nil fields are skipped.
type Options struct {
	Consumer  *pkgkafka.Consumer
	Intake    pkgkafka.MessageHandler
	Publisher io.Closer
	Sweeper   Sweeper
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, handlers []xhttp.Handler, opts Options) *App {
	if log == nil {
		log = applogger.NewNop()
	}
	return &App{
		cfg:       cfg,
		log:       log,
		handlers:  handlers,
		consumer:  opts.Consumer,
		intake:    opts.Intake,
		publisher: opts.Publisher,
		sweeper:   opts.Sweeper,
	}
}

// HTTP builds the HTTP server without starting it.
func (a *App) HTTP() *xhttp.Server {
	if a.httpServer == nil {
		a.httpServer = xhttp.NewServer(a.log, a.handlers,
			xhttp.WithHost(a.cfg.Server.Host),
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
			xhttp.WithCORS(len(a.cfg.Server.CORSOrigins) > 0, a.cfg.Server.CORSOrigins...),
			xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		)
	}
	return a.httpServer
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.consumer != nil && a.intake != nil {
		a.consumer.RegisterHandler(a.intake)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka intake started", applogger.String("topic", a.intake.Topic()))
	}

	if err := a.HTTP().Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.sweeper != nil {
		go a.sweep(ctx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweep(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.sweeper.Sweep(10 * time.Minute); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("keys", n))
			}
		}
	}
}

// shutdown stops intake first so no evaluation is published after the
// publisher closes.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.HTTP().Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// The collector ships through the same producer as the publisher.
	a.log.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
