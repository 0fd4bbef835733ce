package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "ShopScore/pkg/logger"

	"go.uber.org/multierr"
)

// Component is a long-running part of the application.
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

// Option configures App.
type Option func(*App)

type namedComponent struct {
	name string
	c    Component
}

type namedCloser struct {
	name  string
	close func() error
}

type ticker struct {
	name     string
	interval time.Duration
	fn       func()
}

// App encapsulates the entire application lifecycle.
type App struct {
	logger          *applogger.Logger
	components      []namedComponent
	closers         []namedCloser
	tickers         []ticker
	shutdownTimeout time.Duration
	signals         []os.Signal
}

// WithComponent adds a component. Components start in registration order
// and stop in reverse.
func WithComponent(name string, c Component) Option {
	return func(a *App) {
		if c != nil {
			a.components = append(a.components, namedComponent{name, c})
		}
	}
}

// WithCloser adds a resource closed after every component has stopped.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, namedCloser{name, fn})
		}
	}
}

// WithTicker runs fn every interval while the app is running.
func WithTicker(name string, interval time.Duration, fn func()) Option {
	return func(a *App) {
		if interval > 0 && fn != nil {
			a.tickers = append(a.tickers, ticker{name, interval, fn})
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// New creates a new App instance.
func New(log *applogger.Logger, opts ...Option) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{
		logger:          log,
		shutdownTimeout: 15 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until ctx is done or a shutdown
// signal arrives, then stops everything.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	started := 0
	for _, nc := range a.components {
		if err := nc.c.Start(); err != nil {
			a.logger.Error("component start failed", applogger.String("component", nc.name), applogger.Error(err))
			startErr := fmt.Errorf("start %s: %w", nc.name, err)
			return multierr.Append(startErr, a.shutdown(a.components[:started]))
		}
		started++
		a.logger.Info("component started", applogger.String("component", nc.name))
	}

	for _, t := range a.tickers {
		go a.tick(ctx, t)
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown(a.components)
}

func (a *App) tick(ctx context.Context, t ticker) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.fn()
		}
	}
}

// shutdown stops components in reverse order, then closes resources.
func (a *App) shutdown(components []namedComponent) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs error
	for i := len(components) - 1; i >= 0; i-- {
		nc := components[i]
		if err := nc.c.Stop(ctx); err != nil {
			a.logger.Warn("component stop error", applogger.String("component", nc.name), applogger.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("stop %s: %w", nc.name, err))
		}
	}
	for _, c := range a.closers {
		if err := c.close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.logger.Info("shutdown complete")
	return errs
}
