package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

// BuildFunc constructs a complete replacement registry.
type BuildFunc func(ctx context.Context) (*loot.Registry, error)

// Reloader swaps freshly built template registries into a Handle on SIGHUP
// or Trigger. Reloads run one at a time on the reloader's goroutine; sessions
// already resolving keep the registry they loaded.
type Reloader struct {
	handle   *loot.Handle
	build    BuildFunc
	onReload func(*loot.Registry)
	logger   *zap.Logger

	trigger  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewReloader creates a Reloader. onReload, when non-nil, runs after every
// successful swap.
//
// Precondition: handle, build and logger must be non-nil.
func NewReloader(handle *loot.Handle, build BuildFunc, onReload func(*loot.Registry), logger *zap.Logger) *Reloader {
	return &Reloader{
		handle:   handle,
		build:    build,
		onReload: onReload,
		logger:   logger.Named("reload"),
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Trigger requests a reload. Requests made while one is pending coalesce.
func (r *Reloader) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Start serves reload requests until ctx is done or Stop is called.
func (r *Reloader) Start(ctx context.Context) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case <-hup:
			r.Reload(ctx)
		case <-r.trigger:
			r.Reload(ctx)
		}
	}
}

// Stop ends Start.
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// Reload builds a registry and swaps it in. A failed build keeps the
// current registry.
//
// Postcondition: Returns true if a new registry is live.
func (r *Reloader) Reload(ctx context.Context) bool {
	start := time.Now()
	next, err := r.build(ctx)
	if err != nil {
		r.logger.Error("template reload failed, keeping current registry", zap.Error(err))
		return false
	}
	r.handle.Swap(next)
	r.logger.Info("templates reloaded", zap.Duration("elapsed", time.Since(start)))
	if r.onReload != nil {
		r.onReload(next)
	}
	return true
}
