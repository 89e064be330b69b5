// Package server runs the long-lived parts of the loot tooling: services
// started together, stopped in reverse order on SIGINT or SIGTERM.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component.
type Service interface {
	// Start blocks until ctx is done, Stop is called, or the service fails.
	Start(ctx context.Context) error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func(ctx context.Context) error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start(ctx context.Context) error { return f.StartFn(ctx) }

// Stop calls StopFn when set.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

type namedService struct {
	name    string
	service Service
}

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	mu       sync.Mutex
	logger   *zap.Logger
	services []namedService
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger.Named("lifecycle")}
}

// Add registers svc under name.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until SIGINT, SIGTERM, ctx
// cancellation or the first service failure.
//
// Postcondition: every service has been stopped; returns the first service
// error, or nil on a clean shutdown.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	var wg sync.WaitGroup
	for _, ns := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(ctx); err != nil {
				l.logger.Error("service failed", zap.String("service", ns.name), zap.Error(err))
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("all services started", zap.Int("count", len(services)), zap.Duration("startup", time.Since(start)))

	var runErr error
	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	case runErr = <-errCh:
	}

	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		t0 := time.Now()
		ns.service.Stop()
		l.logger.Info("service stopped", zap.String("service", ns.name), zap.Duration("elapsed", time.Since(t0)))
	}
	wg.Wait()

	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return runErr
}
