package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hooks are the component specific start and stop actions run by a GuardedService.
type Hooks interface {
	DoStart(ctx context.Context) error
	DoStop(ctx context.Context) error
}

// GuardedService tracks the started flag of a component and makes Start and
// Stop idempotent. A failing hook leaves the flag unchanged.
type GuardedService struct {
	name    string
	hooks   Hooks
	logger  *zap.Logger
	mu      sync.Mutex
	started bool
}

func Guard(name string, hooks Hooks, logger *zap.Logger) *GuardedService {
	return &GuardedService{
		name:   name,
		hooks:  hooks,
		logger: logger.With(zap.String("service", name)),
	}
}

func (g *GuardedService) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		g.logger.Warn("service already started")
		return nil
	}
	g.logger.Info("starting service")
	if err := g.hooks.DoStart(ctx); err != nil {
		return err
	}
	g.started = true
	return nil
}

func (g *GuardedService) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		g.logger.Warn("service already stopped")
		return nil
	}
	g.logger.Info("stopping service")
	if err := g.hooks.DoStop(ctx); err != nil {
		return err
	}
	g.started = false
	return nil
}

func (g *GuardedService) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

func (g *GuardedService) Name() string {
	return g.name
}

func (g *GuardedService) Logger() *zap.Logger {
	return g.logger
}
