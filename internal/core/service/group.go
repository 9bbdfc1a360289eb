package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/berfenger/v2ca/internal/core/port"

	"go.uber.org/zap"
)

// Group starts its members in order and stops them in reverse order.
// If a member fails to start, the members already started are stopped again.
type Group struct {
	*GuardedService
	members []port.ExecutableService
}

func NewGroup(name string, logger *zap.Logger, members ...port.ExecutableService) *Group {
	g := &Group{members: members}
	g.GuardedService = Guard(name, g, logger)
	return g
}

func (g *Group) DoStart(ctx context.Context) error {
	for i, m := range g.members {
		if err := m.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if stopErr := g.members[j].Stop(ctx); stopErr != nil {
					g.Logger().Error("group@start rollback failed", zap.Error(stopErr))
				}
			}
			return fmt.Errorf("start member %d: %w", i, err)
		}
	}
	return nil
}

// DoStop stops every member even when some fail and returns the joined errors.
func (g *Group) DoStop(ctx context.Context) error {
	var errs []error
	for i := len(g.members) - 1; i >= 0; i-- {
		if err := g.members[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop member %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Healthy reports whether the group is started and every member able to
// report its health is healthy.
func (g *Group) Healthy(ctx context.Context) bool {
	if !g.Started() {
		return false
	}
	for _, m := range g.members {
		if !m.Started() {
			return false
		}
		if hr, ok := m.(port.HealthReporter); ok && !hr.Healthy(ctx) {
			return false
		}
	}
	return true
}
