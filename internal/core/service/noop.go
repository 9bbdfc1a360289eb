package service

import (
	"context"

	"go.uber.org/zap"
)

// NoOpService satisfies the lifecycle without doing any work.
type NoOpService struct {
	*GuardedService
}

func NewNoOpService(name string, logger *zap.Logger) *NoOpService {
	s := &NoOpService{}
	s.GuardedService = Guard(name, s, logger)
	return s
}

func (s *NoOpService) DoStart(context.Context) error {
	return nil
}

func (s *NoOpService) DoStop(context.Context) error {
	return nil
}
