package domain

import "errors"

var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrAlreadyRunning      = errors.New("service already running")
	ErrNotStarted          = errors.New("service not started")
	ErrDeviceNotRegistered = errors.New("device not registered")
	ErrUnknownEnergyType   = errors.New("unknown energy type")
)
