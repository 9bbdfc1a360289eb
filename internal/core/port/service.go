package port

import "context"

// ExecutableService is a long-lived component with a start/stop lifecycle.
type ExecutableService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Started() bool
}

// Callback receives each delivered value.
type Callback[P any] func(ctx context.Context, payload P) error

// PowerPublisher delivers canonical power readings to the mqtt surface.
type PowerPublisher interface {
	ExecutableService
	PublishGridPower(ctx context.Context, power float64) error
	PublishSunPower(ctx context.Context, power float64) error
}

// HealthReporter is implemented by services able to report liveness beyond
// their started flag.
type HealthReporter interface {
	Healthy(ctx context.Context) bool
}
