package shellyproem

import (
	"context"

	"github.com/berfenger/v2ca/internal/core/domain"
)

// EnergyInformationAdapter maps act_power to the canonical power reading.
// A status without act_power adapts to an absent reading.
type EnergyInformationAdapter struct{}

func (EnergyInformationAdapter) Adapt(_ context.Context, status *domain.RawDeviceStatus) (*domain.EnergyInformation, error) {
	if status == nil || status.ActPower == nil {
		return nil, nil
	}
	return &domain.EnergyInformation{Power: *status.ActPower}, nil
}
