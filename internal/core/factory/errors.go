package factory

import (
	"fmt"

	"github.com/berfenger/v2ca/internal/core/domain"
)

func notRegistered(kind, device string) error {
	return fmt.Errorf("%w: no %s registered for device %q", domain.ErrDeviceNotRegistered, kind, device)
}

func unsupported(what string, v any) error {
	return fmt.Errorf("unsupported %s %T", what, v)
}
