package device

import (
	"testing"

	"github.com/berfenger/v2ca/internal/device/shellyproem"
	"github.com/berfenger/v2ca/internal/device/sunspec"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRegisterAll(t *testing.T) {

	assert := assert.New(t)

	RegisterAll(zap.NewNop())

	for _, name := range []string{shellyproem.DEVICE_NAME, sunspec.DEVICE_NAME} {
		_, ok := Providers.Get(name)
		assert.True(ok, name)
		_, ok = Adapters.Get(name)
		assert.True(ok, name)
	}

	_, ok := Providers.Get("unknown")
	assert.False(ok)
}
