package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterThenGet(t *testing.T) {

	assert := assert.New(t)

	r := New[int]()
	r.Register("shelly-pro-em", 1)

	v, ok := r.Get("shelly-pro-em")
	assert.True(ok)
	assert.Equal(1, v)
}

func TestUnknownKeyIsAbsent(t *testing.T) {

	assert := assert.New(t)

	r := New[*string]()

	v, ok := r.Get("missing")
	assert.False(ok)
	assert.Nil(v)
}

func TestLastWriteWins(t *testing.T) {

	assert := assert.New(t)

	r := New[string]()
	r.Register("device", "first")
	r.Register("device", "second")

	v, ok := r.Get("device")
	assert.True(ok)
	assert.Equal("second", v, "re-registration overwrites")
}
