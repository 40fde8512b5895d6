package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIDPrefersEnv(t *testing.T) {
	t.Setenv(envInstanceID, "till-7")
	assert.Equal(t, "till-7", resolveID())
}

func TestResolveIDFallsBack(t *testing.T) {
	t.Setenv(envInstanceID, "")
	assert.NotEmpty(t, resolveID())
}

func TestGetIDIsStable(t *testing.T) {
	first := GetID()
	t.Setenv(envInstanceID, "changed-later")
	assert.Equal(t, first, GetID())
}
