package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvService_Defaults(t *testing.T) {
	e := &EnvService{}
	t.Setenv("EXTRACTOR_NAME", "")
	t.Setenv("EXTRACTOR_HEADLESS", "nope")
	t.Setenv("EXTRACTOR_ATTEMPTS", "x")

	assert.Equal(t, "fallback", e.GetWithDefault("EXTRACTOR_NAME", "fallback"))
	assert.True(t, e.GetBool("EXTRACTOR_HEADLESS", true))
	assert.Equal(t, 3, e.GetInt("EXTRACTOR_ATTEMPTS", 3))
}

func TestEnvService_Values(t *testing.T) {
	e := &EnvService{}
	t.Setenv("EXTRACTOR_NAME", "clinic-a")
	t.Setenv("EXTRACTOR_HEADLESS", "false")
	t.Setenv("EXTRACTOR_ATTEMPTS", "5")

	assert.Equal(t, "clinic-a", e.GetWithDefault("EXTRACTOR_NAME", "fallback"))
	assert.False(t, e.GetBool("EXTRACTOR_HEADLESS", true))
	assert.Equal(t, 5, e.GetInt("EXTRACTOR_ATTEMPTS", 3))
}

func TestEnvService_GetDuration(t *testing.T) {
	e := &EnvService{}
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset", "", 2 * time.Second},
		{"duration string", "750ms", 750 * time.Millisecond},
		{"bare milliseconds", "1500", 1500 * time.Millisecond},
		{"garbage", "soon", 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EXTRACTOR_SETTLE", tt.value)
			assert.Equal(t, tt.want, e.GetDuration("EXTRACTOR_SETTLE", 2*time.Second))
		})
	}
}
