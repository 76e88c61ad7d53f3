package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envSample struct {
	Name    string        `env:"SAMPLE_NAME"`
	Count   int           `env:"SAMPLE_COUNT"`
	Enabled bool          `env:"SAMPLE_ENABLED"`
	Ratio   float64       `env:"SAMPLE_RATIO"`
	Wait    time.Duration `env:"SAMPLE_WAIT"`
	Skipped string        `env:"-"`
	Tags    []string      `env:"SAMPLE_TAGS"`
	Nested  struct {
		Value string `env:"SAMPLE_NESTED"`
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SAMPLE_NAME", " school ")
	t.Setenv("SAMPLE_COUNT", "12")
	t.Setenv("SAMPLE_ENABLED", "true")
	t.Setenv("SAMPLE_RATIO", "0.5")
	t.Setenv("SAMPLE_WAIT", "90s")
	t.Setenv("SAMPLE_NESTED", "inner")
	t.Setenv("SAMPLE_TAGS", "a, b,,c")

	var s envSample
	s.Skipped = "keep"
	require.NoError(t, applyEnvOverrides(&s))

	assert.Equal(t, "school", s.Name)
	assert.Equal(t, 12, s.Count)
	assert.True(t, s.Enabled)
	assert.Equal(t, 0.5, s.Ratio)
	assert.Equal(t, 90*time.Second, s.Wait)
	assert.Equal(t, "inner", s.Nested.Value)
	assert.Equal(t, "keep", s.Skipped)
	assert.Equal(t, []string{"a", "b", "c"}, s.Tags)
}

func TestApplyEnvOverrides_BadValue(t *testing.T) {
	t.Setenv("SAMPLE_COUNT", "twelve")

	var s envSample
	err := applyEnvOverrides(&s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAMPLE_COUNT")
}
