package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty timezone", func(c *Config) { c.Timezone = " " }},
		{"weekday out of range", func(c *Config) { c.Weekday = 7 }},
		{"inverted latitude", func(c *Config) { c.Box.LatMin, c.Box.LatMax = c.Box.LatMax, c.Box.LatMin }},
		{"inverted longitude", func(c *Config) { c.Box.LonMin, c.Box.LonMax = c.Box.LonMax, c.Box.LonMin }},
		{"sub-second bucket", func(c *Config) { c.BucketWidth = 500 * time.Millisecond }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"no patterns", func(c *Config) { c.Patterns = nil }},
		{"no output", func(c *Config) { c.OutputPath = "" }},
		{"empty column", func(c *Config) { c.Columns.SOG = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_UnknownTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	require.NoError(t, cfg.Validate())

	_, err := cfg.Location()
	assert.Error(t, err)

	_, err = NewVesselTracker(cfg)
	assert.Error(t, err)
}

func TestBoundingBox_Contains(t *testing.T) {
	box := DefaultConfig().Box

	assert.True(t, box.Contains(48.73, -122.5))
	assert.True(t, box.Contains(48.68, -122.62))
	assert.True(t, box.Contains(48.78, -122.45))
	assert.False(t, box.Contains(48.79, -122.5))
	assert.False(t, box.Contains(48.73, -122.63))
	// Swapped arguments land far outside.
	assert.False(t, box.Contains(-122.5, 48.73))
}
