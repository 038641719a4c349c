package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	doc := `
combat:
  windup_seconds: 0.5
  meter_scale: 10
  jitter: 0
  stamina_drain_per_second: 2
  exhausted_factor: 0.5
party:
  max_size: 6
zones:
  - name: basement
    min_level: 1
`
	c, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Combat.WindupSeconds)
	assert.Equal(t, 6, c.Party.MaxSize)
	// untouched sections keep defaults
	assert.Equal(t, Default().Pets.TameSeconds, c.Pets.TameSeconds)

	z, ok := c.Zone("basement")
	require.True(t, ok)
	assert.Equal(t, 1, z.MinLevel)
	_, ok = c.Zone("gymnasium")
	assert.False(t, ok, "zone list is replaced, not merged")
}

func TestLoadJSON(t *testing.T) {
	doc := `{"progression": {"base_xp": 50, "level_factor": 2, "xp_per_loser_level": 10, "talent_points_per_level": 2}}`
	c, err := LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 50, c.Progression.BaseXP)
	assert.Equal(t, 2, c.Progression.TalentPointsPerLevel)
}

func TestValidateRejectsBadTuning(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero meter scale", func(c *Config) { c.Combat.MeterScale = 0 }},
		{"exhausted factor out of range", func(c *Config) { c.Combat.ExhaustedFactor = 2 }},
		{"zero base xp", func(c *Config) { c.Progression.BaseXP = 0 }},
		{"level factor below one", func(c *Config) { c.Progression.LevelFactor = 0.5 }},
		{"party of one", func(c *Config) { c.Party.MaxSize = 1 }},
		{"negative tame time", func(c *Config) { c.Pets.TameSeconds = -1 }},
		{"zero speed", func(c *Config) { c.Movement.Speed = 0 }},
		{"duplicate zone", func(c *Config) { c.Zones = append(c.Zones, c.Zones[0]) }},
		{"unnamed zone", func(c *Config) { c.Zones = append(c.Zones, ZoneConfig{}) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadYAMLRejectsGarbage(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("combat: ["))
	assert.Error(t, err)
}
