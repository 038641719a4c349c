// Package config carries the gameplay tuning tables. Everything here is
// data, not engineering: systems read their knobs at construction and
// never reach back into the file.
package config

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is the root tuning document.
type Config struct {
	Combat      CombatConfig      `json:"combat" yaml:"combat"`
	Progression ProgressionConfig `json:"progression" yaml:"progression"`
	Relations   RelationsConfig   `json:"relations" yaml:"relations"`
	Party       PartyConfig       `json:"party" yaml:"party"`
	Pets        PetsConfig        `json:"pets" yaml:"pets"`
	Movement    MovementConfig    `json:"movement" yaml:"movement"`
	Zones       []ZoneConfig      `json:"zones" yaml:"zones"`
}

// CombatConfig tunes the tug-of-war pacing.
type CombatConfig struct {
	// WindupSeconds is the delay between an accepted request and the bout
	// actually starting.
	WindupSeconds float64 `json:"windup_seconds" yaml:"windup_seconds"`
	// MeterScale divides the power differential per second of pull.
	MeterScale float64 `json:"meter_scale" yaml:"meter_scale"`
	// Jitter is the half-width of the per-tick random meter wobble.
	Jitter float64 `json:"jitter" yaml:"jitter"`
	// StaminaDrainPerSecond is taken from both sides while pulling.
	StaminaDrainPerSecond float64 `json:"stamina_drain_per_second" yaml:"stamina_drain_per_second"`
	// ExhaustedFactor multiplies effective power at zero stamina.
	ExhaustedFactor float64 `json:"exhausted_factor" yaml:"exhausted_factor"`
}

// ProgressionConfig tunes XP and levels.
type ProgressionConfig struct {
	// BaseXP is the XP needed to go from level 1 to 2.
	BaseXP int `json:"base_xp" yaml:"base_xp"`
	// LevelFactor multiplies the threshold per level gained.
	LevelFactor float64 `json:"level_factor" yaml:"level_factor"`
	// XPPerLoserLevel is the combat award per level of the defeated.
	XPPerLoserLevel int `json:"xp_per_loser_level" yaml:"xp_per_loser_level"`
	// TalentPointsPerLevel is granted on each level-up.
	TalentPointsPerLevel int `json:"talent_points_per_level" yaml:"talent_points_per_level"`
}

// RelationsConfig tunes faction standing and aggro.
type RelationsConfig struct {
	// DefeatPenalty is subtracted from the loser faction's standing with
	// the winner faction after a bout.
	DefeatPenalty float64 `json:"defeat_penalty" yaml:"defeat_penalty"`
	// HostileThreshold is the standing at or below which two factions
	// attack on sight.
	HostileThreshold float64 `json:"hostile_threshold" yaml:"hostile_threshold"`
}

// PartyConfig tunes rosters.
type PartyConfig struct {
	MaxSize int `json:"max_size" yaml:"max_size"`
}

// PetsConfig tunes taming and follow AI.
type PetsConfig struct {
	TameSeconds    float64 `json:"tame_seconds" yaml:"tame_seconds"`
	FollowDistance float64 `json:"follow_distance" yaml:"follow_distance"`
}

// MovementConfig tunes the movement system.
type MovementConfig struct {
	Speed float64 `json:"speed" yaml:"speed"`
	// WanderRadius is the max random drift per second for wander-tagged
	// entities.
	WanderRadius float64 `json:"wander_radius" yaml:"wander_radius"`
	// ArriveEpsilon is the distance under which a seek target counts as
	// reached.
	ArriveEpsilon float64 `json:"arrive_epsilon" yaml:"arrive_epsilon"`
}

// ZoneConfig describes one enterable zone.
type ZoneConfig struct {
	Name     string `json:"name" yaml:"name"`
	MinLevel int    `json:"min_level" yaml:"min_level"`
}

// Default returns the shipped tuning.
func Default() *Config {
	return &Config{
		Combat: CombatConfig{
			WindupSeconds:         1.0,
			MeterScale:            20.0,
			Jitter:                0.02,
			StaminaDrainPerSecond: 5.0,
			ExhaustedFactor:       0.25,
		},
		Progression: ProgressionConfig{
			BaseXP:               100,
			LevelFactor:          1.5,
			XPPerLoserLevel:      40,
			TalentPointsPerLevel: 1,
		},
		Relations: RelationsConfig{
			DefeatPenalty:    5.0,
			HostileThreshold: -10.0,
		},
		Party: PartyConfig{MaxSize: 4},
		Pets: PetsConfig{
			TameSeconds:    3.0,
			FollowDistance: 2.0,
		},
		Movement: MovementConfig{
			Speed:         3.0,
			WanderRadius:  0.5,
			ArriveEpsilon: 0.1,
		},
		Zones: []ZoneConfig{
			{Name: "gymnasium", MinLevel: 1},
			{Name: "back-alley", MinLevel: 3},
			{Name: "championship-hall", MinLevel: 10},
		},
	}
}

// LoadYAML decodes a config document from YAML.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadJSON decodes a config document from JSON.
func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects tunings the systems cannot run with.
func (c *Config) Validate() error {
	if c.Combat.MeterScale <= 0 {
		return fmt.Errorf("combat.meter_scale must be positive, got %v", c.Combat.MeterScale)
	}
	if c.Combat.ExhaustedFactor < 0 || c.Combat.ExhaustedFactor > 1 {
		return fmt.Errorf("combat.exhausted_factor must be in [0,1], got %v", c.Combat.ExhaustedFactor)
	}
	if c.Progression.BaseXP <= 0 {
		return fmt.Errorf("progression.base_xp must be positive, got %d", c.Progression.BaseXP)
	}
	if c.Progression.LevelFactor < 1 {
		return fmt.Errorf("progression.level_factor must be >= 1, got %v", c.Progression.LevelFactor)
	}
	if c.Relations.DefeatPenalty < 0 {
		return fmt.Errorf("relations.defeat_penalty must not be negative, got %v", c.Relations.DefeatPenalty)
	}
	if c.Party.MaxSize < 2 {
		return fmt.Errorf("party.max_size must be at least 2, got %d", c.Party.MaxSize)
	}
	if c.Pets.TameSeconds < 0 {
		return fmt.Errorf("pets.tame_seconds must not be negative, got %v", c.Pets.TameSeconds)
	}
	if c.Movement.Speed <= 0 {
		return fmt.Errorf("movement.speed must be positive, got %v", c.Movement.Speed)
	}
	seen := make(map[string]struct{}, len(c.Zones))
	for _, z := range c.Zones {
		if z.Name == "" {
			return fmt.Errorf("zone with empty name")
		}
		if _, dup := seen[z.Name]; dup {
			return fmt.Errorf("duplicate zone %q", z.Name)
		}
		seen[z.Name] = struct{}{}
	}
	return nil
}

// Zone returns the named zone table entry.
func (c *Config) Zone(name string) (ZoneConfig, bool) {
	for _, z := range c.Zones {
		if z.Name == name {
			return z, true
		}
	}
	return ZoneConfig{}, false
}
