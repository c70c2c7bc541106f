// Package config loads the environment-driven tunables of spec section 6
// into the typed structures the rest of the server consumes, mirroring the
// os.Getenv+strconv pattern the app layer uses for its own overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"arena-server/internal/match"
	"arena-server/internal/matchmaker"
	"arena-server/internal/observability"
	"arena-server/internal/spectator"
)

// Config is the fully resolved, validated server configuration.
type Config struct {
	Addr string

	Match         match.Config
	Matchmaker    matchmaker.Config
	Spectator     SpectatorConfig
	Observability observability.Config

	FullStateInterval time.Duration
}

// SpectatorConfig tunes the per-match spectator room and replay ring.
type SpectatorConfig struct {
	MaxSpectators    int
	MaxEvents        int
	RetentionMS      time.Duration
	SnapshotInterval time.Duration
}

// Default mirrors every default named in spec section 6.
func Default() Config {
	return Config{
		Addr:              ":8080",
		Match:             match.DefaultConfig(),
		Matchmaker:        matchmaker.Config{},
		FullStateInterval: 5 * time.Second,
		Spectator: SpectatorConfig{
			MaxSpectators:    100,
			MaxEvents:        10000,
			RetentionMS:      30 * time.Minute,
			SnapshotInterval: 100 * time.Millisecond,
		},
	}
}

// Load builds a Config from Default, overridden by any present environment
// variable from spec section 6's configuration table. A malformed value is
// a fatal configuration error.
func Load() (Config, error) {
	cfg := Default()

	if err := overrideInt(&cfg.Match.TickRate, "TICK_HZ"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.Match.MaxPlayers, "MAX_PLAYERS"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.Match.MinPlayers, "MIN_PLAYERS"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.Spectator.MaxSpectators, "MAX_SPECTATORS"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.Match.TimeLimit, "MATCH_TIMEOUT_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.Matchmaker.QueueTimeout, "QUEUE_TIMEOUT_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(&cfg.Matchmaker.BaseSkillTol, "BASE_SKILL_TOL"); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(&cfg.Matchmaker.MaxSkillTol, "MAX_SKILL_TOL"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.Matchmaker.LatencyTol, "LATENCY_TOL_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.FullStateInterval, "FULL_STATE_INTERVAL_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.Spectator.SnapshotInterval, "SNAPSHOT_INTERVAL_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.Spectator.MaxEvents, "MAX_SNAPSHOTS"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.Spectator.RetentionMS, "RETENTION_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideDurationMS(&cfg.Match.RegenDelay, "REGEN_DELAY_MS"); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(&cfg.Match.WorldWidth, "W"); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(&cfg.Match.WorldHeight, "H"); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(&cfg.Match.Friction, "FRICTION"); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(&cfg.Match.MaxVel, "MAX_VEL"); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if err := overrideBool(&cfg.Observability.EnablePprofTrace, "ENABLE_PPROF_TRACE"); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Match.TickRate <= 0 {
		return fmt.Errorf("TICK_HZ must be positive, got %d", c.Match.TickRate)
	}
	if c.Match.MinPlayers <= 0 || c.Match.MaxPlayers < c.Match.MinPlayers {
		return fmt.Errorf("MIN_PLAYERS/MAX_PLAYERS must satisfy 0 < min <= max, got %d/%d", c.Match.MinPlayers, c.Match.MaxPlayers)
	}
	if c.Match.WorldWidth <= 0 || c.Match.WorldHeight <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %gx%g", c.Match.WorldWidth, c.Match.WorldHeight)
	}
	if c.Spectator.MaxSpectators <= 0 {
		return fmt.Errorf("MAX_SPECTATORS must be positive, got %d", c.Spectator.MaxSpectators)
	}
	return nil
}

// NewReplay builds a spectator.Replay sized per the resolved configuration.
func (c Config) NewReplay() *spectator.Replay {
	return spectator.NewReplay(c.Spectator.MaxEvents, c.Spectator.RetentionMS, c.Spectator.SnapshotInterval)
}

func overrideInt(dst *int, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	*dst = v
	return nil
}

func overrideFloat(dst *float64, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	*dst = v
	return nil
}

func overrideBool(dst *bool, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	*dst = v
	return nil
}

func overrideDurationMS(dst *time.Duration, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}
