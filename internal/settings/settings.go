// Package settings reads the host's environment overrides.
package settings

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvTuning = "ROADSIDE_TUNING"
	EnvAssets = "ROADSIDE_ASSETS"
	EnvSeed   = "ROADSIDE_SEED"

	DefaultAssets = "assets"
)

type Settings struct {
	TuningPath string // empty means built-in defaults
	AssetRoot  string
	Seed       uint64
}

// FromEnv reads settings through getenv. A missing seed falls back to the
// clock; a malformed one is an error.
func FromEnv(getenv func(string) string, now func() time.Time) (Settings, error) {
	s := Settings{
		TuningPath: getenv(EnvTuning),
		AssetRoot:  getenv(EnvAssets),
		Seed:       uint64(now().UnixNano()),
	}
	if s.AssetRoot == "" {
		s.AssetRoot = DefaultAssets
	}
	if v := getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvSeed, err)
		}
		s.Seed = seed
	}
	return s, nil
}

// Load reads the process environment.
func Load() (Settings, error) {
	return FromEnv(os.Getenv, time.Now)
}
