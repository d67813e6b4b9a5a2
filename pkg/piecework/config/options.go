package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by ApplyEnv.
const EnvPrefix = "PIECEWORK_"

// Options is the typed configuration consumed by the host runtime at startup.
type Options struct {
	// Prefixes are the trigger strings that mark a message as a command.
	// Order matters: the first matching prefix wins.
	Prefixes []string `env:"PREFIX" envSeparator:","`

	// Owners bypass cooldowns.
	Owners []string `env:"OWNERS" envSeparator:","`

	// DisplayErrors surfaces uncaught runtime faults to the operator log.
	DisplayErrors bool `env:"DISPLAY_ERRORS"`

	// UseMentionPrefix adds "<@!id>" as a prefix once the host identity is known.
	UseMentionPrefix bool `env:"USE_MENTION_PREFIX"`

	// UseUsernamePrefix adds "Username, " as a prefix once the host identity is known.
	UseUsernamePrefix bool `env:"USE_USERNAME_PREFIX"`

	// UseSweeper enables the periodic cache sweeper task.
	UseSweeper bool `env:"USE_SWEEPER"`

	// FaultStore is the SQLite path for the fault journal.
	// Empty keeps faults in memory only.
	FaultStore string `env:"FAULT_STORE"`

	// PiecesDir is an optional directory of piece definitions.
	PiecesDir string `env:"PIECES_DIR"`
}

// DefaultOptions returns the defaults: every boolean switch on, no prefixes,
// no owners.
func DefaultOptions() Options {
	return Options{
		DisplayErrors:     true,
		UseMentionPrefix:  true,
		UseUsernamePrefix: true,
		UseSweeper:        true,
	}
}

// Options projects the map-backed configuration onto Options, starting
// from DefaultOptions. "prefix" may be a single string or a list.
func (c Config) Options() Options {
	d := DefaultOptions()
	return Options{
		Prefixes:          c.StringSlice("prefix", d.Prefixes),
		Owners:            c.StringSlice("owners", d.Owners),
		DisplayErrors:     c.Bool("displayErrors", d.DisplayErrors),
		UseMentionPrefix:  c.Bool("useMentionPrefix", d.UseMentionPrefix),
		UseUsernamePrefix: c.Bool("useUsernamePrefix", d.UseUsernamePrefix),
		UseSweeper:        c.Bool("useSweeper", d.UseSweeper),
		FaultStore:        c.String("faultStore", d.FaultStore),
		PiecesDir:         c.String("piecesDir", d.PiecesDir),
	}
}

// ApplyEnv overrides opts with any PIECEWORK_* environment variables that are set.
// Unset variables leave the corresponding field untouched.
func ApplyEnv(opts *Options) error {
	if err := env.ParseWithOptions(opts, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Load reads options from path and applies environment overrides.
// An empty path starts from DefaultOptions.
func Load(path string) (Options, error) {
	opts := DefaultOptions()
	if path != "" {
		cfg, err := FromFile(path)
		if err != nil {
			return Options{}, err
		}
		opts = cfg.Options()
	}
	if err := ApplyEnv(&opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
