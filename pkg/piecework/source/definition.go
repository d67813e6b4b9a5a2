package source

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/config"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
)

// Spec is one piece definition as written on disk.
type Spec struct {
	Name        string `yaml:"name" json:"name"`
	Kind        string `yaml:"kind" json:"kind"`
	Factory     string `yaml:"factory" json:"factory"`
	Description string `yaml:"description" json:"description"`
	Enabled     *bool  `yaml:"enabled" json:"enabled"`

	// Command
	Cooldown     int      `yaml:"cooldown" json:"cooldown"` // seconds
	Aliases      []string `yaml:"aliases" json:"aliases"`
	AllowPrivate bool     `yaml:"allowPrivate" json:"allowPrivate"`
	Restricted   bool     `yaml:"restricted" json:"restricted"`

	// Event handler
	Event string `yaml:"event" json:"event"`
	Once  bool   `yaml:"once" json:"once"`

	// Monitor
	IgnoreSelf   bool `yaml:"ignoreSelf" json:"ignoreSelf"`
	IgnoreOthers bool `yaml:"ignoreOthers" json:"ignoreOthers"`
	IgnoreBots   bool `yaml:"ignoreBots" json:"ignoreBots"`

	// Task
	Schedule string `yaml:"schedule" json:"schedule"`

	// Params carries factory-specific settings.
	Params map[string]any `yaml:"params" json:"params"`
}

// ParseSpec decodes a definition, picking the format from the file extension.
func ParseSpec(path string, data []byte) (Spec, error) {
	var spec Spec
	if err := config.Decode(path, data, &spec); err != nil {
		return Spec{}, err
	}

	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if spec.Factory == "" {
		spec.Factory = spec.Name
	}
	return spec, nil
}

func (s Spec) disabled() bool {
	return s.Enabled != nil && !*s.Enabled
}

// CommandOptions projects the definition onto command options. The caller
// supplies Run.
func (s Spec) CommandOptions() piece.CommandOptions {
	return piece.CommandOptions{
		Name:         s.Name,
		Description:  s.Description,
		Aliases:      s.Aliases,
		Cooldown:     time.Duration(s.Cooldown) * time.Second,
		AllowPrivate: s.AllowPrivate,
		Restricted:   s.Restricted,
		Disabled:     s.disabled(),
	}
}

// EventHandlerOptions projects the definition onto event handler options.
func (s Spec) EventHandlerOptions() piece.EventHandlerOptions {
	return piece.EventHandlerOptions{
		Name:     s.Name,
		Event:    s.Event,
		Once:     s.Once,
		Disabled: s.disabled(),
	}
}

// MonitorOptions projects the definition onto monitor options.
func (s Spec) MonitorOptions() piece.MonitorOptions {
	return piece.MonitorOptions{
		Name:         s.Name,
		IgnoreSelf:   s.IgnoreSelf,
		IgnoreOthers: s.IgnoreOthers,
		IgnoreBots:   s.IgnoreBots,
		Disabled:     s.disabled(),
	}
}

// TaskOptions projects the definition onto task options.
func (s Spec) TaskOptions() piece.TaskOptions {
	return piece.TaskOptions{
		Name:     s.Name,
		Schedule: s.Schedule,
		Disabled: s.disabled(),
	}
}

// Param returns a string parameter or def.
func (s Spec) Param(key, def string) string {
	if v, ok := s.Params[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
		return fmt.Sprint(v)
	}
	return def
}
