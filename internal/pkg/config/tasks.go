package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "45m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// TaskOverride adjusts one scheduled task. Nil fields leave the default
// untouched.
type TaskOverride struct {
	Interval *Duration `yaml:"interval"`
	Enabled  *bool     `yaml:"enabled"`
}

// TaskOverrides maps task names to their overrides.
//
// Example file:
//
//	send_reminders:
//	  interval: 15m
//	reset_snoozes:
//	  enabled: false
type TaskOverrides map[string]TaskOverride

// LoadTaskOverrides reads a YAML task override file. A missing path returns
// an empty map; a present but unreadable or malformed file is an error,
// since a silently ignored override is worse than a failed start.
func LoadTaskOverrides(path string) (TaskOverrides, error) {
	if path == "" {
		return TaskOverrides{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTaskOverrides: %w", err)
	}

	var overrides TaskOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("LoadTaskOverrides: parse %s: %w", path, err)
	}
	if overrides == nil {
		overrides = TaskOverrides{}
	}
	return overrides, nil
}
