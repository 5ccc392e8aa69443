package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/dayplan/core/plan"
)

// CronParser accepts 5-field specs, an optional leading seconds field and
// descriptors such as @hourly.
var CronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// PlanConfig points the service at the plan file it keeps resolved.
type PlanConfig struct {
	Path string `json:"path"`
	// WriteBack stores the resolved rows into the plan file when they differ.
	WriteBack bool `json:"write_back"`
	// DebounceMS is the quiet period after the last edit before a pass runs.
	DebounceMS int `json:"debounce_ms"`
	// Timezone names the IANA zone used to map minutes onto clock time.
	Timezone string `json:"timezone"`
	// Cron re-runs the pass on a schedule, e.g. "*/5 * * * *". Empty disables.
	Cron string `json:"cron"`
}

// SetDefaults applies sane defaults.
func (c *PlanConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "today.yaml"
	}
	if c.DebounceMS == 0 {
		c.DebounceMS = 250
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Validate checks mandatory fields.
func (c PlanConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if _, err := plan.FormatOf(c.Path); err != nil {
		return err
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Cron != "" {
		if _, err := CronParser.Parse(c.Cron); err != nil {
			return fmt.Errorf("cron %q: %w", c.Cron, err)
		}
	}
	return nil
}

// Debounce returns DebounceMS as a duration.
func (c PlanConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Location resolves Timezone.
func (c PlanConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
