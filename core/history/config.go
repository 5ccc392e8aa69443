package history

import "fmt"

// Config selects and configures the history backend.
type Config struct {
	// Backend is "jsonl", "jsonl_rotating", "sqlite" or "none".
	Backend    string `json:"backend" yaml:"backend"`
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "dayplan-history.db"
		default:
			c.Path = "dayplan-history.jsonl"
		}
	}
	if c.Backend == "jsonl_rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "jsonl_rotating", "sqlite", "none":
	default:
		return fmt.Errorf("unknown history backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("history path is required")
	}
	return nil
}

// NewStore opens the configured backend. The "none" backend returns a nil
// Store.
func NewStore(c Config) (Store, error) {
	switch c.Backend {
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "jsonl_rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown history backend %s", c.Backend)
	}
}
