// Package plan reads and writes day plan files. A plan file is the list of
// activity rows of one day encoded as YAML or JSON.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/dayplan/core/model"
)

// ErrTooShort is returned by Validate for plans that cannot be scheduled.
var ErrTooShort = errors.New("plan needs at least two activities")

// Plan is the content of a plan file.
type Plan struct {
	Date       string                 `json:"date,omitempty" yaml:"date,omitempty"`
	Activities []model.ActivityRecord `json:"activities" yaml:"activities"`
}

// Validate checks the structural precondition of the scheduler.
func (p Plan) Validate() error {
	if len(p.Activities) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooShort, len(p.Activities))
	}
	return nil
}

// EnsureIDs assigns a random identifier to every row that has none and
// reports whether any row changed.
func (p *Plan) EnsureIDs() bool {
	changed := false
	for i := range p.Activities {
		if strings.TrimSpace(p.Activities[i].ID) == "" {
			p.Activities[i].ID = uuid.NewString()
			changed = true
		}
	}
	return changed
}

// FormatOf returns the codec name for a file path based on its extension.
func FormatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported plan format: %s", ext)
	}
}

// LoadPlan reads a plan from a JSON or YAML file.
func LoadPlan(path string) (Plan, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Plan{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Plan{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodePlan(f, format)
}

// DecodePlan reads a plan from r in the given format.
func DecodePlan(r io.Reader, format string) (Plan, error) {
	var p Plan
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return p, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return p, err
		}
	default:
		return p, fmt.Errorf("unsupported format: %s", format)
	}
	return p, nil
}

// EncodePlan writes p to w in the given format.
func EncodePlan(w io.Writer, p Plan, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// SavePlan replaces the file at path with p. The content is written to a
// temporary file in the same directory first so readers never observe a
// partial plan.
func SavePlan(path string, p Plan) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dayplan-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := EncodePlan(tmp, p, format); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
