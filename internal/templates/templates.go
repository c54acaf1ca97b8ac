// Package templates holds the default manufacturing routing per traveler
// type. The table is parsed once and never mutated; lookups return copies.
package templates

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed steps.toml
var defaultSteps []byte

// SubStep is one checklist line inside a step.
type SubStep struct {
	Number      string `toml:"number" json:"step_number"`
	Description string `toml:"description" json:"description"`
}

// Step is one routing step template.
type Step struct {
	StepNumber       int       `toml:"step_number" json:"step_number"`
	Operation        string    `toml:"operation" json:"operation"`
	WorkCenterCode   string    `toml:"work_center_code" json:"work_center_code"`
	Instructions     string    `toml:"instructions" json:"instructions"`
	EstimatedMinutes int       `toml:"estimated_minutes" json:"estimated_time"`
	Required         bool      `toml:"required" json:"is_required"`
	SubSteps         []SubStep `toml:"sub_steps" json:"sub_steps"`
}

// Table maps traveler type to ordered step templates.
type Table struct {
	byType map[string][]Step
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table, parsed on first use.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(defaultSteps)
	})
	return defaultTable, defaultErr
}

// Parse builds a table from a TOML document whose top-level keys are
// traveler types holding arrays of steps.
func Parse(data []byte) (*Table, error) {
	raw := map[string][]Step{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("templates: parse: %w", err)
	}
	byType := make(map[string][]Step, len(raw))
	for kind, steps := range raw {
		key := normalizeType(kind)
		if key == "" {
			return nil, fmt.Errorf("templates: empty traveler type")
		}
		sorted := make([]Step, len(steps))
		copy(sorted, steps)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StepNumber < sorted[j].StepNumber
		})
		for i, step := range sorted {
			if strings.TrimSpace(step.WorkCenterCode) == "" {
				return nil, fmt.Errorf("templates: %s step %d missing work_center_code", key, i+1)
			}
		}
		byType[key] = sorted
	}
	return &Table{byType: byType}, nil
}

// Steps returns a copy of the routing for travelerType.
func (t *Table) Steps(travelerType string) ([]Step, bool) {
	if t == nil {
		return nil, false
	}
	steps, ok := t.byType[normalizeType(travelerType)]
	if !ok {
		return nil, false
	}
	out := make([]Step, len(steps))
	for i, step := range steps {
		out[i] = step
		out[i].SubSteps = append([]SubStep(nil), step.SubSteps...)
	}
	return out, true
}

// Types lists the traveler types with a routing, sorted.
func (t *Table) Types() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.byType))
	for kind := range t.byType {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

func normalizeType(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
