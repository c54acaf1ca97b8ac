package travelers

import (
	"context"
	"fmt"
	"os"

	"github.com/danmuck/nexus/internal/templates"
	"github.com/pelletier/go-toml/v2"
)

// SeedFile is the on-disk shape of a store seed document.
type SeedFile struct {
	Travelers []SeedTraveler `toml:"travelers"`
}

type SeedTraveler struct {
	ID              int           `toml:"id"`
	JobNumber       string        `toml:"job_number"`
	WorkOrderNumber string        `toml:"work_order_number"`
	TravelerType    string        `toml:"traveler_type"`
	PartNumber      string        `toml:"part_number"`
	PartDescription string        `toml:"part_description"`
	Revision        string        `toml:"revision"`
	Quantity        int           `toml:"quantity"`
	Priority        string        `toml:"priority"`
	WorkCenter      string        `toml:"work_center"`
	Steps           []ProcessStep `toml:"steps"`
	ManualSteps     []ManualStep  `toml:"manual_steps"`
}

func (e SeedTraveler) traveler() Traveler {
	return Traveler{
		ID:              e.ID,
		JobNumber:       e.JobNumber,
		WorkOrderNumber: e.WorkOrderNumber,
		TravelerType:    e.TravelerType,
		PartNumber:      e.PartNumber,
		PartDescription: e.PartDescription,
		Revision:        e.Revision,
		Quantity:        e.Quantity,
		Priority:        e.Priority,
		WorkCenter:      e.WorkCenter,
	}
}

// LoadSeedFile reads a TOML seed document from path.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("seed load failed (%s): %w", path, err)
	}
	var seed SeedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("seed parse failed (%s): %w", path, err)
	}
	return seed, nil
}

// Apply writes the seed into store. Travelers are upserted by id. Steps are
// only written for a traveler that has none of that kind yet, so applying
// the same seed on every start leaves a persistent store unchanged. Travelers
// without explicit steps get the routing for their traveler type from table,
// when one exists.
func (f SeedFile) Apply(ctx context.Context, store Store, table *templates.Table) error {
	for i := range f.Travelers {
		entry := f.Travelers[i]
		t := entry.traveler()
		if t.JobNumber == "" {
			return fmt.Errorf("seed traveler[%d]: job_number is required", i)
		}
		if err := store.PutTraveler(ctx, &t); err != nil {
			return fmt.Errorf("seed traveler[%d]: %w", i, err)
		}

		existing, err := store.ProcessSteps(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("seed traveler[%d] steps: %w", i, err)
		}
		if len(existing) == 0 {
			steps := entry.Steps
			if len(steps) == 0 {
				steps = stepsFromTemplate(table, t.TravelerType)
			}
			for j := range steps {
				step := steps[j]
				step.TravelerID = t.ID
				if err := store.PutProcessStep(ctx, &step); err != nil {
					return fmt.Errorf("seed traveler[%d] step[%d]: %w", i, j, err)
				}
			}
		}

		manual, err := store.ManualSteps(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("seed traveler[%d] manual steps: %w", i, err)
		}
		if len(manual) > 0 {
			continue
		}
		for j := range entry.ManualSteps {
			step := entry.ManualSteps[j]
			step.TravelerID = t.ID
			if err := store.PutManualStep(ctx, &step); err != nil {
				return fmt.Errorf("seed traveler[%d] manual step[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

func stepsFromTemplate(table *templates.Table, travelerType string) []ProcessStep {
	tmpl, ok := table.Steps(travelerType)
	if !ok {
		return nil
	}
	out := make([]ProcessStep, 0, len(tmpl))
	for _, step := range tmpl {
		out = append(out, ProcessStep{
			StepNumber:     step.StepNumber,
			Operation:      step.Operation,
			WorkCenterCode: step.WorkCenterCode,
			Instructions:   step.Instructions,
		})
	}
	return out
}
