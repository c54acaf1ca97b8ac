// Package travelers is the record store the scan path validates against:
// travelers, their process and manual steps, and the step scan log.
package travelers

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("travelers: record not found")
	ErrInvalidScan = errors.New("travelers: invalid scan event")
)

// Store is the persistence contract used by the scan and label services.
type Store interface {
	Traveler(ctx context.Context, id int) (Traveler, error)
	ProcessStep(ctx context.Context, id int) (ProcessStep, error)
	ManualStep(ctx context.Context, id int) (ManualStep, error)
	// ProcessSteps returns a traveler's steps ordered by step number.
	ProcessSteps(ctx context.Context, travelerID int) ([]ProcessStep, error)
	ManualSteps(ctx context.Context, travelerID int) ([]ManualStep, error)

	PutTraveler(ctx context.Context, t *Traveler) error
	PutProcessStep(ctx context.Context, s *ProcessStep) error
	PutManualStep(ctx context.Context, s *ManualStep) error

	RecordScan(ctx context.Context, e *ScanEvent) error
	// LastScan returns the most recent event matching the filter.
	LastScan(ctx context.Context, f ScanFilter) (ScanEvent, bool, error)
	// ScanEvents returns matching events oldest first.
	ScanEvents(ctx context.Context, f ScanFilter) ([]ScanEvent, error)

	Close() error
}

// ScanFilter narrows scan event lookups. Zero values are wildcards.
type ScanFilter struct {
	TravelerID int
	StepID     int
	StepType   string
	Action     ScanAction
}

func (f ScanFilter) matches(e ScanEvent) bool {
	if f.TravelerID != 0 && e.TravelerID != f.TravelerID {
		return false
	}
	if f.StepID != 0 && e.StepID != f.StepID {
		return false
	}
	if f.StepType != "" && e.StepType != f.StepType {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

func validateScan(e *ScanEvent) error {
	if e == nil || e.TravelerID == 0 || e.StepID == 0 || e.StepType == "" || !e.Action.Valid() {
		return ErrInvalidScan
	}
	return nil
}
