// Package scan validates decoded label payloads against stored travelers and
// records step scan-in/scan-out events.
//
// A payload that parses is only a claim: the traveler id and job number must
// resolve to the same stored traveler. Failures are reported with the codes
// package taxonomy so callers can tell a malformed scan, a stale label and a
// deleted record apart.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/observability"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/rs/zerolog/log"
)

var ErrInvalidAction = errors.New("scan: scan_action must be SCAN_IN or SCAN_OUT")

type Service struct {
	store travelers.Store
	now   func() time.Time
}

func NewService(store travelers.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the clock used to stamp scan events.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// StepInfo describes the step a step code points at.
type StepInfo struct {
	StepID       int            `json:"step_id"`
	Kind         codes.StepKind `json:"step_type"`
	StepNumber   int            `json:"step_number,omitempty"`
	Operation    string         `json:"operation,omitempty"`
	Instructions string         `json:"instructions,omitempty"`
	Description  string         `json:"description,omitempty"`
	IsCompleted  bool           `json:"is_completed"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// Resolution is a validated scan.
type Resolution struct {
	Code     codes.Classified   `json:"code"`
	Traveler travelers.Traveler `json:"traveler"`
	Step     *StepInfo          `json:"step_info,omitempty"`
}

// ResolveBarcode validates a NEX- barcode payload.
func (s *Service) ResolveBarcode(ctx context.Context, text string) (Resolution, error) {
	bc, err := codes.ParseBarcodeCode(text)
	if err != nil {
		return s.fail(codes.FamilyBarcode, err)
	}
	return s.resolve(ctx, codes.Classified{Family: codes.FamilyBarcode, Barcode: &bc})
}

// ResolveQR validates a traveler or step QR payload.
func (s *Service) ResolveQR(ctx context.Context, text string) (Resolution, error) {
	c, err := codes.ParseQRCode(text)
	if err != nil {
		return s.fail(codes.FamilyTraveler, err)
	}
	return s.resolve(ctx, c)
}

// ResolveStepQR validates a step QR payload; traveler QR payloads are
// rejected as malformed for this entry point.
func (s *Service) ResolveStepQR(ctx context.Context, text string) (Resolution, error) {
	c, err := codes.ParseQRCode(text)
	if err != nil {
		return s.fail(codes.FamilyStep, err)
	}
	if c.Family != codes.FamilyStep {
		return s.fail(codes.FamilyStep, &codes.FormatError{Family: codes.FamilyStep, Reason: "not a step code"})
	}
	return s.resolve(ctx, c)
}

// Search classifies an arbitrary scanned string (barcode first) and
// validates it.
func (s *Service) Search(ctx context.Context, text string) (Resolution, error) {
	c, err := codes.Classify(text)
	if err != nil {
		return s.fail("", err)
	}
	return s.resolve(ctx, c)
}

func (s *Service) resolve(ctx context.Context, c codes.Classified) (Resolution, error) {
	t, err := s.matchTraveler(ctx, c.Family, c.TravelerID(), c.JobNumber())
	if err != nil {
		return s.fail(c.Family, err)
	}
	if c.Traveler != nil && t.PartNumber != c.Traveler.PartNumber {
		return s.fail(c.Family, &codes.MismatchError{
			Family:  c.Family,
			Field:   "part_number",
			Scanned: c.Traveler.PartNumber,
			Stored:  t.PartNumber,
		})
	}

	res := Resolution{Code: c, Traveler: t}
	if c.Step != nil && c.Step.StepID != nil {
		info, err := s.stepInfo(ctx, t, c.Step.Kind, *c.Step.StepID)
		switch {
		case err == nil:
			res.Step = &info
		case errors.Is(err, codes.ErrNotFound):
			// Labels outlive deleted steps; the traveler match still stands.
		default:
			return s.fail(c.Family, err)
		}
	}

	observability.RecordScan(string(c.Family), "ok")
	log.Debug().
		Str("family", string(c.Family)).
		Int("traveler_id", t.ID).
		Str("job_number", t.JobNumber).
		Msg("scan resolved")
	return res, nil
}

// matchTraveler enforces the joint id/job pairing.
func (s *Service) matchTraveler(ctx context.Context, family codes.Family, id int, job string) (travelers.Traveler, error) {
	t, err := s.store.Traveler(ctx, id)
	if errors.Is(err, travelers.ErrNotFound) {
		return travelers.Traveler{}, &codes.NotFoundError{Entity: "traveler", ID: id}
	}
	if err != nil {
		return travelers.Traveler{}, fmt.Errorf("scan: load traveler %d: %w", id, err)
	}
	if t.JobNumber != job {
		return travelers.Traveler{}, &codes.MismatchError{
			Family:  family,
			Field:   "job_number",
			Scanned: job,
			Stored:  t.JobNumber,
		}
	}
	return t, nil
}

func (s *Service) stepInfo(ctx context.Context, t travelers.Traveler, kind codes.StepKind, stepID int) (StepInfo, error) {
	switch kind {
	case codes.StepProcess:
		step, err := s.store.ProcessStep(ctx, stepID)
		if err != nil {
			return StepInfo{}, stepLookupErr("process step", stepID, err)
		}
		if step.TravelerID != t.ID {
			return StepInfo{}, stepOwnerMismatch(step.TravelerID, t.ID)
		}
		return StepInfo{
			StepID:       step.ID,
			Kind:         codes.StepProcess,
			StepNumber:   step.StepNumber,
			Operation:    step.Operation,
			Instructions: step.Instructions,
			IsCompleted:  step.IsCompleted,
			CompletedAt:  step.CompletedAt,
		}, nil
	case codes.StepManual:
		step, err := s.store.ManualStep(ctx, stepID)
		if err != nil {
			return StepInfo{}, stepLookupErr("manual step", stepID, err)
		}
		if step.TravelerID != t.ID {
			return StepInfo{}, stepOwnerMismatch(step.TravelerID, t.ID)
		}
		return StepInfo{
			StepID:      step.ID,
			Kind:        codes.StepManual,
			Description: step.Description,
		}, nil
	default:
		return StepInfo{}, &codes.FormatError{Family: codes.FamilyStep, Reason: fmt.Sprintf("unknown step kind %q", kind)}
	}
}

func stepLookupErr(entity string, id int, err error) error {
	if errors.Is(err, travelers.ErrNotFound) {
		return &codes.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("scan: load %s %d: %w", entity, id, err)
}

func stepOwnerMismatch(stored, scanned int) error {
	return &codes.MismatchError{
		Family:  codes.FamilyStep,
		Field:   "traveler_id",
		Scanned: fmt.Sprint(scanned),
		Stored:  fmt.Sprint(stored),
	}
}

func (s *Service) fail(family codes.Family, err error) (Resolution, error) {
	outcome := codes.ErrorCode(err)
	if outcome == "" {
		outcome = "error"
	}
	observability.RecordScan(string(family), outcome)
	log.Debug().Str("family", string(family)).Str("outcome", outcome).Err(err).Msg("scan rejected")
	return Resolution{}, err
}
