package scan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/rs/zerolog/log"
)

// StepScan is a request to scan in or out of the step a step code names.
type StepScan struct {
	Code      string
	Action    travelers.ScanAction
	Notes     string
	ScannedBy string
}

// ScanStep validates a step code and records a scan event. A SCAN_OUT
// carries the minutes elapsed since the latest SCAN_IN of the same step.
func (s *Service) ScanStep(ctx context.Context, req StepScan) (travelers.ScanEvent, Resolution, error) {
	c, err := codes.ParseQRCode(req.Code)
	if err != nil {
		_, err = s.fail(codes.FamilyStep, err)
		return travelers.ScanEvent{}, Resolution{}, err
	}
	if c.Step == nil {
		_, err = s.fail(codes.FamilyStep, &codes.FormatError{Family: codes.FamilyStep, Reason: "not a step code"})
		return travelers.ScanEvent{}, Resolution{}, err
	}
	action := travelers.ScanAction(strings.ToUpper(strings.TrimSpace(string(req.Action))))
	if !action.Valid() {
		return travelers.ScanEvent{}, Resolution{}, ErrInvalidAction
	}
	if c.Step.StepID == nil {
		_, err = s.fail(codes.FamilyStep, &codes.FormatError{Family: codes.FamilyStep, Reason: "step id is required"})
		return travelers.ScanEvent{}, Resolution{}, err
	}

	t, err := s.matchTraveler(ctx, codes.FamilyStep, c.Step.TravelerID, c.Step.JobNumber)
	if err != nil {
		_, err = s.fail(codes.FamilyStep, err)
		return travelers.ScanEvent{}, Resolution{}, err
	}
	stepID := *c.Step.StepID
	info, err := s.stepInfo(ctx, t, c.Step.Kind, stepID)
	if err != nil {
		_, err = s.fail(codes.FamilyStep, err)
		return travelers.ScanEvent{}, Resolution{}, err
	}

	now := s.now()
	event := travelers.ScanEvent{
		TravelerID: t.ID,
		StepID:     stepID,
		StepType:   string(c.Step.Kind),
		JobNumber:  t.JobNumber,
		WorkCenter: c.Step.WorkCenter,
		Action:     action,
		ScannedAt:  now,
		ScannedBy:  req.ScannedBy,
		Notes:      req.Notes,
	}
	if action == travelers.ScanOut {
		last, ok, err := s.store.LastScan(ctx, travelers.ScanFilter{
			TravelerID: t.ID,
			StepID:     stepID,
			StepType:   event.StepType,
			Action:     travelers.ScanIn,
		})
		if err != nil {
			return travelers.ScanEvent{}, Resolution{}, fmt.Errorf("scan: last scan-in: %w", err)
		}
		if ok {
			minutes := now.Sub(last.ScannedAt).Minutes()
			event.DurationMinutes = &minutes
		}
	}
	if err := s.store.RecordScan(ctx, &event); err != nil {
		return travelers.ScanEvent{}, Resolution{}, fmt.Errorf("scan: record: %w", err)
	}

	log.Info().
		Int("traveler_id", t.ID).
		Int("step_id", stepID).
		Str("step_type", event.StepType).
		Str("action", string(action)).
		Str("scanned_by", req.ScannedBy).
		Msg("step scan recorded")
	return event, Resolution{Code: c, Traveler: t, Step: &info}, nil
}

// ScanPair is a completed scan-in/scan-out interval.
type ScanPair struct {
	ScanInAt        time.Time `json:"scan_in_at"`
	ScanOutAt       time.Time `json:"scan_out_at"`
	DurationMinutes float64   `json:"duration_minutes"`
	ScannedBy       string    `json:"scanned_by,omitempty"`
}

// History is the scan record of one step.
type History struct {
	StepID       int                   `json:"step_id"`
	StepType     string                `json:"step_type"`
	TotalScans   int                   `json:"total_scans"`
	TotalMinutes float64               `json:"total_time_minutes"`
	TotalHours   float64               `json:"total_time_hours"`
	Pairs        []ScanPair            `json:"scan_pairs"`
	Events       []travelers.ScanEvent `json:"all_scans"`
}

// StepHistory returns every scan of a step, newest first, with the
// scan-in/scan-out pairs and accumulated time.
func (s *Service) StepHistory(ctx context.Context, stepID int, stepType string) (History, error) {
	stepType = strings.ToUpper(strings.TrimSpace(stepType))
	if !codes.StepKind(stepType).Valid() {
		return History{}, &codes.FormatError{Family: codes.FamilyStep, Reason: fmt.Sprintf("unknown step kind %q", stepType)}
	}
	events, err := s.store.ScanEvents(ctx, travelers.ScanFilter{StepID: stepID, StepType: stepType})
	if err != nil {
		return History{}, fmt.Errorf("scan: history: %w", err)
	}

	h := History{
		StepID:     stepID,
		StepType:   stepType,
		TotalScans: len(events),
		Pairs:      make([]ScanPair, 0),
	}
	var open *travelers.ScanEvent
	for i := range events {
		e := events[i]
		switch e.Action {
		case travelers.ScanIn:
			open = &events[i]
		case travelers.ScanOut:
			if e.DurationMinutes == nil {
				continue
			}
			h.TotalMinutes += *e.DurationMinutes
			if open != nil {
				h.Pairs = append(h.Pairs, ScanPair{
					ScanInAt:        open.ScannedAt,
					ScanOutAt:       e.ScannedAt,
					DurationMinutes: *e.DurationMinutes,
					ScannedBy:       open.ScannedBy,
				})
				open = nil
			}
		}
	}
	h.TotalHours = round2(h.TotalMinutes / 60)
	h.TotalMinutes = round2(h.TotalMinutes)

	sort.SliceStable(events, func(i, j int) bool { return events[i].ScannedAt.After(events[j].ScannedAt) })
	h.Events = events
	return h, nil
}

type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// StepTime is the accumulated scan time of one process step.
type StepTime struct {
	StepID     int        `json:"step_id"`
	StepNumber int        `json:"step_number"`
	Operation  string     `json:"operation"`
	WorkCenter string     `json:"work_center"`
	Minutes    float64    `json:"time_minutes"`
	Hours      float64    `json:"time_hours"`
	Status     StepStatus `json:"status"`
	ScanCount  int        `json:"scan_count"`
}

// TimeSummary is the scan time of a traveler across its process steps.
type TimeSummary struct {
	TravelerID   int        `json:"traveler_id"`
	JobNumber    string     `json:"job_number"`
	TotalMinutes float64    `json:"total_time_minutes"`
	TotalHours   float64    `json:"total_time_hours"`
	Steps        []StepTime `json:"steps"`
}

// TravelerTimeSummary accumulates scan time per process step.
func (s *Service) TravelerTimeSummary(ctx context.Context, travelerID int) (TimeSummary, error) {
	t, err := s.store.Traveler(ctx, travelerID)
	if errors.Is(err, travelers.ErrNotFound) {
		return TimeSummary{}, &codes.NotFoundError{Entity: "traveler", ID: travelerID}
	}
	if err != nil {
		return TimeSummary{}, fmt.Errorf("scan: load traveler %d: %w", travelerID, err)
	}
	steps, err := s.store.ProcessSteps(ctx, travelerID)
	if err != nil {
		return TimeSummary{}, fmt.Errorf("scan: steps: %w", err)
	}

	summary := TimeSummary{TravelerID: t.ID, JobNumber: t.JobNumber, Steps: make([]StepTime, 0, len(steps))}
	var total float64
	for _, step := range steps {
		events, err := s.store.ScanEvents(ctx, travelers.ScanFilter{
			StepID:   step.ID,
			StepType: string(codes.StepProcess),
		})
		if err != nil {
			return TimeSummary{}, fmt.Errorf("scan: events for step %d: %w", step.ID, err)
		}
		var minutes float64
		for _, e := range events {
			if e.DurationMinutes != nil {
				minutes += *e.DurationMinutes
			}
		}
		total += minutes

		status := StepNotStarted
		if n := len(events); n > 0 {
			status = StepCompleted
			if events[n-1].Action == travelers.ScanIn {
				status = StepInProgress
			}
		}
		summary.Steps = append(summary.Steps, StepTime{
			StepID:     step.ID,
			StepNumber: step.StepNumber,
			Operation:  step.Operation,
			WorkCenter: step.WorkCenterCode,
			Minutes:    round2(minutes),
			Hours:      round2(minutes / 60),
			Status:     status,
			ScanCount:  len(events),
		})
	}
	summary.TotalMinutes = round2(total)
	summary.TotalHours = round2(total / 60)
	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
