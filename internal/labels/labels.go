// Package labels assembles printable traveler and step labels from stored
// records: the textual payloads from the codes package and their rendered
// images.
package labels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/observability"
	"github.com/danmuck/nexus/internal/render"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultCompany = "American Circuits"

type Service struct {
	store      travelers.Store
	company    string
	stepFormat codes.StepFormat
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

// WithCompany sets the company name printed on traveler labels.
func WithCompany(name string) Option {
	return func(s *Service) {
		if strings.TrimSpace(name) != "" {
			s.company = name
		}
	}
}

// WithStepFormat selects the generation of step metadata payloads.
func WithStepFormat(f codes.StepFormat) Option {
	return func(s *Service) {
		if f != "" {
			s.stepFormat = f
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDSource replaces the random suffix source of label ids.
func WithIDSource(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(store travelers.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		company:    DefaultCompany,
		stepFormat: codes.StepFormatCurrent,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TravelerCodes is the barcode and QR bundle of one traveler.
type TravelerCodes struct {
	TravelerID  int    `json:"traveler_id"`
	JobNumber   string `json:"job_number"`
	PartNumber  string `json:"part_number"`
	BarcodeData string `json:"barcode_data"`
	BarcodeText string `json:"barcode_text"`
	BarcodePNG  []byte `json:"barcode_image"`
	QRData      string `json:"qr_data"`
	QRPNG       []byte `json:"qr_image"`
	UniqueID    string `json:"unique_id"`
}

// TravelerCodes renders the traveler barcode and QR code.
func (s *Service) TravelerCodes(ctx context.Context, travelerID int) (TravelerCodes, error) {
	t, err := s.traveler(ctx, travelerID)
	if err != nil {
		return TravelerCodes{}, err
	}
	return s.travelerCodes(t)
}

func (s *Service) travelerCodes(t travelers.Traveler) (TravelerCodes, error) {
	out := TravelerCodes{
		TravelerID:  t.ID,
		JobNumber:   t.JobNumber,
		PartNumber:  t.PartNumber,
		BarcodeData: codes.BarcodeImagePayload(t.JobNumber),
		BarcodeText: codes.EncodeBarcodeCode(t.ID, t.JobNumber, t.WorkOrderNumber),
		QRData:      codes.EncodeTravelerCode(t.ID, t.JobNumber, t.PartNumber),
		UniqueID:    s.labelID(),
	}
	var err error
	if out.BarcodePNG, err = timed("barcode", func() ([]byte, error) { return render.Code128(out.BarcodeData) }); err != nil {
		return TravelerCodes{}, fmt.Errorf("labels: traveler %d barcode: %w", t.ID, err)
	}
	if out.QRPNG, err = timed("traveler_qr", func() ([]byte, error) { return render.TravelerQR(out.QRData) }); err != nil {
		return TravelerCodes{}, fmt.Errorf("labels: traveler %d qr: %w", t.ID, err)
	}
	return out, nil
}

// TravelerLabel renders the 4x6 inch PDF label and its download filename.
func (s *Service) TravelerLabel(ctx context.Context, travelerID int) ([]byte, string, error) {
	t, err := s.traveler(ctx, travelerID)
	if err != nil {
		return nil, "", err
	}
	bundle, err := s.travelerCodes(t)
	if err != nil {
		return nil, "", err
	}
	pdf, err := timed("label", func() ([]byte, error) {
		return render.Label(render.LabelData{
			TravelerID:      t.ID,
			JobNumber:       t.JobNumber,
			PartNumber:      t.PartNumber,
			PartDescription: t.PartDescription,
			Revision:        t.Revision,
			Quantity:        t.Quantity,
			Company:         s.company,
			Generated:       s.now().Format("2006-01-02 15:04"),
			BarcodePNG:      bundle.BarcodePNG,
			QRPNG:           bundle.QRPNG,
		})
	})
	if err != nil {
		return nil, "", fmt.Errorf("labels: traveler %d label: %w", t.ID, err)
	}
	name := fmt.Sprintf("traveler_label_%s_%s.pdf", t.JobNumber, bundle.UniqueID)
	log.Info().Int("traveler_id", t.ID).Str("file", name).Msg("traveler label rendered")
	return pdf, name, nil
}

// StepCodes is the QR bundle of one step. The image encodes the work center
// only; QRData carries the full metadata payload.
type StepCodes struct {
	StepID     int            `json:"step_id"`
	StepType   codes.StepKind `json:"step_type"`
	StepNumber int            `json:"step_number"`
	Operation  string         `json:"operation"`
	WorkCenter string         `json:"work_center"`
	QRData     string         `json:"qr_data"`
	QRPNG      []byte         `json:"qr_image"`
}

// TravelerSteps is the per-step QR sheet of a traveler.
type TravelerSteps struct {
	TravelerID int         `json:"traveler_id"`
	JobNumber  string      `json:"job_number"`
	Steps      []StepCodes `json:"steps"`
}

// StepQR renders the QR bundle of one process step.
func (s *Service) StepQR(ctx context.Context, stepID int) (StepCodes, error) {
	step, err := s.store.ProcessStep(ctx, stepID)
	if errors.Is(err, travelers.ErrNotFound) {
		return StepCodes{}, &codes.NotFoundError{Entity: "process step", ID: stepID}
	}
	if err != nil {
		return StepCodes{}, fmt.Errorf("labels: load process step %d: %w", stepID, err)
	}
	t, err := s.traveler(ctx, step.TravelerID)
	if err != nil {
		return StepCodes{}, err
	}
	return s.processStepCodes(t, step)
}

// StepQRs renders QR bundles for every process step of a traveler in step
// order, followed by its manual steps when includeManual is set.
func (s *Service) StepQRs(ctx context.Context, travelerID int, includeManual bool) (TravelerSteps, error) {
	t, err := s.traveler(ctx, travelerID)
	if err != nil {
		return TravelerSteps{}, err
	}
	steps, err := s.store.ProcessSteps(ctx, travelerID)
	if err != nil {
		return TravelerSteps{}, fmt.Errorf("labels: steps of traveler %d: %w", travelerID, err)
	}
	out := TravelerSteps{TravelerID: t.ID, JobNumber: t.JobNumber, Steps: make([]StepCodes, 0, len(steps))}
	for _, step := range steps {
		sc, err := s.processStepCodes(t, step)
		if err != nil {
			return TravelerSteps{}, err
		}
		out.Steps = append(out.Steps, sc)
	}
	if !includeManual {
		return out, nil
	}

	manual, err := s.store.ManualSteps(ctx, travelerID)
	if err != nil {
		return TravelerSteps{}, fmt.Errorf("labels: manual steps of traveler %d: %w", travelerID, err)
	}
	for _, step := range manual {
		code := codes.StepCode{
			TravelerID: t.ID,
			JobNumber:  t.JobNumber,
			WorkOrder:  t.WorkOrderNumber,
			WorkCenter: codes.ManualWorkCenter,
			StepNumber: codes.IntPtr(0),
			Operation:  step.Description,
			Kind:       codes.StepManual,
			StepID:     codes.IntPtr(step.ID),
		}
		sc, err := s.stepCodes(code)
		if err != nil {
			return TravelerSteps{}, err
		}
		sc.Operation = step.Description
		out.Steps = append(out.Steps, sc)
	}
	return out, nil
}

func (s *Service) processStepCodes(t travelers.Traveler, step travelers.ProcessStep) (StepCodes, error) {
	return s.stepCodes(codes.StepCode{
		TravelerID: t.ID,
		JobNumber:  t.JobNumber,
		WorkOrder:  t.WorkOrderNumber,
		WorkCenter: step.WorkCenterCode,
		StepNumber: codes.IntPtr(step.StepNumber),
		Operation:  step.Operation,
		Kind:       codes.StepProcess,
		StepID:     codes.IntPtr(step.ID),
	})
}

func (s *Service) stepCodes(code codes.StepCode) (StepCodes, error) {
	data, err := s.encodeStep(code)
	if err != nil {
		return StepCodes{}, fmt.Errorf("labels: step %d: %w", *code.StepID, err)
	}
	img, err := timed("step_qr", func() ([]byte, error) { return render.StepQR(codes.StepImagePayload(code)) })
	if err != nil {
		return StepCodes{}, fmt.Errorf("labels: step %d qr: %w", *code.StepID, err)
	}
	return StepCodes{
		StepID:     *code.StepID,
		StepType:   code.Kind,
		StepNumber: *code.StepNumber,
		Operation:  code.Operation,
		WorkCenter: code.WorkCenter,
		QRData:     data,
		QRPNG:      img,
	}, nil
}

func (s *Service) encodeStep(code codes.StepCode) (string, error) {
	if s.stepFormat == codes.StepFormatV2 {
		return codes.EncodeStepCodeV2(code)
	}
	return codes.EncodeStepCode(code)
}

func (s *Service) traveler(ctx context.Context, id int) (travelers.Traveler, error) {
	t, err := s.store.Traveler(ctx, id)
	if errors.Is(err, travelers.ErrNotFound) {
		return travelers.Traveler{}, &codes.NotFoundError{Entity: "traveler", ID: id}
	}
	if err != nil {
		return travelers.Traveler{}, fmt.Errorf("labels: load traveler %d: %w", id, err)
	}
	return t, nil
}

// labelID is a timestamp plus six random characters, unique per render.
func (s *Service) labelID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(s.newID(), "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return s.now().Format("060102150405") + suffix
}

func timed(kind string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	observability.RecordRender(kind, time.Since(start), err == nil)
	return out, err
}
