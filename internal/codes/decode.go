package codes

import (
	"strconv"
	"strings"
)

const (
	travelerMinFields = 5
	stepMinFields     = 6
	stepCurrentFields = 9
	stepV2Fields      = 10
	barcodeMinFields  = 3
)

// ParseTravelerCode decodes a NEXUS|id|job|part|company payload.
func ParseTravelerCode(text string) (TravelerCode, error) {
	if !strings.HasPrefix(text, travelerPrefix+fieldSep) {
		return TravelerCode{}, formatErr(FamilyTraveler, "missing NEXUS prefix", nil)
	}
	parts := strings.Split(text, fieldSep)
	if len(parts) < travelerMinFields {
		return TravelerCode{}, formatErr(FamilyTraveler, "too few fields", nil)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return TravelerCode{}, formatErr(FamilyTraveler, "traveler id is not numeric", err)
	}
	return TravelerCode{
		System:     parts[0],
		TravelerID: id,
		JobNumber:  parts[2],
		PartNumber: parts[3],
		Company:    parts[4],
	}, nil
}

// ParseStepCode decodes any step payload generation. Version-tagged payloads
// are recognised by their first token; untagged payloads are dispatched on
// field count, which is what already-printed labels rely on.
func ParseStepCode(text string) (StepCode, error) {
	parts := strings.Split(text, fieldSep)
	switch parts[0] {
	case stepV2Prefix:
		return parseStepV2(parts)
	case stepPrefix:
	default:
		return StepCode{}, formatErr(FamilyStep, "missing NEXUS-STEP prefix", nil)
	}
	if len(parts) < stepMinFields {
		return StepCode{}, formatErr(FamilyStep, "too few fields", nil)
	}
	if len(parts) >= stepCurrentFields {
		return parseStepCurrent(parts)
	}
	return parseStepLegacy(parts)
}

// parseStepCurrent handles NEXUS-STEP|id|job|wo|wc|num|op|kind|[step_id|]company.
// A step id is present when the payload has 10 or 11 fields.
func parseStepCurrent(parts []string) (StepCode, error) {
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return StepCode{}, formatErr(FamilyStep, "traveler id is not numeric", err)
	}
	stepNumber, err := parseOptionalInt(parts[5])
	if err != nil {
		return StepCode{}, formatErr(FamilyStep, "step number is not numeric", err)
	}
	c := StepCode{
		TravelerID: id,
		JobNumber:  parts[2],
		WorkOrder:  parts[3],
		WorkCenter: parts[4],
		StepNumber: stepNumber,
		Operation:  parts[6],
		Kind:       StepKind(parts[7]),
		Format:     StepFormatCurrent,
	}
	if len(parts) == 10 || len(parts) == 11 {
		stepID, err := parseOptionalInt(parts[8])
		if err != nil {
			return StepCode{}, formatErr(FamilyStep, "step id is not numeric", err)
		}
		c.StepID = stepID
		c.Company = parts[9]
		return c, nil
	}
	c.Company = parts[8]
	return c, nil
}

// parseStepLegacy handles NEXUS-STEP|id|job|wc|kind|[step_id|]company. Legacy
// payloads carry no work order.
func parseStepLegacy(parts []string) (StepCode, error) {
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return StepCode{}, formatErr(FamilyStep, "traveler id is not numeric", err)
	}
	c := StepCode{
		TravelerID: id,
		JobNumber:  parts[2],
		WorkOrder:  "",
		WorkCenter: parts[3],
		Kind:       StepKind(parts[4]),
		Format:     StepFormatLegacy,
	}
	if len(parts) == 7 {
		stepID, err := strconv.Atoi(parts[5])
		if err != nil {
			return StepCode{}, formatErr(FamilyStep, "step id is not numeric", err)
		}
		c.StepID = &stepID
		c.Company = parts[6]
		return c, nil
	}
	c.Company = parts[5]
	return c, nil
}

func parseStepV2(parts []string) (StepCode, error) {
	if len(parts) != stepV2Fields {
		return StepCode{}, formatErr(FamilyStep, "v2 payload must have 10 fields", nil)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return StepCode{}, formatErr(FamilyStep, "traveler id is not numeric", err)
	}
	stepNumber, err := parseOptionalInt(parts[5])
	if err != nil {
		return StepCode{}, formatErr(FamilyStep, "step number is not numeric", err)
	}
	stepID, err := parseOptionalInt(parts[8])
	if err != nil {
		return StepCode{}, formatErr(FamilyStep, "step id is not numeric", err)
	}
	return StepCode{
		TravelerID: id,
		JobNumber:  parts[2],
		WorkOrder:  parts[3],
		WorkCenter: parts[4],
		StepNumber: stepNumber,
		Operation:  parts[6],
		Kind:       StepKind(parts[7]),
		StepID:     stepID,
		Company:    parts[9],
		Format:     StepFormatV2,
	}, nil
}

// ParseBarcodeCode decodes NEX-id-job[-workorder]. With four or more fields
// the third is the job number and the rest is the work order; otherwise the
// remainder is the job number.
func ParseBarcodeCode(text string) (BarcodeCode, error) {
	if !strings.HasPrefix(text, barcodePrefix) {
		return BarcodeCode{}, formatErr(FamilyBarcode, "missing NEX- prefix", nil)
	}
	parts := strings.Split(text, barcodeFieldSep)
	if len(parts) < barcodeMinFields {
		return BarcodeCode{}, formatErr(FamilyBarcode, "too few fields", nil)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return BarcodeCode{}, formatErr(FamilyBarcode, "traveler id is not numeric", err)
	}
	if len(parts) >= 4 {
		return BarcodeCode{
			TravelerID:   id,
			JobNumber:    parts[2],
			WorkOrder:    strings.Join(parts[3:], barcodeFieldSep),
			HasWorkOrder: true,
		}, nil
	}
	return BarcodeCode{
		TravelerID: id,
		JobNumber:  strings.Join(parts[2:], barcodeFieldSep),
	}, nil
}

// ParseQRCode decodes either QR family, selected by prefix.
func ParseQRCode(text string) (Classified, error) {
	if isStepPayload(text) {
		step, err := ParseStepCode(text)
		if err != nil {
			return Classified{}, err
		}
		return Classified{Family: FamilyStep, Step: &step}, nil
	}
	traveler, err := ParseTravelerCode(text)
	if err != nil {
		return Classified{}, err
	}
	return Classified{Family: FamilyTraveler, Traveler: &traveler}, nil
}

// Classify runs universal scan dispatch. Barcode parsing is tried first, so a
// payload valid as a barcode is never reported as a QR code. When nothing
// parses, the QR error is returned.
func Classify(text string) (Classified, error) {
	if bc, err := ParseBarcodeCode(text); err == nil {
		return Classified{Family: FamilyBarcode, Barcode: &bc}, nil
	}
	return ParseQRCode(text)
}

func isStepPayload(text string) bool {
	return strings.HasPrefix(text, stepPrefix+fieldSep) ||
		strings.HasPrefix(text, stepV2Prefix+fieldSep)
}

func parseOptionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
