package codes

import (
	"strconv"
	"strings"
)

// EncodeTravelerCode builds the traveler QR payload. Fields are not escaped;
// a "|" inside job or part number will desynchronize decoding.
func EncodeTravelerCode(travelerID int, jobNumber, partNumber string) string {
	return strings.Join([]string{
		travelerPrefix,
		strconv.Itoa(travelerID),
		jobNumber,
		partNumber,
		CompanyTag,
	}, fieldSep)
}

// EncodeStepCode builds the step metadata payload used for programmatic
// matching. With a step id it is the 10-field form, without one the 9-field
// form. It is never the label image payload; see StepImagePayload.
func EncodeStepCode(c StepCode) (string, error) {
	if !c.Kind.Valid() {
		return "", ErrInvalidStepKind
	}
	fields := []string{
		stepPrefix,
		strconv.Itoa(c.TravelerID),
		c.JobNumber,
		c.WorkOrder,
		c.WorkCenter,
		optionalInt(c.StepNumber),
		c.Operation,
		string(c.Kind),
	}
	if c.StepID != nil {
		fields = append(fields, strconv.Itoa(*c.StepID))
	}
	fields = append(fields, CompanyTag)
	return strings.Join(fields, fieldSep), nil
}

// EncodeStepCodeV2 builds a version-tagged step payload. The field layout is
// fixed at 10 fields; absent optional values are encoded as empty fields.
func EncodeStepCodeV2(c StepCode) (string, error) {
	if !c.Kind.Valid() {
		return "", ErrInvalidStepKind
	}
	company := c.Company
	if company == "" {
		company = CompanyTag
	}
	return strings.Join([]string{
		stepV2Prefix,
		strconv.Itoa(c.TravelerID),
		c.JobNumber,
		c.WorkOrder,
		c.WorkCenter,
		optionalInt(c.StepNumber),
		c.Operation,
		string(c.Kind),
		optionalInt(c.StepID),
		company,
	}, fieldSep), nil
}

// StepImagePayload is the content of the physical step label QR image: the
// bare work center code. Scanners at a station only need the station.
func StepImagePayload(c StepCode) string {
	return c.WorkCenter
}

// EncodeBarcodeCode builds the textual barcode payload used for matching.
func EncodeBarcodeCode(travelerID int, jobNumber, workOrder string) string {
	out := barcodePrefix + strconv.Itoa(travelerID) + barcodeFieldSep + jobNumber
	if workOrder != "" {
		out += barcodeFieldSep + workOrder
	}
	return out
}

// BarcodeImagePayload is the content rendered into the Code-128 symbol.
func BarcodeImagePayload(jobNumber string) string {
	return jobNumber
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
