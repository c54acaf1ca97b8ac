package codes

const (
	SystemTag  = "NEXUS"
	CompanyTag = "AC"

	travelerPrefix  = "NEXUS"
	stepPrefix      = "NEXUS-STEP"
	stepV2Prefix    = "NEXUS-STEP-V2"
	barcodePrefix   = "NEX-"
	fieldSep        = "|"
	barcodeFieldSep = "-"

	// ManualWorkCenter is the work center printed on manual step labels.
	ManualWorkCenter = "CUSTOM"
)

// Family identifies which code family a payload belongs to.
type Family string

const (
	FamilyBarcode  Family = "barcode"
	FamilyTraveler Family = "traveler"
	FamilyStep     Family = "step"
)

// StepKind distinguishes routing steps from operator-added manual steps.
type StepKind string

const (
	StepProcess StepKind = "PROCESS"
	StepManual  StepKind = "MANUAL"
)

// Valid reports whether k is a known step kind.
func (k StepKind) Valid() bool {
	return k == StepProcess || k == StepManual
}

// StepFormat records which payload generation a step code was decoded from.
type StepFormat string

const (
	StepFormatLegacy  StepFormat = "legacy"
	StepFormatCurrent StepFormat = "current"
	StepFormatV2      StepFormat = "v2"
)

// TravelerCode is the identity carried by a traveler QR label.
type TravelerCode struct {
	System     string `json:"system"`
	TravelerID int    `json:"traveler_id"`
	JobNumber  string `json:"job_number"`
	PartNumber string `json:"part_number"`
	Company    string `json:"company"`
}

// StepCode is the identity carried by a process or manual step label.
type StepCode struct {
	TravelerID int        `json:"traveler_id"`
	JobNumber  string     `json:"job_number"`
	WorkOrder  string     `json:"work_order"`
	WorkCenter string     `json:"work_center"`
	StepNumber *int       `json:"step_number,omitempty"`
	Operation  string     `json:"operation,omitempty"`
	Kind       StepKind   `json:"step_type"`
	StepID     *int       `json:"step_id,omitempty"`
	Company    string     `json:"company"`
	Format     StepFormat `json:"format"`
}

// BarcodeCode is the identity carried by a textual traveler barcode.
type BarcodeCode struct {
	TravelerID   int    `json:"traveler_id"`
	JobNumber    string `json:"job_number"`
	WorkOrder    string `json:"work_order,omitempty"`
	HasWorkOrder bool   `json:"has_work_order"`
}

// Classified is the result of universal scan dispatch. Exactly one of the
// code pointers is set, matching Family.
type Classified struct {
	Family   Family        `json:"type"`
	Barcode  *BarcodeCode  `json:"barcode,omitempty"`
	Traveler *TravelerCode `json:"traveler,omitempty"`
	Step     *StepCode     `json:"step,omitempty"`
}

// TravelerID returns the traveler identifier regardless of family.
func (c Classified) TravelerID() int {
	switch {
	case c.Barcode != nil:
		return c.Barcode.TravelerID
	case c.Traveler != nil:
		return c.Traveler.TravelerID
	case c.Step != nil:
		return c.Step.TravelerID
	}
	return 0
}

// JobNumber returns the decoded job number regardless of family.
func (c Classified) JobNumber() string {
	switch {
	case c.Barcode != nil:
		return c.Barcode.JobNumber
	case c.Traveler != nil:
		return c.Traveler.JobNumber
	case c.Step != nil:
		return c.Step.JobNumber
	}
	return ""
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
