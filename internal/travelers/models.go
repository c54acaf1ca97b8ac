package travelers

import "time"

type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusOnHold     Status = "ON_HOLD"
	StatusCancelled  Status = "CANCELLED"
	StatusArchived   Status = "ARCHIVED"
)

// ScanAction is the direction of a step scan.
type ScanAction string

const (
	ScanIn  ScanAction = "SCAN_IN"
	ScanOut ScanAction = "SCAN_OUT"
)

// Valid reports whether a is a known scan action.
func (a ScanAction) Valid() bool {
	return a == ScanIn || a == ScanOut
}

// Traveler is the read model of a work-order traveler.
type Traveler struct {
	ID              int       `gorm:"column:id;primaryKey" json:"id" toml:"id"`
	JobNumber       string    `gorm:"column:job_number;type:varchar(50);index;not null" json:"job_number" toml:"job_number"`
	WorkOrderNumber string    `gorm:"column:work_order_number;type:varchar(50);index" json:"work_order_number" toml:"work_order_number"`
	TravelerType    string    `gorm:"column:traveler_type;type:varchar(20)" json:"traveler_type" toml:"traveler_type"`
	PartNumber      string    `gorm:"column:part_number;type:varchar(50);not null" json:"part_number" toml:"part_number"`
	PartDescription string    `gorm:"column:part_description;type:varchar(200)" json:"part_description" toml:"part_description"`
	Revision        string    `gorm:"column:revision;type:varchar(20)" json:"revision" toml:"revision"`
	Quantity        int       `gorm:"column:quantity" json:"quantity" toml:"quantity"`
	Priority        string    `gorm:"column:priority;type:varchar(20);default:'NORMAL'" json:"priority" toml:"priority"`
	WorkCenter      string    `gorm:"column:work_center;type:varchar(20)" json:"work_center" toml:"work_center"`
	Status          Status    `gorm:"column:status;type:varchar(20);default:'CREATED'" json:"status" toml:"status"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at" toml:"created_at"`
}

// ProcessStep is one routed step of a traveler.
type ProcessStep struct {
	ID             int        `gorm:"column:id;primaryKey" json:"id" toml:"id"`
	TravelerID     int        `gorm:"column:traveler_id;index;not null" json:"traveler_id" toml:"traveler_id"`
	StepNumber     int        `gorm:"column:step_number;not null" json:"step_number" toml:"step_number"`
	Operation      string     `gorm:"column:operation;type:varchar(100)" json:"operation" toml:"operation"`
	WorkCenterCode string     `gorm:"column:work_center_code;type:varchar(20)" json:"work_center_code" toml:"work_center_code"`
	Instructions   string     `gorm:"column:instructions;type:text" json:"instructions" toml:"instructions"`
	IsCompleted    bool       `gorm:"column:is_completed;default:false" json:"is_completed" toml:"is_completed"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty" toml:"completed_at"`
}

// ManualStep is an operator-added step outside the routing.
type ManualStep struct {
	ID          int    `gorm:"column:id;primaryKey" json:"id" toml:"id"`
	TravelerID  int    `gorm:"column:traveler_id;index;not null" json:"traveler_id" toml:"traveler_id"`
	Description string `gorm:"column:description;type:text" json:"description" toml:"description"`
}

// ScanEvent is one recorded step scan.
type ScanEvent struct {
	ID              int        `gorm:"column:id;primaryKey" json:"id" toml:"id"`
	TravelerID      int        `gorm:"column:traveler_id;index;not null" json:"traveler_id" toml:"traveler_id"`
	StepID          int        `gorm:"column:step_id;index;not null" json:"step_id" toml:"step_id"`
	StepType        string     `gorm:"column:step_type;type:varchar(20);not null" json:"step_type" toml:"step_type"`
	JobNumber       string     `gorm:"column:job_number;type:varchar(50);index" json:"job_number" toml:"job_number"`
	WorkCenter      string     `gorm:"column:work_center;type:varchar(100)" json:"work_center" toml:"work_center"`
	Action          ScanAction `gorm:"column:scan_action;type:varchar(20);not null" json:"scan_action" toml:"scan_action"`
	ScannedAt       time.Time  `gorm:"column:scanned_at;index" json:"scanned_at" toml:"scanned_at"`
	ScannedBy       string     `gorm:"column:scanned_by;type:varchar(50)" json:"scanned_by,omitempty" toml:"scanned_by"`
	Notes           string     `gorm:"column:notes;type:text" json:"notes,omitempty" toml:"notes"`
	DurationMinutes *float64   `gorm:"column:duration_minutes" json:"duration_minutes" toml:"duration_minutes"`
}

func (Traveler) TableName() string    { return "travelers" }
func (ProcessStep) TableName() string { return "process_steps" }
func (ManualStep) TableName() string  { return "manual_steps" }
func (ScanEvent) TableName() string   { return "step_scan_events" }
