package travelers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// GormStore persists records through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// OpenGorm connects with the named driver, retrying transient connect
// failures, and migrates the schema.
func OpenGorm(driver, dsn string, attempts int) (*GormStore, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("travelers: unsupported driver %q", driver)
	}
	if attempts < 1 {
		attempts = 1
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			break
		}
		log.Warn().Str("driver", driver).Int("attempt", i+1).Err(err).Msg("store connect failed")
		if i+1 < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("travelers: connect %s: %w", driver, err)
	}
	store := &GormStore{db: db}
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	log.Info().Str("driver", driver).Msg("store connected")
	return store, nil
}

// NewGormStore wraps an existing handle. The schema is not migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Traveler{}, &ProcessStep{}, &ManualStep{}, &ScanEvent{}); err != nil {
		return fmt.Errorf("travelers: migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Traveler(ctx context.Context, id int) (Traveler, error) {
	var t Traveler
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return Traveler{}, translate(err)
	}
	return t, nil
}

func (s *GormStore) ProcessStep(ctx context.Context, id int) (ProcessStep, error) {
	var step ProcessStep
	if err := s.db.WithContext(ctx).First(&step, id).Error; err != nil {
		return ProcessStep{}, translate(err)
	}
	return step, nil
}

func (s *GormStore) ManualStep(ctx context.Context, id int) (ManualStep, error) {
	var step ManualStep
	if err := s.db.WithContext(ctx).First(&step, id).Error; err != nil {
		return ManualStep{}, translate(err)
	}
	return step, nil
}

func (s *GormStore) ProcessSteps(ctx context.Context, travelerID int) ([]ProcessStep, error) {
	var steps []ProcessStep
	err := s.db.WithContext(ctx).
		Where("traveler_id = ?", travelerID).
		Order("step_number, id").
		Find(&steps).Error
	if err != nil {
		return nil, translate(err)
	}
	return steps, nil
}

func (s *GormStore) ManualSteps(ctx context.Context, travelerID int) ([]ManualStep, error) {
	var steps []ManualStep
	err := s.db.WithContext(ctx).
		Where("traveler_id = ?", travelerID).
		Order("id").
		Find(&steps).Error
	if err != nil {
		return nil, translate(err)
	}
	return steps, nil
}

func (s *GormStore) PutTraveler(ctx context.Context, t *Traveler) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = StatusCreated
	}
	return translate(s.db.WithContext(ctx).Save(t).Error)
}

func (s *GormStore) PutProcessStep(ctx context.Context, step *ProcessStep) error {
	if _, err := s.Traveler(ctx, step.TravelerID); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Save(step).Error)
}

func (s *GormStore) PutManualStep(ctx context.Context, step *ManualStep) error {
	if _, err := s.Traveler(ctx, step.TravelerID); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Save(step).Error)
}

func (s *GormStore) RecordScan(ctx context.Context, e *ScanEvent) error {
	if err := validateScan(e); err != nil {
		return err
	}
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now()
	}
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *GormStore) LastScan(ctx context.Context, f ScanFilter) (ScanEvent, bool, error) {
	var e ScanEvent
	err := s.scanQuery(ctx, f).Order("scanned_at DESC, id DESC").First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ScanEvent{}, false, nil
	}
	if err != nil {
		return ScanEvent{}, false, err
	}
	return e, true, nil
}

func (s *GormStore) ScanEvents(ctx context.Context, f ScanFilter) ([]ScanEvent, error) {
	var events []ScanEvent
	if err := s.scanQuery(ctx, f).Order("scanned_at, id").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) scanQuery(ctx context.Context, f ScanFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&ScanEvent{})
	if f.TravelerID != 0 {
		q = q.Where("traveler_id = ?", f.TravelerID)
	}
	if f.StepID != 0 {
		q = q.Where("step_id = ?", f.StepID)
	}
	if f.StepType != "" {
		q = q.Where("step_type = ?", f.StepType)
	}
	if f.Action != "" {
		q = q.Where("scan_action = ?", f.Action)
	}
	return q
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
