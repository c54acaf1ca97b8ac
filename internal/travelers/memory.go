package travelers

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	travelers map[int]Traveler
	process   map[int]ProcessStep
	manual    map[int]ManualStep
	scans     []ScanEvent
	nextID    int
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		travelers: make(map[int]Traveler),
		process:   make(map[int]ProcessStep),
		manual:    make(map[int]ManualStep),
		now:       time.Now,
	}
}

func (s *MemoryStore) Traveler(_ context.Context, id int) (Traveler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.travelers[id]
	if !ok {
		return Traveler{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ProcessStep(_ context.Context, id int) (ProcessStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	step, ok := s.process[id]
	if !ok {
		return ProcessStep{}, ErrNotFound
	}
	return step, nil
}

func (s *MemoryStore) ManualStep(_ context.Context, id int) (ManualStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	step, ok := s.manual[id]
	if !ok {
		return ManualStep{}, ErrNotFound
	}
	return step, nil
}

func (s *MemoryStore) ProcessSteps(_ context.Context, travelerID int) ([]ProcessStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ProcessStep, 0)
	for _, step := range s.process {
		if step.TravelerID == travelerID {
			out = append(out, step)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StepNumber != out[j].StepNumber {
			return out[i].StepNumber < out[j].StepNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ManualSteps(_ context.Context, travelerID int) ([]ManualStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ManualStep, 0)
	for _, step := range s.manual {
		if step.TravelerID == travelerID {
			out = append(out, step)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) PutTraveler(_ context.Context, t *Traveler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.allocID()
	}
	s.reserveID(t.ID)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Status == "" {
		t.Status = StatusCreated
	}
	s.travelers[t.ID] = *t
	return nil
}

func (s *MemoryStore) PutProcessStep(_ context.Context, step *ProcessStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.travelers[step.TravelerID]; !ok {
		return ErrNotFound
	}
	if step.ID == 0 {
		step.ID = s.allocID()
	}
	s.reserveID(step.ID)
	s.process[step.ID] = *step
	return nil
}

func (s *MemoryStore) PutManualStep(_ context.Context, step *ManualStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.travelers[step.TravelerID]; !ok {
		return ErrNotFound
	}
	if step.ID == 0 {
		step.ID = s.allocID()
	}
	s.reserveID(step.ID)
	s.manual[step.ID] = *step
	return nil
}

func (s *MemoryStore) RecordScan(_ context.Context, e *ScanEvent) error {
	if err := validateScan(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.allocID()
	if e.ScannedAt.IsZero() {
		e.ScannedAt = s.now()
	}
	s.scans = append(s.scans, *e)
	return nil
}

func (s *MemoryStore) LastScan(_ context.Context, f ScanFilter) (ScanEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		last  ScanEvent
		found bool
	)
	for _, e := range s.scans {
		if !f.matches(e) {
			continue
		}
		if !found || !e.ScannedAt.Before(last.ScannedAt) {
			last = e
			found = true
		}
	}
	return last, found, nil
}

func (s *MemoryStore) ScanEvents(_ context.Context, f ScanFilter) ([]ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ScanEvent, 0)
	for _, e := range s.scans {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScannedAt.Before(out[j].ScannedAt) })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// allocID hands out ids from one sequence shared by all record kinds. Callers
// hold s.mu.
func (s *MemoryStore) allocID() int {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) reserveID(id int) {
	if id > s.nextID {
		s.nextID = id
	}
}
