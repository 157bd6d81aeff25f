package fitcal

import (
	"fmt"

	"fitcal/internal/model"
)

// Service is the orchestration layer that coordinates the store, vault and
// encryptor to perform the high-level operations needed by the CLI. It is
// stateless between calls; the durable store is the only state.
type Service struct {
	store     Store
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a Service with the provided dependencies. vault and
// encryptor may be nil when backup commands are not in play (e.g. tests).
func NewService(store Store, vault Vault, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:     store,
		vault:     vault,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// AddActivity validates and persists a single activity. A missing id gets a
// fresh one; a missing source defaults to manual; a missing title falls back
// to the type's label. The stored record fully replaces any record with the
// same id.
func (s *Service) AddActivity(a *model.Activity) error {
	if err := validateActivity(a); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = s.idgen.New()
	}
	if a.Source == "" {
		a.Source = model.SourceManual
	}
	if a.Title == "" {
		a.Title = model.TypeLabel(a.Type)
	}

	if err := s.store.PutActivity(a); err != nil {
		return err
	}
	s.logger.Info("activity saved", "id", a.ID, "date", a.Date, "type", a.Type)
	return nil
}

// ActivitiesInRange returns activities whose date falls in the inclusive
// [start, end] window. start must not be after end; equal bounds return that
// single day's records.
func (s *Service) ActivitiesInRange(start, end string) ([]*model.Activity, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.store.ActivitiesByDateRange(start, end)
}

// AllActivities returns every stored activity.
func (s *Service) AllActivities() ([]*model.Activity, error) {
	return s.store.AllActivities()
}

// DeleteActivity removes an activity by id. Absent ids are a no-op.
func (s *Service) DeleteActivity(id string) error {
	if err := s.store.DeleteActivity(id); err != nil {
		return err
	}
	s.logger.Info("activity deleted", "id", id)
	return nil
}

// CountActivities returns the number of stored activities.
func (s *Service) CountActivities() (int64, error) {
	return s.store.CountActivities()
}

// AddBodyLog validates and persists a pain observation. A missing id gets a
// fresh one; CreatedAt is stamped from the clock if unset.
func (s *Service) AddBodyLog(e *model.BodyLogEntry) error {
	if !ValidDateKey(e.Date) {
		return &ValidationError{Reason: fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Date)}
	}
	if !model.ValidPainCategory(e.Category) {
		return &ValidationError{Reason: fmt.Sprintf("unknown pain category %q", e.Category)}
	}
	if e.Severity < 1 || e.Severity > 5 {
		return &ValidationError{Reason: fmt.Sprintf("severity %d out of range [1,5]", e.Severity)}
	}
	if e.ID == "" {
		e.ID = s.idgen.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.Now()
	}

	if err := s.store.PutBodyLog(e); err != nil {
		return err
	}
	s.logger.Info("body log saved", "id", e.ID, "date", e.Date, "category", e.Category)
	return nil
}

// BodyLogsInRange returns body log entries in the inclusive [start, end]
// window.
func (s *Service) BodyLogsInRange(start, end string) ([]*model.BodyLogEntry, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.store.BodyLogsByDateRange(start, end)
}

// DeleteBodyLog removes a body log entry by id. Absent ids are a no-op.
func (s *Service) DeleteBodyLog(id string) error {
	if err := s.store.DeleteBodyLog(id); err != nil {
		return err
	}
	s.logger.Info("body log deleted", "id", id)
	return nil
}

// CountBodyLogs returns the number of stored body log entries.
func (s *Service) CountBodyLogs() (int64, error) {
	return s.store.CountBodyLogs()
}

// ClearAll removes every activity and body log entry in one transaction.
func (s *Service) ClearAll() error {
	if err := s.store.ReplaceAll(nil, nil); err != nil {
		return err
	}
	s.logger.Info("store cleared")
	return nil
}

func validateActivity(a *model.Activity) error {
	if !model.ValidActivityType(a.Type) {
		return &ValidationError{Reason: fmt.Sprintf("unknown activity type %q", a.Type)}
	}
	if !ValidDateKey(a.Date) {
		return &ValidationError{Reason: fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", a.Date)}
	}
	if a.DurationMinutes <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("duration must be positive, got %v", a.DurationMinutes)}
	}
	return nil
}

func validateRange(start, end string) error {
	if !ValidDateKey(start) {
		return &ValidationError{Reason: fmt.Sprintf("invalid range start %q", start)}
	}
	if !ValidDateKey(end) {
		return &ValidationError{Reason: fmt.Sprintf("invalid range end %q", end)}
	}
	if start > end {
		return &ValidationError{Reason: fmt.Sprintf("range start %s is after end %s", start, end)}
	}
	return nil
}
