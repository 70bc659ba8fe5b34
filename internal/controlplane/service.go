// Package controlplane provides the HTTP API and service layer for ponto.
package controlplane

import (
	"log"

	"github.com/vleiria/ponto/internal/audit"
	"github.com/vleiria/ponto/internal/models"
	"github.com/vleiria/ponto/internal/store"
)

// Service provides the scheduling business logic on top of the store. All
// operations act on the single current record (max requested_at); there is
// deliberately no task identifier in the contract. Concurrent confirmations
// race read-modify-write and the last commit wins.
type Service struct {
	store *store.Store
	trail *audit.Trail
}

// NewService creates a new control plane service. trail may be nil, which
// disables the audit trail.
func NewService(s *store.Store, trail *audit.Trail) *Service {
	return &Service{store: s, trail: trail}
}

func (s *Service) record(action string, inputs interface{}, taskID, details string) {
	if s.trail == nil {
		return
	}
	s.trail.Record(action, inputs, taskID, details)
}

// Schedule creates or re-arms the task for (executionDate, hour, minute).
// A fresh schedule always clears completed_ok and refreshes requested_at,
// superseding any prior completion state for that key.
func (s *Service) Schedule(hour, minute, executionDate string, status *models.TaskStatus, message *string) (*models.TaskRecord, error) {
	st := models.StatusCreated
	if status != nil {
		st = *status
	}

	existing, err := s.store.GetByKey(executionDate, hour, minute)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		msg := ""
		if message != nil {
			msg = *message
		}
		task, err := s.store.CreateSchedule(executionDate, hour, minute, "web", st, msg)
		if err != nil {
			return nil, err
		}
		log.Printf("Schedule created for %s %s:%s (status %s)", executionDate, hour, minute, st)
		s.record("agendar", task, task.ID, "created")
		return task, nil
	}

	task, err := s.store.ResetSchedule(existing.ID, st, message)
	if err != nil {
		return nil, err
	}
	log.Printf("Schedule re-armed for %s %s:%s (status %s)", executionDate, hour, minute, st)
	s.record("agendar", task, task.ID, "re-armed")
	return task, nil
}

// Query returns the current record, or nil when none exists. Querying is not
// idempotent with respect to status: the returned record is flipped to
// consultado so the backend knows a runner has seen it.
func (s *Service) Query() (*models.TaskRecord, error) {
	task, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}
	if err := s.store.UpdateStatus(task.ID, models.StatusConsulted); err != nil {
		return nil, err
	}
	task.Status = models.StatusConsulted
	s.record("consultar", task.ID, task.ID, "status flipped to consultado")
	return task, nil
}

// ConfirmExecution applies a status update to the current record. When no
// record exists the confirmation is acknowledged and dropped.
func (s *Service) ConfirmExecution(u models.StatusUpdate) (*models.TaskRecord, error) {
	task, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	if task == nil {
		s.record("confirmar-execucao", u, "", "no current record, dropped")
		return nil, nil
	}
	task.Apply(u)
	if err := s.store.SaveConfirmation(task); err != nil {
		return nil, err
	}
	s.record("confirmar-execucao", u, task.ID, "applied, now "+string(task.Status))
	return task, nil
}

// ListRecent returns the most recently requested tasks, newest first.
func (s *Service) ListRecent(limit int) ([]models.TaskRecord, error) {
	return s.store.ListRecent(limit)
}

// ListEvents returns the most recent audit entries, newest first.
func (s *Service) ListEvents(limit int) ([]models.AuditEvent, error) {
	return s.store.ListEvents(limit)
}
