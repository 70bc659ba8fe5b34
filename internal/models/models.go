// Package models defines the core domain types for ponto.
package models

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of a scheduled punch task.
type TaskStatus string

const (
	StatusCreated   TaskStatus = "criado"
	StatusConsulted TaskStatus = "consultado"
	StatusScheduled TaskStatus = "agendado"
	StatusExecuting TaskStatus = "executando"
	StatusSuccess   TaskStatus = "sucesso"
	StatusFailure   TaskStatus = "falha"
)

// ParseStatus validates an incoming status string against the closed
// vocabulary. Unknown values are a validation error.
func ParseStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case StatusCreated, StatusConsulted, StatusScheduled, StatusExecuting, StatusSuccess, StatusFailure:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// TaskRecord represents one scheduled attendance-registration request.
// The logical identity is the (ExecutionDate, Hour, Minute) triple; the
// record with the greatest RequestedAt is the current one.
type TaskRecord struct {
	ID             string     `json:"id"`
	Origin         string     `json:"origem"`
	ExecutionDate  string     `json:"data_para_execucao"` // YYYY-MM-DD
	Hour           string     `json:"hora"`               // zero-padded "HH"
	Minute         string     `json:"minuto"`             // zero-padded "MM"
	Status         TaskStatus `json:"status"`
	SuccessMessage string     `json:"msgsucesso"`
	CompletedOK    bool       `json:"executou_sucesso"`
	RequestedAt    time.Time  `json:"data_pedido"`
}

// AuditEvent is one entry in the append-only trail of state-mutating
// operations.
type AuditEvent struct {
	ID         int64     `json:"id"`
	TaskID     string    `json:"task_id,omitempty"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusUpdate carries an incoming confirmation. Nil fields were omitted by
// the caller; an explicit empty SuccessMessage is distinct from omission.
type StatusUpdate struct {
	Status         *TaskStatus
	SuccessMessage *string
	CompletedOK    *bool
}

// Apply mutates the record according to the update. Any status may follow any
// other: the runner is the sole writer and already encodes the sequence.
// CompletedOK, when omitted, is derived from the status (sucesso sets it,
// falha clears it, anything else leaves it alone). RequestedAt is never
// touched here, so a confirmation does not change which record is current.
func (r *TaskRecord) Apply(u StatusUpdate) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.SuccessMessage != nil {
		r.SuccessMessage = *u.SuccessMessage
	}
	if u.CompletedOK != nil {
		r.CompletedOK = *u.CompletedOK
		return
	}
	if u.Status != nil {
		switch *u.Status {
		case StatusSuccess:
			r.CompletedOK = true
		case StatusFailure:
			r.CompletedOK = false
		}
	}
}
