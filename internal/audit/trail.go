// Package audit records every state-mutating operation of the schedule
// lifecycle for later review.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/vleiria/ponto/internal/models"
	"github.com/vleiria/ponto/internal/store"
)

// Trail writes audit entries for schedule mutations. Writing is best effort;
// the lifecycle never fails because the trail could not be written.
type Trail struct {
	store *store.Store
}

// NewTrail creates a Trail backed by the given store.
func NewTrail(s *store.Store) *Trail {
	return &Trail{store: s}
}

// Record appends one entry. inputs is hashed so the trail stays compact
// while remaining comparable across runs.
func (t *Trail) Record(action string, inputs interface{}, taskID, details string) *models.AuditEvent {
	event, err := t.store.WriteEvent(taskID, action, hashInputs(inputs), details)
	if err != nil {
		log.Printf("could not write audit entry for %s: %v", action, err)
		return nil
	}
	return event
}

func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
