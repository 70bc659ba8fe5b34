package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vleiria/ponto/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestCreateAndGetByKey(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateSchedule("2025-03-01", "14", "30", "web", models.StatusCreated, "")
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Status != models.StatusCreated {
		t.Errorf("Expected status criado, got %s", task.Status)
	}
	if task.CompletedOK {
		t.Error("New schedule must start with completed_ok false")
	}

	got, err := s.GetByKey("2025-03-01", "14", "30")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("GetByKey returned wrong record: %+v", got)
	}

	missing, err := s.GetByKey("2025-03-02", "14", "30")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for absent key")
	}
}

func TestResetScheduleClearsCompletion(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateSchedule("2025-03-01", "14", "30", "web", models.StatusCreated, "")

	// Mark the record as done, then re-arm it.
	task.Status = models.StatusSuccess
	task.CompletedOK = true
	task.SuccessMessage = "01/03/2025 Sáb 08:01"
	if err := s.SaveConfirmation(task); err != nil {
		t.Fatalf("SaveConfirmation failed: %v", err)
	}

	before, _ := s.getByID(task.ID)
	got, err := s.ResetSchedule(task.ID, models.StatusCreated, nil)
	if err != nil {
		t.Fatalf("ResetSchedule failed: %v", err)
	}
	if got.CompletedOK {
		t.Error("ResetSchedule must clear completed_ok")
	}
	if got.Status != models.StatusCreated {
		t.Errorf("Expected status criado, got %s", got.Status)
	}
	if !got.RequestedAt.After(before.RequestedAt) {
		t.Error("ResetSchedule must refresh requested_at")
	}
	if got.SuccessMessage != "01/03/2025 Sáb 08:01" {
		t.Error("Omitted message must be preserved on reset")
	}
}

func TestCurrentPicksMaxRequestedAt(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	first, _ := s.CreateSchedule("2025-03-01", "08", "00", "web", models.StatusCreated, "")
	second, _ := s.CreateSchedule("2025-03-02", "17", "30", "web", models.StatusCreated, "")

	// Backdate the second record: the first becomes current again even
	// though the second was inserted later.
	old := time.Now().UTC().Add(-24 * time.Hour)
	if _, err := s.db.Exec(`UPDATE tasks SET requested_at = ? WHERE id = ?`, old, second.ID); err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	cur, err := s.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur == nil || cur.ID != first.ID {
		t.Errorf("Expected current to be %s, got %+v", first.ID, cur)
	}
}

func TestCurrentEmptyStore(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	cur, err := s.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur != nil {
		t.Errorf("Expected nil on empty store, got %+v", cur)
	}
}

func TestListRecent(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for i, minute := range []string{"00", "10", "20"} {
		task, _ := s.CreateSchedule("2025-03-01", "08", minute, "web", models.StatusCreated, "")
		at := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		s.db.Exec(`UPDATE tasks SET requested_at = ? WHERE id = ?`, at, task.ID)
	}

	tasks, err := s.ListRecent(2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Minute != "20" || tasks[1].Minute != "10" {
		t.Errorf("Expected newest first, got %s then %s", tasks[0].Minute, tasks[1].Minute)
	}

	all, _ := s.ListRecent(0) // default limit
	if len(all) != 3 {
		t.Errorf("Expected 3 tasks with default limit, got %d", len(all))
	}
}

func TestUpdateStatusKeepsRequestedAt(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateSchedule("2025-03-01", "14", "30", "web", models.StatusCreated, "")

	if err := s.UpdateStatus(task.ID, models.StatusConsulted); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := s.getByID(task.ID)
	if got.Status != models.StatusConsulted {
		t.Errorf("Expected consultado, got %s", got.Status)
	}
	if !got.RequestedAt.Equal(task.RequestedAt) {
		t.Error("UpdateStatus must not touch requested_at")
	}
}

func TestSaveConfirmationKeepsRequestedAt(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateSchedule("2025-03-01", "14", "30", "web", models.StatusCreated, "")

	task.Status = models.StatusFailure
	task.SuccessMessage = "login failed or captcha"
	task.CompletedOK = false
	if err := s.SaveConfirmation(task); err != nil {
		t.Fatalf("SaveConfirmation failed: %v", err)
	}

	got, _ := s.getByID(task.ID)
	if got.Status != models.StatusFailure {
		t.Errorf("Expected falha, got %s", got.Status)
	}
	if got.SuccessMessage != "login failed or captcha" {
		t.Errorf("Unexpected message: %q", got.SuccessMessage)
	}
	if !got.RequestedAt.Equal(task.RequestedAt) {
		t.Error("SaveConfirmation must not touch requested_at")
	}
}

func TestWriteAndListEvents(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.WriteEvent("task-1", "agendar", "abc123", "created"); err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}
	if _, err := s.WriteEvent("task-1", "confirmar-execucao", "def456", "applied"); err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}

	events, err := s.ListEvents(10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	// Newest first.
	if events[0].Action != "confirmar-execucao" || events[1].Action != "agendar" {
		t.Errorf("Wrong order: %s, %s", events[0].Action, events[1].Action)
	}
	if events[0].TaskID != "task-1" || events[0].InputsHash != "def456" {
		t.Errorf("Unexpected event fields: %+v", events[0])
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}
