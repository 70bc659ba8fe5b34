package controlplane

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vleiria/ponto/internal/audit"
	"github.com/vleiria/ponto/internal/models"
	"github.com/vleiria/ponto/internal/store"
)

func TestScheduleOnEmptyStore(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	task := postSchedule(t, s, `{"hora":"14","minuto":"30","data_execucao":"2025-03-01"}`)

	if task.Status != models.StatusCreated {
		t.Errorf("Expected status criado, got %s", task.Status)
	}
	if task.CompletedOK {
		t.Error("Expected executou_sucesso false")
	}
	if task.Origin != "web" {
		t.Errorf("Expected origem web, got %s", task.Origin)
	}
	if task.Hour != "14" || task.Minute != "30" || task.ExecutionDate != "2025-03-01" {
		t.Errorf("Unexpected key: %s %s:%s", task.ExecutionDate, task.Hour, task.Minute)
	}
}

func TestScheduleResetsCompletion(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	postSchedule(t, s, `{"hora":"14","minuto":"30","data_execucao":"2025-03-01"}`)
	postConfirm(t, s, `{"status":"sucesso","msgsucesso":"done"}`)

	task := postSchedule(t, s, `{"hora":"14","minuto":"30","data_execucao":"2025-03-01"}`)
	if task.CompletedOK {
		t.Error("Re-scheduling the same key must clear executou_sucesso")
	}
	if task.Status != models.StatusCreated {
		t.Errorf("Expected status criado after re-schedule, got %s", task.Status)
	}
}

func TestScheduleRejectsUnknownStatus(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/agendar",
		strings.NewReader(`{"hora":"14","minuto":"30","data_execucao":"2025-03-01","status":"done"}`))
	w := httptest.NewRecorder()
	s.handleSchedule(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Result().StatusCode)
	}
}

func TestQuerySideEffect(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	created := postSchedule(t, s, `{"hora":"08","minuto":"00","data_execucao":"2025-03-01"}`)

	first := getQuery(t, s)
	if first.ID != created.ID {
		t.Errorf("Query returned wrong record: %s", first.ID)
	}
	if first.Status != models.StatusConsulted {
		t.Errorf("Expected consultado after query, got %s", first.Status)
	}

	// Repeated queries return the same identity and keep re-setting the
	// status.
	second := getQuery(t, s)
	if second.ID != first.ID {
		t.Error("Repeated query must return the same record")
	}
	if second.Status != models.StatusConsulted {
		t.Errorf("Expected consultado, got %s", second.Status)
	}
}

func TestQueryEmptyStore(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/consultar", nil)
	w := httptest.NewRecorder()
	s.handleQuery(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Result().StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body) != 0 {
		t.Errorf("Expected empty object, got %v", body)
	}
}

func TestConfirmSuccess(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	postSchedule(t, s, `{"hora":"14","minuto":"30","data_execucao":"2025-03-01"}`)
	resp := postConfirm(t, s, `{"status":"sucesso","msgsucesso":"01/03/2025 Sáb 08:01 12:00 13:00 17:05"}`)

	if resp.Status != "recebido" {
		t.Errorf("Expected recebido, got %s", resp.Status)
	}
	if resp.Task == nil {
		t.Fatal("Expected task in response")
	}
	if resp.Task.Status != models.StatusSuccess {
		t.Errorf("Expected sucesso, got %s", resp.Task.Status)
	}
	if !resp.Task.CompletedOK {
		t.Error("Expected executou_sucesso derived to true")
	}
	if resp.Task.SuccessMessage != "01/03/2025 Sáb 08:01 12:00 13:00 17:05" {
		t.Errorf("Message not stored verbatim: %q", resp.Task.SuccessMessage)
	}
}

func TestConfirmExplicitFlagOverride(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	postSchedule(t, s, `{"hora":"14","minuto":"30","data_execucao":"2025-03-01"}`)
	resp := postConfirm(t, s, `{"status":"falha","sucesso":true}`)

	if resp.Task == nil || !resp.Task.CompletedOK {
		t.Error("Explicit sucesso flag must win over derivation")
	}
}

func TestConfirmWithoutRecordIsNoOp(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	resp := postConfirm(t, s, `{"status":"falha","msgsucesso":"login failed or captcha"}`)
	if resp.Status != "recebido" {
		t.Errorf("Expected recebido, got %s", resp.Status)
	}
	if resp.Task != nil {
		t.Errorf("Expected no task, got %+v", resp.Task)
	}
}

func TestListRecent(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	postSchedule(t, s, `{"hora":"08","minuto":"00","data_execucao":"2025-03-01"}`)
	postSchedule(t, s, `{"hora":"09","minuto":"00","data_execucao":"2025-03-02"}`)
	postSchedule(t, s, `{"hora":"10","minuto":"00","data_execucao":"2025-03-03"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/listar-ultimas?limit=2", nil)
	w := httptest.NewRecorder()
	s.handleListRecent(w, req)

	var tasks []models.TaskRecord
	if err := json.NewDecoder(w.Result().Body).Decode(&tasks); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Hour != "10" {
		t.Errorf("Expected newest first, got hour %s", tasks[0].Hour)
	}
}

func TestHealthCheck(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/health-check", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Result().StatusCode)
	}
	var body map[string]string
	json.NewDecoder(w.Result().Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("Expected ok, got %s", body["status"])
	}
	if body["message"] == "" {
		t.Error("Expected timestamp message")
	}
}

func TestHealthCheckDBError(t *testing.T) {
	s, cleanup := newTestServer(t)
	cleanup() // close the store to simulate a DB error

	req := httptest.NewRequest(http.MethodGet, "/health-check", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Result().StatusCode)
	}
}

func TestAuditTrailRecordsLifecycle(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	postSchedule(t, s, `{"hora":"08","minuto":"01","data_execucao":"2025-03-01"}`)
	getQuery(t, s)
	postConfirm(t, s, `{"status":"sucesso"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/eventos", nil)
	w := httptest.NewRecorder()
	s.handleEvents(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("eventos returned %d", w.Result().StatusCode)
	}
	var events []models.AuditEvent
	if err := json.NewDecoder(w.Result().Body).Decode(&events); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 audit entries, got %d", len(events))
	}
	// Newest first.
	wantActions := []string{"confirmar-execucao", "consultar", "agendar"}
	for i, want := range wantActions {
		if events[i].Action != want {
			t.Errorf("Entry %d: expected action %s, got %s", i, want, events[i].Action)
		}
	}
	if events[0].TaskID == "" {
		t.Error("Confirmation entry should reference the task")
	}
}

// --- helpers ---

func newTestServer(t *testing.T) (*Server, func()) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	service := NewService(st, audit.NewTrail(st))
	server := NewServer(service, st, "127.0.0.1:0")
	return server, func() { st.Close() }
}

func postSchedule(t *testing.T, s *Server, body string) *models.TaskRecord {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/agendar", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleSchedule(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("agendar returned %d: %s", w.Result().StatusCode, w.Body.String())
	}
	var task models.TaskRecord
	if err := json.NewDecoder(w.Result().Body).Decode(&task); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return &task
}

func getQuery(t *testing.T, s *Server) *models.TaskRecord {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/consultar", nil)
	w := httptest.NewRecorder()
	s.handleQuery(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("consultar returned %d", w.Result().StatusCode)
	}
	var task models.TaskRecord
	if err := json.NewDecoder(w.Result().Body).Decode(&task); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return &task
}

func postConfirm(t *testing.T, s *Server, body string) *confirmResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/confirmar-execucao", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleConfirm(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("confirmar-execucao returned %d: %s", w.Result().StatusCode, w.Body.String())
	}
	var resp confirmResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return &resp
}
