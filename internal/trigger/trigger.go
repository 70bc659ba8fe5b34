// Package trigger is the thin morning client: it checks whether today has a
// pending schedule and, when it does, queues the runner through at(1).
package trigger

import (
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/models"
)

// API is the subset of the backend client the trigger needs.
type API interface {
	Consultar() (*models.TaskRecord, error)
	Agendar(hour, minute, executionDate string, status *models.TaskStatus, message *string) (*models.TaskRecord, error)
	ConfirmarExecucao(status *models.TaskStatus, message *string, success *bool) (*client.ConfirmResponse, error)
}

// Scheduler queues the runner for a given time of day.
type Scheduler interface {
	Enqueue(hour, minute int) error
}

// AtScheduler queues the runner script through at(1).
type AtScheduler struct {
	ScriptPath string
}

// Enqueue pipes the script path into at for today at HH:MM.
func (a *AtScheduler) Enqueue(hour, minute int) error {
	if a.ScriptPath == "" {
		return fmt.Errorf("SCRIPT_PONTO is not set")
	}

	command := fmt.Sprintf("echo %q | at %02d:%02d", a.ScriptPath, hour, minute)
	log.Printf("running: %s", command)

	// at prints its confirmation on stderr, so take both streams.
	out, err := exec.Command("sh", "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("at rejected the job: %s", strings.TrimSpace(string(out)))
	}
	log.Printf("job accepted by at: %s", strings.TrimSpace(string(out)))
	return nil
}

// ValidateClockTime checks that hour and minute are numeric and that the
// resulting timestamp is strictly in the future.
func ValidateClockTime(now time.Time, date, hour, minute string) error {
	h, errH := strconv.Atoi(hour)
	m, errM := strconv.Atoi(minute)
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return fmt.Errorf("invalid time data: %s:%s", hour, minute)
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %02d:%02d", date, h, m), now.Location())
	if err != nil {
		return fmt.Errorf("invalid time data: %v", err)
	}
	if !at.After(now) {
		return fmt.Errorf("time already passed (%s)", at.Format("2006-01-02T15:04:05"))
	}
	return nil
}

// Trigger decides each morning whether today's clock-in should be queued.
type Trigger struct {
	api       API
	scheduler Scheduler
	now       func() time.Time
}

// New returns a Trigger using the real clock.
func New(api API, scheduler Scheduler) *Trigger {
	return &Trigger{api: api, scheduler: scheduler, now: time.Now}
}

// Run consults the backend and queues the runner when today has a pending
// schedule. Skips are silent; validation and queueing failures are reported
// to the backend as "falha".
func (t *Trigger) Run() error {
	task, err := t.api.Consultar()
	if err != nil {
		return fmt.Errorf("could not fetch schedule: %w", err)
	}
	if task == nil {
		log.Printf("no schedule configured")
		return nil
	}

	today := t.now().Format("2006-01-02")
	log.Printf("scheduled: %s | today: %s | done: %v", task.ExecutionDate, today, task.CompletedOK)

	if task.ExecutionDate != today || task.CompletedOK {
		log.Printf("nothing to queue today")
		return nil
	}

	if err := ValidateClockTime(t.now(), task.ExecutionDate, task.Hour, task.Minute); err != nil {
		log.Printf("validation failed: %v", err)
		t.confirm(models.StatusFailure, err.Error())
		return nil
	}

	// Reset the record so the runner's confirmation lands on a fresh cycle.
	status := models.StatusCreated
	if _, err := t.api.Agendar(task.Hour, task.Minute, task.ExecutionDate, &status, nil); err != nil {
		log.Printf("could not reset schedule: %v", err)
	}

	h, _ := strconv.Atoi(task.Hour)
	m, _ := strconv.Atoi(task.Minute)
	if err := t.scheduler.Enqueue(h, m); err != nil {
		log.Printf("queueing failed: %v", err)
		t.confirm(models.StatusFailure, "error scheduling via at")
		return err
	}

	t.confirm(models.StatusScheduled, "scheduled via at")
	return nil
}

func (t *Trigger) confirm(status models.TaskStatus, message string) {
	if _, err := t.api.ConfirmarExecucao(&status, &message, nil); err != nil {
		log.Printf("could not report status %s: %v", status, err)
	}
}
