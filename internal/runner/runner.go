// Package runner drives the attendance portal through a headless browser,
// registering the clock-in and reporting the outcome to the backend.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vleiria/ponto/internal/browser"
	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/config"
	"github.com/vleiria/ponto/internal/models"
	"github.com/vleiria/ponto/internal/vision"
)

// XPath selectors for the attendance portal. The login form is Angular,
// hence the formcontrolname fallbacks.
var selectors = map[string]string{
	"captcha_img":   "//img[contains(@src, 'data:image')]",
	"input_user":    "//input[contains(@formcontrolname, 'username') or contains(@placeholder, 'Usuário')]",
	"input_pass":    "//input[@type='password']",
	"input_captcha": "//input[contains(@formcontrolname, 'captcha') or contains(@placeholder, '(Captcha)')]",
	"btn_login":     "//button[normalize-space()='ACESSAR']",
	"menu_freq":     "//a[@href='#/frequencia-ponto']",
	"submenu_reg":   "//a[@href='#/frequencia-ponto/registrar-ponto']",
	"btn_register":  "//button[contains(@class, 'btn-success') and contains(., 'Registrar Frequência')]",
	"table_rows":    "//table[contains(@class, 'table')]//tbody/tr",
}

const (
	// waitTimeout bounds waits for page elements during the flow.
	waitTimeout = 60 * time.Second
	// loginCheckTimeout is the short wait used to detect a saved session.
	loginCheckTimeout = 10 * time.Second
	// retryBackoff is the pause between failed attempts.
	retryBackoff = 60 * time.Second
)

var timePattern = regexp.MustCompile(`\b\d{2}:\d{2}\b`)

// Reporter reports execution outcomes to the backend. *client.Client
// satisfies it.
type Reporter interface {
	ConfirmarExecucao(status *models.TaskStatus, message *string, success *bool) (*client.ConfirmResponse, error)
}

// Runner executes the clock-in flow with retries.
type Runner struct {
	cfg       *config.Config
	newDriver browser.Factory
	solver    vision.Solver // nil disables CAPTCHA solving
	reporter  Reporter

	sleep  func(time.Duration)
	now    func() time.Time
	logDir string
}

// New returns a Runner. solver may be nil, in which case login is attempted
// without filling the CAPTCHA field.
func New(cfg *config.Config, newDriver browser.Factory, solver vision.Solver, reporter Reporter) *Runner {
	return &Runner{
		cfg:       cfg,
		newDriver: newDriver,
		solver:    solver,
		reporter:  reporter,
		sleep:     time.Sleep,
		now:       time.Now,
		logDir:    "log",
	}
}

// Run performs the full flow: it reports "executando", then tries the
// clock-in up to the configured number of attempts with a fixed pause
// between them. When every attempt fails it reports a definitive failure.
func (r *Runner) Run(ctx context.Context) {
	r.report(models.StatusExecuting, nil, nil)

	attempts := r.cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		log.Printf("starting attempt %d/%d", attempt, attempts)
		if r.runOnce(ctx) {
			log.Printf("flow completed on attempt %d", attempt)
			return
		}
		if attempt < attempts {
			log.Printf("attempt %d failed, waiting before retry", attempt)
			r.sleep(retryBackoff)
		}
	}

	log.Printf("all %d attempts failed, reporting definitive failure", attempts)
	r.reportFailure("all attempts failed")
}

// runOnce executes the whole flow once. It returns true when the flow
// completed, even if no attendance row was found for today; false means a
// failure that warrants a retry.
func (r *Runner) runOnce(ctx context.Context) bool {
	drv, err := r.newDriver(browser.Options{
		Headless:   r.cfg.Headless,
		ProfileDir: r.cfg.ProfilePath,
	})
	if err != nil {
		log.Printf("error starting webdriver: %v", err)
		r.reportFailure("error starting webdriver")
		return false
	}
	defer drv.Close()

	log.Printf("opening %s", r.cfg.SiteURL)
	if err := drv.Navigate(r.cfg.SiteURL); err != nil {
		return r.fatal(drv, err)
	}

	// A saved browser profile may still hold a session; probe for the
	// menu before going through the login form.
	if err := drv.WaitFor(selectors["menu_freq"], loginCheckTimeout); err != nil {
		log.Printf("no active session, logging in")
		if err := r.login(ctx, drv); err != nil {
			log.Printf("login failed: %v", err)
			r.snapshot(drv, "xx_login_error")
			r.reportFailure("login failed or captcha")
			return false
		}
	} else {
		log.Printf("session still active, skipping login")
	}

	if err := r.openRegisterPage(drv); err != nil {
		return r.fatal(drv, err)
	}

	log.Printf("clicking the register button")
	if err := drv.Click(selectors["btn_register"]); err != nil {
		return r.fatal(drv, err)
	}
	r.sleep(5 * time.Second)
	r.snapshot(drv, "04_result")

	status := models.StatusSuccess
	line, err := r.todayLine(drv)
	if err != nil {
		log.Printf("error extracting today's row: %v", err)
		status = models.StatusFailure
		line = err.Error()
	} else {
		r.writeTodayLine(line)
	}

	ok := status == models.StatusSuccess
	var msg *string
	if line != "" {
		msg = &line
	}
	r.report(status, msg, &ok)
	return true
}

func (r *Runner) login(ctx context.Context, drv browser.Driver) error {
	code := r.solveCaptcha(ctx, drv)

	if err := drv.WaitFor(selectors["input_user"], waitTimeout); err != nil {
		return fmt.Errorf("login form not found: %w", err)
	}
	if err := drv.Fill(selectors["input_user"], r.cfg.Username); err != nil {
		return err
	}
	if err := drv.Fill(selectors["input_pass"], r.cfg.Password); err != nil {
		return err
	}
	if code != "" {
		if err := drv.Fill(selectors["input_captcha"], code); err != nil {
			return err
		}
	} else {
		log.Printf("attempting login without CAPTCHA")
	}

	r.snapshot(drv, "01_pre_login")
	if err := drv.Click(selectors["btn_login"]); err != nil {
		return err
	}

	// The portal is an Angular app; give it a moment before probing.
	r.sleep(5 * time.Second)
	r.snapshot(drv, "02_post_login")

	if err := drv.WaitFor(selectors["menu_freq"], waitTimeout); err != nil {
		return fmt.Errorf("menu not found after login: %w", err)
	}
	log.Printf("login confirmed")
	return nil
}

// solveCaptcha is best effort: any failure returns an empty string and the
// login proceeds without the CAPTCHA field.
func (r *Runner) solveCaptcha(ctx context.Context, drv browser.Driver) string {
	if r.solver == nil {
		log.Printf("no CAPTCHA solver configured, skipping")
		return ""
	}

	if err := drv.WaitFor(selectors["captcha_img"], waitTimeout); err != nil {
		log.Printf("CAPTCHA image not found: %v", err)
		return ""
	}
	src, ok, err := drv.Attr(selectors["captcha_img"], "src")
	if err != nil || !ok {
		log.Printf("could not read CAPTCHA image source")
		return ""
	}

	image, err := captchaImage(src)
	if err != nil {
		log.Printf("could not fetch CAPTCHA image: %v", err)
		return ""
	}

	code, err := r.solver.Solve(ctx, image)
	if err != nil {
		log.Printf("CAPTCHA solver failed: %v", err)
		return ""
	}
	log.Printf("CAPTCHA solved: %s", code)
	return code
}

func (r *Runner) openRegisterPage(drv browser.Driver) error {
	if err := drv.WaitFor(selectors["menu_freq"], waitTimeout); err != nil {
		return err
	}
	if err := drv.Click(selectors["menu_freq"]); err != nil {
		return err
	}
	r.sleep(2 * time.Second)

	if err := drv.WaitFor(selectors["submenu_reg"], waitTimeout); err != nil {
		return err
	}
	if err := drv.Click(selectors["submenu_reg"]); err != nil {
		return err
	}
	r.sleep(3 * time.Second)
	r.snapshot(drv, "03_register_page")
	return nil
}

// todayLine navigates back to the attendance table and formats today's row
// as "DD/MM/YYYY day HH:MM [HH:MM ...]". An empty string means no row for
// today, which is not an error.
func (r *Runner) todayLine(drv browser.Driver) (string, error) {
	if err := drv.Click(selectors["menu_freq"]); err != nil {
		return "", err
	}
	r.sleep(10 * time.Second)

	rows, err := drv.TableRows(selectors["table_rows"])
	if err != nil {
		return "", err
	}

	today := r.now().Format("02/01/2006")
	for _, cells := range rows {
		if len(cells) < 3 {
			continue
		}
		date := strings.TrimSpace(cells[0])
		if date != today {
			continue
		}
		line := date + " " + strings.TrimSpace(cells[1])
		if times := timePattern.FindAllString(cells[2], -1); len(times) > 0 {
			line += " " + strings.Join(times, " ")
		}
		return line, nil
	}

	log.Printf("no attendance row found for %s", today)
	return "", nil
}

// fatal reports an unexpected failure and signals a retry.
func (r *Runner) fatal(drv browser.Driver, err error) bool {
	log.Printf("fatal error during execution: %v", err)
	r.snapshot(drv, "xx_fatal")
	r.reportFailure(err.Error())
	return false
}

func (r *Runner) report(status models.TaskStatus, message *string, success *bool) {
	if _, err := r.reporter.ConfirmarExecucao(&status, message, success); err != nil {
		log.Printf("could not report status %s: %v", status, err)
		return
	}
	log.Printf("status reported: %s", status)
}

func (r *Runner) reportFailure(message string) {
	ok := false
	r.report(models.StatusFailure, &message, &ok)
}

// snapshot saves a screenshot for later review. Errors are logged only;
// screenshots are diagnostics, never part of the flow.
func (r *Runner) snapshot(drv browser.Driver, name string) {
	buf, err := drv.Screenshot()
	if err != nil {
		log.Printf("could not take screenshot %s: %v", name, err)
		return
	}
	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		return
	}
	path := filepath.Join(r.logDir, "debug_"+name+".png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		log.Printf("could not save screenshot %s: %v", path, err)
	}
}

func (r *Runner) writeTodayLine(line string) {
	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		return
	}
	path := filepath.Join(r.logDir, "linha_hoje_ponto.txt")
	if err := os.WriteFile(path, []byte(line+"\n"), 0o644); err != nil {
		log.Printf("could not write today's row to %s: %v", path, err)
	}
}
