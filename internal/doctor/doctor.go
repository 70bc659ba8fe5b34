// Package doctor checks that the host has everything the trigger and the
// runner need before the first scheduled morning fails silently.
package doctor

import (
	"os/exec"
	"strings"

	"github.com/vleiria/ponto/internal/config"
)

// Check is the result of one environment probe.
type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Doctor probes the host environment.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor for the given configuration.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Scan runs every probe and returns the results in a stable order.
func (d *Doctor) Scan() []Check {
	checks := []Check{
		d.checkBinary("at", "at", "-V"),
		d.checkBinary("sh", "sh", ""),
		d.checkBrowser(),
	}
	checks = append(checks, d.checkEnv()...)
	return checks
}

func (d *Doctor) checkBinary(name, bin, versionFlag string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: name, OK: false, Detail: bin + " not found in PATH"}
	}
	c := Check{Name: name, OK: true, Path: path}
	if versionFlag != "" {
		c.Version = commandVersion(path, versionFlag)
	}
	return c
}

// checkBrowser accepts any of the Chromium family binaries chromedp can
// drive.
func (d *Doctor) checkBrowser() Check {
	for _, bin := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if path, err := exec.LookPath(bin); err == nil {
			return Check{
				Name:    "browser",
				OK:      true,
				Path:    path,
				Version: commandVersion(path, "--version"),
			}
		}
	}
	return Check{Name: "browser", OK: false, Detail: "no Chromium or Chrome binary in PATH"}
}

func (d *Doctor) checkEnv() []Check {
	vars := []struct {
		name     string
		value    string
		required bool
		detail   string
	}{
		{"URL_API", d.cfg.APIURL, true, "backend address, required by every client"},
		{"URL_SITE", d.cfg.SiteURL, true, "attendance portal, required by the runner"},
		{"PONTO_USER", d.cfg.Username, true, "portal login, required by the runner"},
		{"PONTO_PASS", d.cfg.Password, true, "portal password, required by the runner"},
		{"SCRIPT_PONTO", d.cfg.ScriptPath, true, "script queued by the trigger"},
		{"GOOGLE_API_KEY", d.cfg.VisionKey, false, "optional, enables CAPTCHA solving"},
	}

	var checks []Check
	for _, v := range vars {
		c := Check{Name: v.name, OK: v.value != ""}
		if !c.OK {
			c.Detail = "not set: " + v.detail
			if !v.required {
				c.OK = true
				c.Detail = "not set (" + v.detail + ")"
			}
		}
		checks = append(checks, c)
	}
	return checks
}

func commandVersion(cmd string, flag string) string {
	out, err := exec.Command(cmd, flag).CombinedOutput()
	if err != nil {
		return ""
	}
	version := strings.TrimSpace(string(out))
	// Take first line only
	if idx := strings.Index(version, "\n"); idx > 0 {
		version = version[:idx]
	}
	// Limit length
	if len(version) > 40 {
		version = version[:40]
	}
	return version
}
