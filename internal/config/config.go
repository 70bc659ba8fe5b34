// Package config loads environment-derived settings for the ponto clients.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all client-side configuration. It is loaded once and passed
// to the runner and trigger at construction.
type Config struct {
	APIURL      string // base URL of the ponto backend
	SiteURL     string // attendance portal URL
	Username    string
	Password    string
	VisionKey   string // Gemini API key for CAPTCHA solving; optional
	ProfilePath string // browser profile directory; optional
	Headless    bool
	Attempts    int    // full-flow retry attempts
	ScriptPath  string // script piped into at(1) by the trigger client
}

// Load reads configuration from the environment, honoring a .env file when
// present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIURL:      getEnv("URL_API", ""),
		SiteURL:     getEnv("URL_SITE", ""),
		Username:    getEnv("PONTO_USER", ""),
		Password:    getEnv("PONTO_PASS", ""),
		VisionKey:   getEnv("GOOGLE_API_KEY", ""),
		ProfilePath: getEnv("BROWSER_PROFILE_PATH", ""),
		Headless:    getEnv("HEADLESS", "1") != "0",
		Attempts:    getEnvInt("REGISTER_ATTEMPTS", 2),
		ScriptPath:  getEnv("SCRIPT_PONTO", ""),
	}
}

// RequireAPIURL returns an error when the backend URL is absent. Callers
// treat this as a hard stop before any network call.
func (c *Config) RequireAPIURL() error {
	if c.APIURL == "" {
		return fmt.Errorf("URL_API is not set (e.g. export URL_API=http://127.0.0.1:8000)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
