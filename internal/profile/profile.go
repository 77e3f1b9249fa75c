package profile

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol). All providers
	// (openai, deepseek, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, ollama
	LLMAPIKey   string // LLM API key
	LLMBaseURL  string // LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 60)

	// Maximum concurrent extraction calls across all sessions.
	MaxConcurrentExtractions int

	// Google Calendar configuration.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenFile    string
	GoogleCalendarID   string

	// Dialogue configuration.
	Timezone          string // IANA timezone for resolving relative dates
	SessionTTLMinutes int    // Idle minutes before a session is evicted

	// Server configuration.
	Mode    string
	Addr    string
	Port    int
	Version string

	loc *time.Location
}

// Provider default configurations for the LLM.
// Used when SCHEDSENSE_LLM_BASE_URL or SCHEDSENSE_LLM_MODEL is not set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// SessionTTL returns the idle eviction window as a duration.
func (p *Profile) SessionTTL() time.Duration {
	return time.Duration(p.SessionTTLMinutes) * time.Minute
}

// Location returns the configured timezone. Validate must have run first.
func (p *Profile) Location() *time.Location {
	if p.loc == nil {
		return time.Local
	}
	return p.loc
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("SCHEDSENSE_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("SCHEDSENSE_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("SCHEDSENSE_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("SCHEDSENSE_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("SCHEDSENSE_LLM_TIMEOUT_SECONDS", 60)
	p.MaxConcurrentExtractions = getEnvOrDefaultInt("SCHEDSENSE_MAX_CONCURRENT_EXTRACTIONS", 8)

	// Apply provider defaults when base URL or model is not explicitly set.
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.GoogleClientID = getEnvOrDefault("GOOGLE_CLIENT_ID", "")
	p.GoogleClientSecret = getEnvOrDefault("GOOGLE_CLIENT_SECRET", "")
	p.GoogleTokenFile = getEnvOrDefault("SCHEDSENSE_GOOGLE_TOKEN_FILE", "token.json")
	p.GoogleCalendarID = getEnvOrDefault("SCHEDSENSE_GOOGLE_CALENDAR_ID", "primary")

	p.Timezone = getEnvOrDefault("SCHEDSENSE_TIMEZONE", "")
	p.SessionTTLMinutes = getEnvOrDefaultInt("SCHEDSENSE_SESSION_TTL_MINUTES", 30)
}

// Validate normalizes the profile and fails on values that cannot be used.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.LLMAPIKey == "" && p.LLMProvider != "ollama" {
		return errors.New("LLM API key is required in prod mode")
	}

	if p.SessionTTLMinutes <= 0 {
		p.SessionTTLMinutes = 30
	}

	if p.Timezone == "" {
		p.loc = time.Local
		return nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return errors.Wrapf(err, "unknown timezone %q", p.Timezone)
	}
	p.loc = loc
	return nil
}
