package profile

import (
	"os"
	"testing"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel default", "gpt-4o", profile.LLMModel},
		{"LLMAPIKey default", "", profile.LLMAPIKey},
		{"GoogleTokenFile default", "token.json", profile.GoogleTokenFile},
		{"GoogleCalendarID default", "primary", profile.GoogleCalendarID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.LLMTimeout != 60 {
		t.Errorf("LLMTimeout default: expected 60, got %d", profile.LLMTimeout)
	}
	if profile.SessionTTLMinutes != 30 {
		t.Errorf("SessionTTLMinutes default: expected 30, got %d", profile.SessionTTLMinutes)
	}
	if profile.MaxConcurrentExtractions != 8 {
		t.Errorf("MaxConcurrentExtractions default: expected 8, got %d", profile.MaxConcurrentExtractions)
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "provider from env",
			envVar:   "SCHEDSENSE_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "deepseek",
		},
		{
			name:     "deepseek provider implies base URL",
			envVar:   "SCHEDSENSE_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "https://api.deepseek.com",
		},
		{
			name:     "API key from env",
			envVar:   "SCHEDSENSE_LLM_API_KEY",
			envValue: "test-key",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "test-key",
		},
		{
			name:     "explicit model wins over provider default",
			envVar:   "SCHEDSENSE_LLM_MODEL",
			envValue: "gpt-4o-mini",
			field:    func(p *Profile) string { return p.LLMModel },
			expected: "gpt-4o-mini",
		},
		{
			name:     "unknown provider falls back to openai",
			envVar:   "SCHEDSENSE_LLM_PROVIDER",
			envValue: "nonsense",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "openai",
		},
		{
			name:     "timezone from env",
			envVar:   "SCHEDSENSE_TIMEZONE",
			envValue: "Europe/Berlin",
			field:    func(p *Profile) string { return p.Timezone },
			expected: "Europe/Berlin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("unknown mode becomes demo", func(t *testing.T) {
		p := &Profile{Mode: "whatever", SessionTTLMinutes: 30}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if p.Mode != "demo" {
			t.Errorf("expected mode demo, got %q", p.Mode)
		}
	})

	t.Run("prod requires API key", func(t *testing.T) {
		p := &Profile{Mode: "prod", LLMProvider: "openai", SessionTTLMinutes: 30}
		if err := p.Validate(); err == nil {
			t.Error("expected error for prod without API key")
		}
	})

	t.Run("prod with ollama needs no key", func(t *testing.T) {
		p := &Profile{Mode: "prod", LLMProvider: "ollama", SessionTTLMinutes: 30}
		if err := p.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("bad timezone fails", func(t *testing.T) {
		p := &Profile{Mode: "dev", Timezone: "Mars/Olympus", SessionTTLMinutes: 30}
		if err := p.Validate(); err == nil {
			t.Error("expected error for unknown timezone")
		}
	})

	t.Run("valid timezone resolves location", func(t *testing.T) {
		p := &Profile{Mode: "dev", Timezone: "UTC", SessionTTLMinutes: 30}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if p.Location().String() != "UTC" {
			t.Errorf("expected UTC location, got %v", p.Location())
		}
	})

	t.Run("non-positive TTL resets to default", func(t *testing.T) {
		p := &Profile{Mode: "dev"}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if p.SessionTTLMinutes != 30 {
			t.Errorf("expected TTL 30, got %d", p.SessionTTLMinutes)
		}
	})
}

// clearEnvVars removes all configuration environment variables.
func clearEnvVars() {
	vars := []string{
		"SCHEDSENSE_LLM_PROVIDER",
		"SCHEDSENSE_LLM_API_KEY",
		"SCHEDSENSE_LLM_BASE_URL",
		"SCHEDSENSE_LLM_MODEL",
		"SCHEDSENSE_LLM_TIMEOUT_SECONDS",
		"SCHEDSENSE_MAX_CONCURRENT_EXTRACTIONS",
		"SCHEDSENSE_GOOGLE_TOKEN_FILE",
		"SCHEDSENSE_GOOGLE_CALENDAR_ID",
		"SCHEDSENSE_TIMEZONE",
		"SCHEDSENSE_SESSION_TTL_MINUTES",
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
