package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "recipegen", cfg.App.Name)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-1.5-flash-latest", cfg.AI.GeminiModel)
	assert.Equal(t, time.Duration(0), cfg.AI.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionMaxAge)
	assert.Equal(t, "recipegen_session", cfg.Auth.CookieName)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RateLimit.Enable)
	assert.True(t, cfg.PDF.StampMetadata)
	assert.Equal(t, "0.0.0.0:5000", cfg.Address())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
server:
  port: 8081
ai:
  provider: anthropic
auth:
  users:
    chef: "$2a$10$abcdefghijklmnopqrstuv"
recipes:
  taxonomy_file: /etc/recipegen/taxonomy.yaml
`)
	t.Setenv("RECIPEGEN_SERVER_HOST", "127.0.0.1")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "g-test")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "127.0.0.1:8081", cfg.Address())
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.AnthropicKey)
	assert.Equal(t, "g-test", cfg.AI.GeminiKey)
	assert.Contains(t, cfg.Auth.Users, "chef")
	assert.Equal(t, "/etc/recipegen/taxonomy.yaml", cfg.Recipes.TaxonomyFile)
}

func TestLoad_PrefixedKeyWinsOverConventionalVariable(t *testing.T) {
	t.Setenv("RECIPEGEN_AI_GEMINI_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.AI.GeminiKey)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:    AppConfig{Name: "recipegen", Environment: "development"},
			Server: ServerConfig{Port: 5000},
			AI:     AIConfig{Provider: "gemini"},
			Auth:   AuthConfig{SessionMaxAge: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing name", func(c *Config) { c.App.Name = "" }, "app.name"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown provider", func(c *Config) { c.AI.Provider = "openai" }, "ai.provider"},
		{"production needs secret", func(c *Config) { c.App.Environment = "production" }, "session_secret"},
		{"production with secret", func(c *Config) {
			c.App.Environment = "production"
			c.Auth.SessionSecret = "s3cret"
		}, ""},
		{"zero session age", func(c *Config) { c.Auth.SessionMaxAge = 0 }, "session_max_age"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BCryptCost = 2 }, "auth.bcrypt_cost"},
		{"rate limit without budget", func(c *Config) { c.RateLimit.Enable = true }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "ai:\n  provider: telepathy\n")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestWatch_NoFile(t *testing.T) {
	watching, err := Watch("", func(*Config, error) {})

	require.NoError(t, err)
	assert.False(t, watching)
}

func TestWatch_ReportsChanges(t *testing.T) {
	path := writeConfig(t, "app:\n  log_level: info\n")

	var mu sync.Mutex
	var levels []string
	watching, err := Watch(path, func(cfg *Config, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		levels = append(levels, cfg.App.LogLevel)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.True(t, watching)

	require.NoError(t, os.WriteFile(path, []byte("app:\n  log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}
