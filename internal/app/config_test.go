package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.TokenBudget != 4096 || cfg.MaxToolRounds != 5 {
		t.Fatalf("unexpected turn defaults: %+v", cfg)
	}
	if cfg.ModelTimeout != 60*time.Second {
		t.Fatalf("expected 60s model timeout, got %v", cfg.ModelTimeout)
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("expected default temperature 0.7, got %v", cfg.Temperature)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONTEXT_TOKEN_BUDGET", "2048")
	t.Setenv("MODEL_TEMPERATURE", "0.2")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.TokenBudget != 2048 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("temperature override not applied: %v", cfg.Temperature)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "https://b.example" {
		t.Fatalf("origin list not parsed: %v", cfg.AllowOrigins)
	}
}

func TestLoadConfig_FileOverlayWinsOverEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "port: \"7070\"\nmax_tool_rounds: 3\ntool_timeout_seconds: 5\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("overlay must win over env, got port %q", cfg.Port)
	}
	if cfg.MaxToolRounds != 3 || cfg.ToolTimeout != 5*time.Second {
		t.Fatalf("overlay fields not applied: %+v", cfg)
	}
	// fields absent from the file keep their env/default values
	if cfg.TokenBudget != 4096 {
		t.Fatalf("untouched field changed: %d", cfg.TokenBudget)
	}
}

func TestLoadConfig_MissingFileIsAnError(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := LoadConfig(testLogger(t)); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
