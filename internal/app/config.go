package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/utils"
)

type Config struct {
	Port          string
	DatabaseURL   string
	EncryptionKey string
	KeyVersion    int
	OpenAIAPIKey  string
	OpenAIBaseURL string
	SerperAPIKey  string
	TokenBudget   int
	MaxToolRounds int
	HistoryLimit  int
	Temperature   float64
	ModelTimeout  time.Duration
	ToolTimeout   time.Duration
	AllowOrigins  []string
}

// fileConfig is the optional YAML overlay. Only fields present in the file
// override the environment.
type fileConfig struct {
	Port          string   `yaml:"port"`
	DatabaseURL   string   `yaml:"database_url"`
	OpenAIBaseURL string   `yaml:"openai_base_url"`
	TokenBudget   int      `yaml:"token_budget"`
	MaxToolRounds int      `yaml:"max_tool_rounds"`
	HistoryLimit  int      `yaml:"history_limit"`
	Temperature   float64  `yaml:"temperature"`
	ModelTimeout  int      `yaml:"model_timeout_seconds"`
	ToolTimeout   int      `yaml:"tool_timeout_seconds"`
	AllowOrigins  []string `yaml:"allow_origins"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:          utils.GetEnv("PORT", "8080", log),
		DatabaseURL:   utils.GetEnv("DATABASE_URL", "", log),
		EncryptionKey: utils.GetEnv("ENCRYPTION_KEY", "", log),
		KeyVersion:    utils.GetEnvAsInt("ENCRYPTION_KEY_VERSION", 1, log),
		OpenAIAPIKey:  utils.GetEnv("OPENAI_API_KEY", "", log),
		OpenAIBaseURL: utils.GetEnv("OPENAI_BASE_URL", "", log),
		SerperAPIKey:  utils.GetEnv("SERPER_API_KEY", "", log),
		TokenBudget:   utils.GetEnvAsInt("CONTEXT_TOKEN_BUDGET", 4096, log),
		MaxToolRounds: utils.GetEnvAsInt("MAX_TOOL_ROUNDS", 5, log),
		HistoryLimit:  utils.GetEnvAsInt("HISTORY_LIMIT", 200, log),
		Temperature:   utils.GetEnvAsFloat("MODEL_TEMPERATURE", 0.7, log),
		ModelTimeout:  time.Duration(utils.GetEnvAsInt("MODEL_TIMEOUT_SECONDS", 60, log)) * time.Second,
		ToolTimeout:   time.Duration(utils.GetEnvAsInt("TOOL_TIMEOUT_SECONDS", 20, log)) * time.Second,
	}
	if origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}

	configPath := utils.GetEnv("CONFIG_FILE", "", log)
	if configPath == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", configPath, err)
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", configPath, err)
	}
	log.Info("Applying config file overlay", "path", configPath)
	applyOverlay(&cfg, overlay)
	return cfg, nil
}

func applyOverlay(cfg *Config, overlay fileConfig) {
	if overlay.Port != "" {
		cfg.Port = overlay.Port
	}
	if overlay.DatabaseURL != "" {
		cfg.DatabaseURL = overlay.DatabaseURL
	}
	if overlay.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = overlay.OpenAIBaseURL
	}
	if overlay.TokenBudget > 0 {
		cfg.TokenBudget = overlay.TokenBudget
	}
	if overlay.MaxToolRounds > 0 {
		cfg.MaxToolRounds = overlay.MaxToolRounds
	}
	if overlay.HistoryLimit > 0 {
		cfg.HistoryLimit = overlay.HistoryLimit
	}
	if overlay.Temperature > 0 {
		cfg.Temperature = overlay.Temperature
	}
	if overlay.ModelTimeout > 0 {
		cfg.ModelTimeout = time.Duration(overlay.ModelTimeout) * time.Second
	}
	if overlay.ToolTimeout > 0 {
		cfg.ToolTimeout = time.Duration(overlay.ToolTimeout) * time.Second
	}
	if len(overlay.AllowOrigins) > 0 {
		cfg.AllowOrigins = overlay.AllowOrigins
	}
}
