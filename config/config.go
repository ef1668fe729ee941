package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	EnableFileLogging bool
	CancelHotkey      string
	PollInterval      time.Duration
	MaxSteps          int
	ResourceDir       string
	DebugDir          string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or executable directory
	envPaths := []string{".env"}

	// If running as executable, also try the executable's directory
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		envPaths = append(envPaths, filepath.Join(execDir, ".env"))
	}

	// Try to load .env file (ignore errors if file doesn't exist)
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			godotenv.Load(envPath)
			break
		}
	}

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("SPARK_API_KEY")
	}

	cfg := &Config{
		APIKey:            apiKey,
		BaseURL:           getEnvWithDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:             os.Getenv("MODEL"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		CancelHotkey:      getEnvWithDefault("CANCEL_HOTKEY", "Ctrl+Alt+X"),
		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_MS", 500)) * time.Millisecond,
		MaxSteps:          getEnvInt("MAX_STEPS", 100),
		ResourceDir:       os.Getenv("RESOURCE_DIR"),
		DebugDir:          os.Getenv("DEBUG_DIR"),
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
