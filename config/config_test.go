package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set test environment variables
	os.Setenv("LLM_API_KEY", "test_api_key")
	os.Setenv("MODEL", "test_model")
	os.Setenv("ENABLE_FILE_LOGGING", "true")
	os.Setenv("CANCEL_HOTKEY", "Ctrl+Shift+C")
	os.Setenv("POLL_INTERVAL_MS", "250")
	os.Setenv("MAX_STEPS", "40")

	defer func() {
		// Clean up environment variables
		os.Unsetenv("LLM_API_KEY")
		os.Unsetenv("MODEL")
		os.Unsetenv("ENABLE_FILE_LOGGING")
		os.Unsetenv("CANCEL_HOTKEY")
		os.Unsetenv("POLL_INTERVAL_MS")
		os.Unsetenv("MAX_STEPS")
	}()

	// Load the configuration
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	// Check the configuration values
	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.CancelHotkey != "Ctrl+Shift+C" {
		t.Errorf("Expected CancelHotkey to be 'Ctrl+Shift+C', got '%s'", cfg.CancelHotkey)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("Expected PollInterval to be 250ms, got %v", cfg.PollInterval)
	}
	if cfg.MaxSteps != 40 {
		t.Errorf("Expected MaxSteps to be 40, got %d", cfg.MaxSteps)
	}
}

func TestDefaults(t *testing.T) {
	for _, key := range []string{"LLM_API_KEY", "SPARK_API_KEY", "LLM_BASE_URL",
		"CANCEL_HOTKEY", "POLL_INTERVAL_MS", "MAX_STEPS"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Expected default BaseURL, got '%s'", cfg.BaseURL)
	}
	if cfg.CancelHotkey != "Ctrl+Alt+X" {
		t.Errorf("Expected default CancelHotkey, got '%s'", cfg.CancelHotkey)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("Expected default PollInterval, got %v", cfg.PollInterval)
	}
	if cfg.MaxSteps != 100 {
		t.Errorf("Expected default MaxSteps, got %d", cfg.MaxSteps)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	os.Unsetenv("LLM_API_KEY")
	os.Setenv("SPARK_API_KEY", "fallback_key")
	defer os.Unsetenv("SPARK_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.APIKey != "fallback_key" {
		t.Errorf("Expected fallback API key, got '%s'", cfg.APIKey)
	}
}
