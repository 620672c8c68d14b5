package config

import (
	"os"
	"testing"
)

const (
	testEnvAPIKey = "OPENAI_API_KEY"
	testAPIKey    = "sk-test-key"
)

func TestLoad_MissingAPIKey(t *testing.T) {
	// Offline modes must load without a key; remote-calling modes validate
	// it at the entry point instead.
	os.Unsetenv(testEnvAPIKey)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAIAPIKey != "" {
		t.Errorf("OpenAIAPIKey = %q, want empty", cfg.OpenAIAPIKey)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(testEnvAPIKey, testAPIKey)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppEnv != "local" {
		t.Errorf("AppEnv = %q, want %q", cfg.AppEnv, "local")
	}

	if cfg.BaseModel != "gpt-4.1-mini-2025-04-14" {
		t.Errorf("BaseModel = %q", cfg.BaseModel)
	}

	if cfg.ValFraction != 0.10 {
		t.Errorf("ValFraction = %v, want 0.10", cfg.ValFraction)
	}

	if cfg.Seed != 20260214 {
		t.Errorf("Seed = %d, want 20260214", cfg.Seed)
	}

	want := []int{30, 31, 32, 33}
	if len(cfg.DatasetIDs) != len(want) {
		t.Fatalf("DatasetIDs = %v, want %v", cfg.DatasetIDs, want)
	}

	for i, id := range want {
		if cfg.DatasetIDs[i] != id {
			t.Errorf("DatasetIDs[%d] = %d, want %d", i, cfg.DatasetIDs[i], id)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(testEnvAPIKey, testAPIKey)
	t.Setenv("DATASET_IDS", "1,2")
	t.Setenv("VAL_FRACTION", "0.25")
	t.Setenv("JOB_POLL_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DatasetIDs) != 2 || cfg.DatasetIDs[0] != 1 || cfg.DatasetIDs[1] != 2 {
		t.Errorf("DatasetIDs = %v, want [1 2]", cfg.DatasetIDs)
	}

	if cfg.ValFraction != 0.25 {
		t.Errorf("ValFraction = %v, want 0.25", cfg.ValFraction)
	}

	if cfg.PollInterval.Seconds() != 5 {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
}
