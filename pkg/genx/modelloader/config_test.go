package modelloader

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/haivivi/roots/pkg/genx/generators"
)

func TestExpandEnv(t *testing.T) {
	// Set test environment variable
	os.Setenv("TEST_API_KEY", "test-key-123")
	defer os.Unsetenv("TEST_API_KEY")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"plain value", "plain-api-key", "plain-api-key"},
		{"env var with $", "$TEST_API_KEY", "test-key-123"},
		{"env var with ${}", "${TEST_API_KEY}", "test-key-123"},
		{"unset env var", "$UNSET_VAR", ""},
		{"mixed content", "prefix-$TEST_API_KEY-suffix", "prefix-$TEST_API_KEY-suffix"}, // Only expands if starts with $
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnv(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnv(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseConfig_JSON(t *testing.T) {
	// Create temp directory
	tmpDir := t.TempDir()

	// Write test JSON config
	jsonContent := `{
		"schema": "openai/chat/v1",
		"type": "generator",
		"api_key": "test-key",
		"base_url": "https://api.example.com",
		"models": [
			{
				"name": "test/model",
				"model": "gpt-4"
			}
		]
	}`
	jsonPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(jsonPath, []byte(jsonContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseConfig(jsonPath)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}

	if cfg.Schema != "openai/chat/v1" {
		t.Errorf("Schema = %q, want %q", cfg.Schema, "openai/chat/v1")
	}
	if cfg.Type != "generator" {
		t.Errorf("Type = %q, want %q", cfg.Type, "generator")
	}
	if cfg.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "test-key")
	}
	if len(cfg.Models) != 1 {
		t.Errorf("len(Models) = %d, want 1", len(cfg.Models))
	}
	if cfg.Models[0].Name != "test/model" {
		t.Errorf("Models[0].Name = %q, want %q", cfg.Models[0].Name, "test/model")
	}
}

func TestParseConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()

	yamlContent := `
schema: gemini/generate/v1
type: generator
api_key: $GEMINI_API_KEY
models:
  - name: gemini/flash
    model: gemini-2.5-flash
    generate_params:
      voice: Fenrir
      modalities: [AUDIO]
`
	yamlPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseConfig(yamlPath)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}

	if cfg.Schema != "gemini/generate/v1" {
		t.Errorf("Schema = %q, want %q", cfg.Schema, "gemini/generate/v1")
	}
	if cfg.APIKey != "$GEMINI_API_KEY" {
		t.Errorf("APIKey = %q, should be expanded at registration only", cfg.APIKey)
	}
	if len(cfg.Models) != 1 {
		t.Fatalf("len(Models) = %d, want 1", len(cfg.Models))
	}
	gp := cfg.Models[0].GenerateParams
	if gp == nil || gp.Voice != "Fenrir" || len(gp.Modalities) != 1 {
		t.Errorf("GenerateParams = %+v", gp)
	}
}

func TestParseConfig_UnsupportedExtension(t *testing.T) {
	tmpDir := t.TempDir()
	txtPath := filepath.Join(tmpDir, "config.txt")
	if err := os.WriteFile(txtPath, []byte("some content"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := parseConfig(txtPath)
	if err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestRegisterConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConfigFile
		missing bool
	}{
		{"legacy kind without key", ConfigFile{Kind: "openai"}, true},
		{"gemini without key", ConfigFile{Schema: "gemini/generate/v1", Type: "generator"}, true},
		{"unknown type", ConfigFile{Schema: "test/schema/v1", Type: "unknown_type"}, false},
		{"invalid schema", ConfigFile{Schema: "invalid", Type: "generator"}, false},
		{"unknown provider", ConfigFile{Schema: "acme/chat/v1", APIKey: "k"}, false},
		{"entry without model", ConfigFile{Kind: "gemini", APIKey: "k", Models: []Entry{{Name: "x"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registerConfig(generators.NewMux(), tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrMissingCredentials); got != tt.missing {
				t.Errorf("errors.Is(err, ErrMissingCredentials) = %v, want %v (err=%v)", got, tt.missing, err)
			}
		})
	}
}

func TestRegisterGeminiDefaults(t *testing.T) {
	mux := generators.NewMux()
	names, err := RegisterGeminiDefaults(mux, "test-key", "")
	if err != nil {
		t.Fatalf("RegisterGeminiDefaults error: %v", err)
	}
	want := []string{GeminiFlash, GeminiPro, GeminiFlashImage, GeminiFlashTTS}
	if !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if got := mux.Names(); len(got) != 4 {
		t.Errorf("mux.Names() = %v", got)
	}

	if _, err := RegisterGeminiDefaults(mux, "test-key", ""); err == nil {
		t.Error("registering twice should fail")
	}
}

func TestLoadFromDir_RegistersOpenAI(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ROOTS_TEST_OPENAI_KEY", "sk-test")

	content := `
kind: openai
api_key: $ROOTS_TEST_OPENAI_KEY
base_url: https://api.example.com/v1
models:
  - name: openai/gpt-4o
    model: gpt-4o
    support_json_output: true
`
	if err := os.MkdirAll(filepath.Join(tmpDir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "nested", "openai.yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	mux := generators.NewMux()
	names, err := LoadFromDir(mux, tmpDir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if !slices.Equal(names, []string{"openai/gpt-4o"}) {
		t.Errorf("names = %v", names)
	}
}

func TestLoadFromDir_SkipsMissingCredentials(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a config with env var that's not set
	jsonContent := `{
		"schema": "openai/chat/v1",
		"type": "generator",
		"api_key": "$NONEXISTENT_API_KEY",
		"models": [{"name": "test/model", "model": "gpt-4"}]
	}`
	jsonPath := filepath.Join(tmpDir, "test.json")
	if err := os.WriteFile(jsonPath, []byte(jsonContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should not error, but should return empty names (config skipped)
	names, err := LoadFromDir(generators.NewMux(), tmpDir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected 0 names (skipped), got %d", len(names))
	}
}

func TestLoadFromDir_IgnoresNonConfigFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create non-config files
	if err := os.WriteFile(filepath.Join(tmpDir, "readme.md"), []byte("# README"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "script.sh"), []byte("#!/bin/bash"), 0644); err != nil {
		t.Fatal(err)
	}

	// Should not error
	names, err := LoadFromDir(generators.NewMux(), tmpDir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected 0 names, got %d", len(names))
	}
}

func TestLoadFromDir_EmptyDir(t *testing.T) {
	tmpDir := t.TempDir()

	names, err := LoadFromDir(generators.NewMux(), tmpDir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected 0 names, got %d", len(names))
	}
}
