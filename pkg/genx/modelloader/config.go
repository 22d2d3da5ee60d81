// Package modelloader registers generators from model config files.
//
// A config file declares one provider account and the models it serves:
//
//	schema: gemini/generate/v1
//	type: generator
//	api_key: $GEMINI_API_KEY
//	models:
//	  - name: gemini/flash
//	    model: gemini-2.5-flash
//
// Supported schemas are "gemini/..." and "openai/...". The legacy "kind"
// field ("gemini" or "openai") is still accepted.
package modelloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/genx/generators"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// Verbose enables request body logging for debugging
var Verbose bool

// ErrMissingCredentials is returned when a config has no API key after
// environment expansion. LoadFromDir skips such configs.
var ErrMissingCredentials = errors.New("modelloader: api_key is required")

type verboseTransport struct {
	base http.RoundTripper
}

func (t *verboseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		var prettyJSON bytes.Buffer
		if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
			body = prettyJSON.Bytes()
		}
		slog.Debug("modelloader: request", "url", req.URL.String(), "body", string(body))
	}
	return t.base.RoundTrip(req)
}

type ConfigFile struct {
	Schema string `json:"schema,omitzero" yaml:"schema,omitzero"` // e.g. "gemini/generate/v1", "openai/chat/v1"
	Type   string `json:"type,omitzero" yaml:"type,omitzero"`     // "generator"

	// Legacy format (for backward compatibility)
	Kind string `json:"kind,omitzero" yaml:"kind,omitzero"` // "openai", "gemini"

	APIKey  string `json:"api_key,omitzero" yaml:"api_key,omitzero"` // Can be env var name like "$GEMINI_API_KEY"
	BaseURL string `json:"base_url,omitzero" yaml:"base_url,omitzero"`

	Models []Entry `json:"models,omitzero" yaml:"models,omitzero"`
}

type Entry struct {
	Name              string            `json:"name" yaml:"name"`
	Model             string            `json:"model" yaml:"model"`
	GenerateParams    *genx.ModelParams `json:"generate_params,omitzero" yaml:"generate_params,omitzero"`
	InvokeParams      *genx.ModelParams `json:"invoke_params,omitzero" yaml:"invoke_params,omitzero"`
	SupportJSONOutput bool              `json:"support_json_output,omitzero" yaml:"support_json_output,omitzero"`
	SupportTextOnly   bool              `json:"support_text_only,omitzero" yaml:"support_text_only,omitzero"`
	UseSystemRole     bool              `json:"use_system_role,omitzero" yaml:"use_system_role,omitzero"`
	ExtraFields       map[string]any    `json:"extra_fields,omitzero" yaml:"extra_fields,omitzero"`
	Desc              string            `json:"desc,omitzero" yaml:"desc,omitzero"`
}

// Registered model names for the default Gemini account.
const (
	GeminiFlash      = "gemini/flash"
	GeminiPro        = "gemini/pro"
	GeminiFlashImage = "gemini/flash-image"
	GeminiFlashTTS   = "gemini/flash-tts"
)

// DefaultGeminiModels are registered by RegisterGeminiDefaults.
var DefaultGeminiModels = []Entry{
	{Name: GeminiFlash, Model: "gemini-2.5-flash", Desc: "vision, audio analysis, meditation"},
	{Name: GeminiPro, Model: "gemini-3-pro-preview", Desc: "chat, story, video plan"},
	{Name: GeminiFlashImage, Model: "gemini-2.5-flash-image", Desc: "story illustrations"},
	{Name: GeminiFlashTTS, Model: "gemini-2.5-flash-preview-tts", Desc: "speech synthesis"},
}

// RegisterGeminiDefaults registers DefaultGeminiModels on mux using apiKey.
func RegisterGeminiDefaults(mux *generators.Mux, apiKey, baseURL string) ([]string, error) {
	return registerConfig(mux, ConfigFile{
		Schema:  "gemini/generate/v1",
		Type:    "generator",
		APIKey:  apiKey,
		BaseURL: baseURL,
		Models:  DefaultGeminiModels,
	})
}

// LoadFromDir loads model configs from dir recursively and registers generators.
// Returns the registered model names.
// Configs with missing credentials (empty API key after env expansion) are skipped.
func LoadFromDir(mux *generators.Mux, dir string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		cfg, err := parseConfig(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		fileNames, err := registerConfig(mux, *cfg)
		if err != nil {
			if errors.Is(err, ErrMissingCredentials) {
				slog.Debug("modelloader: skipping config", "path", path, "err", err)
				return nil
			}
			return fmt.Errorf("register %s: %w", path, err)
		}
		names = append(names, fileNames...)
		return nil
	})

	return names, err
}

func parseConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg ConfigFile
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported extension: %s", ext)
	}
	return &cfg, nil
}

func registerConfig(mux *generators.Mux, cfg ConfigFile) ([]string, error) {
	cfg.APIKey = expandEnv(cfg.APIKey)

	provider := strings.ToLower(cfg.Kind)
	if cfg.Schema != "" {
		if cfg.Type != "" && cfg.Type != "generator" {
			return nil, fmt.Errorf("unknown type: %s", cfg.Type)
		}
		parts := strings.Split(cfg.Schema, "/")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid schema: %s", cfg.Schema)
		}
		provider = parts[0]
	}

	switch provider {
	case "openai":
		return registerOpenAI(mux, cfg)
	case "gemini":
		return registerGemini(mux, cfg)
	default:
		return nil, fmt.Errorf("unknown generator provider: %q", provider)
	}
}

// expandEnv expands environment variables in a string.
// Supports formats: $VAR, ${VAR}, and plain values.
// If the value starts with $ but the env var is not set, returns empty string.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "$") {
		return os.ExpandEnv(s)
	}
	return s
}

func httpClient() *http.Client {
	if !Verbose {
		return nil
	}
	return &http.Client{Transport: &verboseTransport{base: http.DefaultTransport}}
}

func registerOpenAI(mux *generators.Mux, cfg ConfigFile) ([]string, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for openai", ErrMissingCredentials)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if hc := httpClient(); hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	client := openai.NewClient(opts...)

	var names []string
	for _, m := range cfg.Models {
		if m.Name == "" || m.Model == "" {
			return nil, fmt.Errorf("model entry missing name or model")
		}
		if err := mux.Handle(m.Name, &genx.OpenAIGenerator{
			Client:            &client,
			Model:             m.Model,
			GenerateParams:    m.GenerateParams,
			InvokeParams:      m.InvokeParams,
			SupportJSONOutput: m.SupportJSONOutput,
			SupportTextOnly:   m.SupportTextOnly,
			UseSystemRole:     m.UseSystemRole,
			ExtraFields:       m.ExtraFields,
		}); err != nil {
			return nil, fmt.Errorf("register generator %q: %w", m.Name, err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

func registerGemini(mux *generators.Mux, cfg ConfigFile) ([]string, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for gemini", ErrMissingCredentials)
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, m := range cfg.Models {
		if m.Name == "" || m.Model == "" {
			return nil, fmt.Errorf("model entry missing name or model")
		}
		if err := mux.Handle(m.Name, &genx.GeminiGenerator{
			Client:         client,
			Model:          m.Model,
			GenerateParams: m.GenerateParams,
			InvokeParams:   m.InvokeParams,
		}); err != nil {
			return nil, fmt.Errorf("register generator %q: %w", m.Name, err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}
