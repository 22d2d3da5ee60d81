package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"1234", "****"},
		{"12345678", "********"},
		{"123456789", "1234*6789"},
		{"AIzaSyA1234567890abcd", "AIza*************abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.want {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestContext_Extra(t *testing.T) {
	ctx := &Context{Name: "test"}
	if got := ctx.GetExtra(ExtraModelsDir); got != "" {
		t.Errorf("GetExtra on nil map = %q", got)
	}
	ctx.SetExtra(ExtraModelsDir, "/models")
	ctx.SetExtra(ExtraS3Bucket, "roots-art")
	if got := ctx.GetExtra(ExtraModelsDir); got != "/models" {
		t.Errorf("GetExtra = %q", got)
	}
	ctx.SetExtra(ExtraS3Bucket, "")
	if _, ok := ctx.Extra[ExtraS3Bucket]; ok {
		t.Error("SetExtra with empty value should remove the key")
	}
}

func TestContext_TimeoutDuration(t *testing.T) {
	ctx := &Context{}
	if got := ctx.TimeoutDuration(time.Minute); got != time.Minute {
		t.Errorf("default = %v", got)
	}
	ctx.Timeout = 90
	if got := ctx.TimeoutDuration(time.Minute); got != 90*time.Second {
		t.Errorf("configured = %v", got)
	}
}

func TestLoadConfigWithPath_NewConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "roots", "config.yaml")

	cfg, err := LoadConfigWithPath("roots", configPath)
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	if cfg.AppName != "roots" || cfg.Contexts == nil {
		t.Errorf("cfg = %+v", cfg)
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("loading must not create the config file")
	}
	if cfg.Path() != configPath || cfg.Dir() != filepath.Dir(configPath) {
		t.Errorf("Path = %q Dir = %q", cfg.Path(), cfg.Dir())
	}
}

func TestLoadConfigWithPath_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("contexts: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigWithPath("roots", configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfig_Contexts(t *testing.T) {
	cfg, err := LoadConfigWithPath("roots", filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.AddContext("prod", &Context{APIKey: "k1"}); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if cfg.CurrentContext != "prod" {
		t.Errorf("first context should become current, got %q", cfg.CurrentContext)
	}
	if err := cfg.AddContext("dev", &Context{APIKey: "k2"}); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "prod" {
		t.Errorf("CurrentContext = %q after second add", cfg.CurrentContext)
	}
	if got := cfg.ListContexts(); !slices.Equal(got, []string{"dev", "prod"}) {
		t.Errorf("ListContexts = %v", got)
	}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "prod", false},
		{"dev", "dev", false},
		{"missing", "", true},
	}
	for _, tt := range tests {
		ctx, err := cfg.ResolveContext(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveContext(%q) error = %v", tt.name, err)
			continue
		}
		if err == nil && ctx.Name != tt.want {
			t.Errorf("ResolveContext(%q) = %q, want %q", tt.name, ctx.Name, tt.want)
		}
	}

	if err := cfg.UseContext("dev"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.UseContext("missing"); err == nil {
		t.Error("UseContext(missing) should fail")
	}
	if err := cfg.DeleteContext("dev"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("deleting the current context should clear it, got %q", cfg.CurrentContext)
	}
	if _, err := cfg.GetCurrentContext(); err == nil {
		t.Error("GetCurrentContext should fail without a current context")
	}
	if err := cfg.DeleteContext("dev"); err == nil {
		t.Error("DeleteContext twice should fail")
	}
}

func TestConfig_Persistence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg1, err := LoadConfigWithPath("roots", configPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := &Context{APIKey: "secret-key", BaseURL: "https://gemini.test", Timeout: 30}
	ctx.SetExtra(ExtraArtifactDir, "~/art")
	if err := cfg1.AddContext("test", ctx); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}

	cfg2, err := LoadConfigWithPath("roots", configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg2.CurrentContext != "test" {
		t.Errorf("CurrentContext = %q", cfg2.CurrentContext)
	}
	got, err := cfg2.GetContext("test")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "test" || got.APIKey != "secret-key" || got.Timeout != 30 || got.GetExtra(ExtraArtifactDir) != "~/art" {
		t.Errorf("context = %+v", got)
	}
}
