package cli

import (
	"os"
	"path/filepath"
)

// Paths locates the per-app directories below ~/.giztoy.
type Paths struct {
	AppName string
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, HomeDir: home}, nil
}

// BaseDir returns the base directory (~/.giztoy)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.giztoy/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.giztoy/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// ModelsDir holds model configuration files loaded at startup.
func (p *Paths) ModelsDir() string {
	return filepath.Join(p.AppDir(), "models")
}

// SessionDir holds the chat session database.
func (p *Paths) SessionDir() string {
	return filepath.Join(p.AppDir(), "sessions")
}

// ArtifactDir holds saved images and speech.
func (p *Paths) ArtifactDir() string {
	return filepath.Join(p.AppDir(), "artifacts")
}

// Resolve returns the context override for key when set, otherwise def.
// A leading "~/" in the override is expanded to the home directory.
func (p *Paths) Resolve(ctx *Context, key, def string) string {
	if ctx == nil {
		return def
	}
	v := ctx.GetExtra(key)
	switch {
	case v == "":
		return def
	case v == "~":
		return p.HomeDir
	case len(v) > 1 && v[:2] == "~/":
		return filepath.Join(p.HomeDir, v[2:])
	}
	return v
}
