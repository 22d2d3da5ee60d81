package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/haivivi/roots/pkg/roots"
)

// Record is the YAML sidecar written next to every artifact.
type Record struct {
	Kind       string        `yaml:"kind"`
	File       string        `yaml:"file"`
	MIMEType   string        `yaml:"mime_type"`
	Prompt     string        `yaml:"prompt,omitempty"`
	SampleRate int           `yaml:"sample_rate,omitempty"`
	Channels   int           `yaml:"channels,omitempty"`
	Duration   time.Duration `yaml:"duration,omitempty"`
	Bytes      int           `yaml:"bytes"`
	CreatedAt  time.Time     `yaml:"created_at"`
}

// Artifacts names and writes generated media. Files are laid out as
// {kind}/{YYYYMMDD}/{id}.{ext} with a {id}.yaml sidecar.
type Artifacts struct {
	Store FileStore

	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Saved is the result of an artifact write.
type Saved struct {
	Path     string
	Sidecar  string
	Location string
	Record   Record
}

// SaveImage stores a generated image.
func (a *Artifacts) SaveImage(ctx context.Context, img *roots.Image, prompt string) (*Saved, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, roots.ErrNoImageData
	}
	return a.save(ctx, Record{
		Kind:     "image",
		MIMEType: img.MIMEType,
		Prompt:   prompt,
	}, extension(img.MIMEType, ".png"), img.Data)
}

// SaveSpeech stores synthesized speech as raw PCM. The sidecar records the
// rate and channel count needed to play it back.
func (a *Artifacts) SaveSpeech(ctx context.Context, sp *roots.Speech, text string) (*Saved, error) {
	if sp == nil || len(sp.PCM) == 0 {
		return nil, roots.ErrNoAudioData
	}
	return a.save(ctx, Record{
		Kind:       "speech",
		MIMEType:   sp.Format.String(),
		Prompt:     text,
		SampleRate: sp.Format.SampleRate,
		Channels:   sp.Format.Channels,
		Duration:   sp.Format.Duration(int64(len(sp.PCM))),
	}, ".pcm", sp.PCM)
}

func (a *Artifacts) save(ctx context.Context, rec Record, ext string, data []byte) (*Saved, error) {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	id := ""
	if a.NewID != nil {
		id = a.NewID()
	} else {
		id = uuid.NewString()
	}
	base := fmt.Sprintf("%s/%s/%s", rec.Kind, now.UTC().Format("20060102"), id)
	rec.File = base + ext
	rec.Bytes = len(data)
	rec.CreatedAt = now

	if err := a.Store.Put(ctx, rec.File, data, rec.MIMEType); err != nil {
		return nil, err
	}
	side, err := yaml.Marshal(rec)
	if err != nil {
		return nil, err
	}
	sidecar := base + ".yaml"
	if err := a.Store.Put(ctx, sidecar, side, "application/yaml"); err != nil {
		return nil, err
	}
	return &Saved{
		Path:     rec.File,
		Sidecar:  sidecar,
		Location: a.Store.Location(rec.File),
		Record:   rec,
	}, nil
}

// LoadRecord reads the sidecar of a saved artifact. path may name either
// the artifact or its sidecar.
func (a *Artifacts) LoadRecord(ctx context.Context, path string) (*Record, error) {
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexByte(path, '/') {
		path = path[:i]
	}
	data, err := a.Store.Get(ctx, path+".yaml")
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("storage: decode %s.yaml: %w", path, err)
	}
	return &rec, nil
}

func extension(mimeType, fallback string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return fallback
}
