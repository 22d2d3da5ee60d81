package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest decodes the YAML or JSON request file at path into v. A path
// of "-" reads stdin instead.
func LoadRequest(path string, stdin io.Reader, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read request %s: %w", path, err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest decodes data by the extension of name. Without a known
// extension, JSON is used when the content starts with '{', YAML otherwise.
func ParseRequest(data []byte, name string, v any) error {
	asJSON := false
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		asJSON = true
	case ".yaml", ".yml":
	default:
		asJSON = bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
	}

	if asJSON {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse JSON request %s: %w", name, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse YAML request %s: %w", name, err)
	}
	return nil
}
