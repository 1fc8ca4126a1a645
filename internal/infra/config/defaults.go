// Where: cli/internal/infra/config/defaults.go
// What: Last-used deploy inputs persisted between runs.
// Why: Prompts offer the previous prefix, region, strategy and repositories.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/meta"
	"gopkg.in/yaml.v3"
)

const maxRecentRepositories = 5

// Defaults is the <dir>/.autodeploy/defaults.yaml document.
type Defaults struct {
	Version            int      `yaml:"version"`
	Prefix             string   `yaml:"prefix,omitempty"`
	Region             string   `yaml:"region,omitempty"`
	Strategy           string   `yaml:"strategy,omitempty"`
	RecentRepositories []string `yaml:"recent_repositories,omitempty"`
}

// DefaultsPath returns <dir>/.autodeploy/defaults.yaml.
func DefaultsPath(dir string) string {
	return filepath.Join(dir, meta.HomeDir, meta.DefaultsFile)
}

// LoadDefaults reads the defaults file. A missing file yields empty defaults.
func LoadDefaults(path string) (Defaults, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults{Version: 1}, nil
		}
		return Defaults{}, fmt.Errorf("read defaults: %w", err)
	}
	var d Defaults
	if err := yaml.Unmarshal(payload, &d); err != nil {
		return Defaults{}, fmt.Errorf("decode defaults: %w", err)
	}
	if d.Version == 0 {
		d.Version = 1
	}
	return d, nil
}

// SaveDefaults writes d to path with owner-only permissions.
func SaveDefaults(path string, d Defaults) error {
	if d.Version == 0 {
		d.Version = 1
	}
	payload, err := yaml.Marshal(&d)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create defaults dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write defaults: %w", err)
	}
	return nil
}

// RememberRepository moves url to the front of the recent list.
func (d *Defaults) RememberRepository(url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	recent := []string{url}
	for _, existing := range d.RecentRepositories {
		if existing != url {
			recent = append(recent, existing)
		}
	}
	if len(recent) > maxRecentRepositories {
		recent = recent[:maxRecentRepositories]
	}
	d.RecentRepositories = recent
}
