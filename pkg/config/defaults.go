package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultAccount is one account seeded into a fresh database.
type DefaultAccount struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Defaults represents the YAML defaults file: catalog entries ensured
// to exist on startup. Seeding ignores duplicates, so re-running against
// an existing database is harmless.
type Defaults struct {
	Categories []string         `yaml:"categories"`
	Payees     []string         `yaml:"payees"`
	Accounts   []DefaultAccount `yaml:"accounts"`
}

// LoadDefaults loads a defaults file.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults file: %w", err)
	}

	var defaults Defaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("failed to parse defaults file: %w", err)
	}

	return &defaults, nil
}
