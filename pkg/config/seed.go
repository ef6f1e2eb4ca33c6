package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedUser is one user entry in the seed file
type SeedUser struct {
	Username string  `yaml:"username"`
	Age      *int    `yaml:"age"`
	Location *string `yaml:"location"`
}

// SeedConfig holds the users created at startup
type SeedConfig struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedFile loads seed users from a YAML file.
// Field bounds are checked later by the user service, like any create.
func LoadSeedFile(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedConfig
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}

	return &seed, nil
}

// Validate rejects entries without a username and duplicate usernames
func (s *SeedConfig) Validate() error {
	seen := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.Username == "" {
			return fmt.Errorf("seed user #%d: username is required", i+1)
		}
		if seen[u.Username] {
			return fmt.Errorf("duplicate seed username: %s", u.Username)
		}
		seen[u.Username] = true
	}
	return nil
}
