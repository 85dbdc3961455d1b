package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"basegraph.app/agora/internal/model"
)

var ErrEmptyRoster = errors.New("agent roster is empty")

type rosterFile struct {
	Agents []model.AgentIdentity `yaml:"agents"`
}

// LoadRoster reads the agent roster. A credential may be inline or named by
// credential_env; the environment wins when both are set.
func LoadRoster(path string) ([]model.AgentIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) ([]model.AgentIdentity, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, ErrEmptyRoster
	}

	seen := make(map[string]bool, len(file.Agents))
	agents := make([]model.AgentIdentity, 0, len(file.Agents))
	for i, a := range file.Agents {
		a.Handle = strings.TrimSpace(a.Handle)
		if a.Handle == "" {
			return nil, fmt.Errorf("roster entry %d: handle is required", i)
		}
		if a.Model == "" {
			return nil, fmt.Errorf("roster entry %q: model is required", a.Handle)
		}
		if seen[a.Handle] {
			return nil, fmt.Errorf("roster entry %q: duplicate handle", a.Handle)
		}
		seen[a.Handle] = true

		if a.CredentialEnv != "" {
			if v := os.Getenv(a.CredentialEnv); v != "" {
				a.Credential = v
			}
		}
		if a.Credential == "" {
			return nil, fmt.Errorf("roster entry %q: no credential (set credential or %s)", a.Handle, orDefault(a.CredentialEnv, "credential_env"))
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// FindAgent returns the roster entry with the given handle.
func FindAgent(agents []model.AgentIdentity, handle string) (model.AgentIdentity, bool) {
	for _, a := range agents {
		if a.Handle == handle {
			return a, true
		}
	}
	return model.AgentIdentity{}, false
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
