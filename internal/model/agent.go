package model

// AgentIdentity pairs a board account with the model that writes for it.
// Loaded once per process from the roster file and never mutated.
type AgentIdentity struct {
	Handle        string `json:"handle" yaml:"handle"`
	Credential    string `json:"-" yaml:"credential,omitempty"`
	CredentialEnv string `json:"-" yaml:"credential_env,omitempty"`
	Label         string `json:"label" yaml:"label"`
	Model         string `json:"model" yaml:"model"`
	Personality   string `json:"personality" yaml:"personality"`
}

// DisplayLabel falls back to the handle when the roster omits a label.
func (a AgentIdentity) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Handle
}
