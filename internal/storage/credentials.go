// Package storage provides the on-disk persistence for taskdeck: the
// credential file that keeps a session alive across restarts.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CredentialStore persists the bearer credential between runs.
// Get returns an empty token when no credential is stored; only I/O or
// decode problems are errors.
type CredentialStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// credentialFile is the YAML document written to disk.
type credentialFile struct {
	AccessToken string    `yaml:"access_token"`
	SavedAt     time.Time `yaml:"saved_at"`
}

// fileCredentialStore implements CredentialStore with a YAML file under
// the base path, readable only by the owner.
type fileCredentialStore struct {
	basePath string
}

// NewCredentialStore creates a CredentialStore backed by
// credentials.yaml in the given base directory.
func NewCredentialStore(basePath string) CredentialStore {
	return &fileCredentialStore{basePath: basePath}
}

func (s *fileCredentialStore) path() string {
	return filepath.Join(s.basePath, "credentials.yaml")
}

// Get reads the stored credential. A missing file is the logged-out
// state, not an error.
func (s *fileCredentialStore) Get() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading credentials: %w", err)
	}

	var cred credentialFile
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return "", fmt.Errorf("parsing credentials: %w", err)
	}
	return cred.AccessToken, nil
}

// Set writes the credential to disk with owner-only permissions.
func (s *fileCredentialStore) Set(token string) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("saving credentials: creating directory: %w", err)
	}

	data, err := yaml.Marshal(credentialFile{
		AccessToken: token,
		SavedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("saving credentials: marshalling: %w", err)
	}

	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Clearing an already-empty store
// succeeds.
func (s *fileCredentialStore) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}
