package config

import (
	"fmt"
	"os"
	"sync"
)

// CredentialsFile is a temporary file holding the Google credentials JSON.
// It exists from WriteCredentialsFile until Close.
type CredentialsFile struct {
	path string
	once sync.Once
	err  error
}

// WriteCredentialsFile writes the credentials payload to a private temp file
func WriteCredentialsFile(payload string) (*CredentialsFile, error) {
	f, err := os.CreateTemp("", "reels-relay-credentials-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials file: %w", err)
	}

	if _, err := f.WriteString(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close credentials file: %w", err)
	}

	return &CredentialsFile{path: f.Name()}, nil
}

// Path returns the location of the credentials file
func (c *CredentialsFile) Path() string {
	return c.path
}

// Close deletes the credentials file. It is safe to call more than once.
func (c *CredentialsFile) Close() error {
	c.once.Do(func() {
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			c.err = fmt.Errorf("failed to remove credentials file: %w", err)
		}
	})
	return c.err
}
