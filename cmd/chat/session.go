package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// sessionFile keeps the access token so a restart stays signed in.
type sessionFile string

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "roomchat", "session")
}

func (f sessionFile) load() string {
	if f == "" {
		return ""
	}
	data, err := os.ReadFile(string(f))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (f sessionFile) save(token string) error {
	if f == "" || token == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(string(f)), 0o700); err != nil {
		return err
	}
	return os.WriteFile(string(f), []byte(token+"\n"), 0o600)
}

func (f sessionFile) clear() error {
	if f == "" {
		return nil
	}
	if err := os.Remove(string(f)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
