// Package jsonfile reads and writes the whole-collection JSON array
// files used by the file storage backend.
//
// Layout contract: each file holds exactly one JSON array, 2-space
// indented, with HTML escaping disabled. The file is read in full and
// rewritten in full on every mutation; callers own the serialisation of
// those mutations.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// EnsureArray creates path containing an empty JSON array if it does not
// already exist, creating parent directories as needed.
func EnsureArray(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking storage file: %w", err)
	}
	if err := os.WriteFile(path, []byte("[]"), filePermissions); err != nil {
		return fmt.Errorf("initialising storage file: %w", err)
	}
	return nil
}

// Read loads the array at path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Write rewrites path with the array in v.
func Write(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	// Encode appends a newline the layout does not carry.
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
