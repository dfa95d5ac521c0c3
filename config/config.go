// Package config implements the node's configuration sidecar: a JSON
// document keyed by module static name, persisted with an atomic
// temp-file-then-rename writer so a crash mid-write never corrupts the
// previous, valid configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Document is the on-disk shape: a "modules" map whose values are opaque
// to the sidecar itself. Each owning module deserializes its own entry
// into its strongly-typed ModuleConf.
type Document struct {
	Modules map[string]json.RawMessage `json:"modules"`
}

// ValidationError reports a structural problem with a loaded configuration
// document: field, offending value, and the constraint it violates.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s=%v violates constraint: %s", e.Field, e.Value, e.Constraint)
}

// Store owns one profile's configuration file on disk and serializes all
// reads/writes against it. It is the sole owner of the configuration
// thread's state in the router's three-thread design.
type Store struct {
	path string

	mu  sync.Mutex
	doc Document
}

// Open loads path if it exists, or starts from an empty document if it
// does not (a fresh profile has no conf.json yet).
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: Document{Modules: map[string]json.RawMessage{}}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if s.doc.Modules == nil {
		s.doc.Modules = map[string]json.RawMessage{}
	}
	return s, nil
}

// Module returns the named module's raw configuration, or nil if absent.
func (s *Store) Module(name string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Modules[name]
}

// SaveModule overwrites modules[name] with value and persists the whole
// document atomically: write to a temp file in the same directory, then
// rename over the target. Rename is atomic on the same filesystem, so a
// reader never observes a partially written file.
func (s *Store) SaveModule(name string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Modules[name] = value
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".conf-*.json.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}
