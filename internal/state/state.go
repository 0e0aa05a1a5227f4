// Package state persists the last known per-section PR data so the UI
// has something to show before the first refresh completes.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/model"
	"github.com/hal/prwatch/internal/section"
)

// SectionData is the durable snapshot of one section: the per-user PR
// mapping plus the time it was fetched.
type SectionData struct {
	Data      map[string][]model.PullRequest `json:"data"`
	Timestamp time.Time                      `json:"timestamp"`
}

// Store is the persisted UI state. The snapshot file also carries
// UI-only keys (section-expanded flags and the like); those are round-
// tripped untouched, never interpreted.
type Store struct {
	path string

	mu       sync.Mutex
	sections map[section.Section]SectionData
	extra    map[string]json.RawMessage
}

// DefaultPath returns the state file location under the user config
// directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "prwatch", "state.json"), nil
}

// Load reads the snapshot at path. A missing or corrupt file yields an
// empty store, never an error.
func Load(path string) *Store {
	s := &Store{
		path:     path,
		sections: map[section.Section]SectionData{},
		extra:    map[string]json.RawMessage{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("ignoring corrupt state file", "path", path, "error", err)
		return s
	}

	for key, value := range raw {
		sec := section.Section(key)
		if !sec.Valid() {
			s.extra[key] = value
			continue
		}
		var sd SectionData
		if err := json.Unmarshal(value, &sd); err != nil {
			log.Warn("ignoring corrupt state section", "section", key, "error", err)
			continue
		}
		s.sections[sec] = sd
	}

	return s
}

// PRData returns the stored mapping and fetch time for a section. A
// section never stored returns an empty mapping and ok=false.
func (s *Store) PRData(sec section.Section) (map[string][]model.PullRequest, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, ok := s.sections[sec]
	if !ok {
		return map[string][]model.PullRequest{}, time.Time{}, false
	}
	return sd.Data, sd.Timestamp, true
}

// SetPRData stores a section's mapping with the current timestamp and
// persists synchronously.
func (s *Store) SetPRData(sec section.Section, data map[string][]model.PullRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections[sec] = SectionData{
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	return s.save()
}

// SectionKeys returns the identity triples of every PR stored for a
// section, used to seed the reconciler at startup.
func (s *Store) SectionKeys(sec section.Section) []model.Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []model.Key
	for _, prs := range s.sections[sec].Data {
		for i := range prs {
			keys = append(keys, prs[i].Key())
		}
	}
	return keys
}

// Clear drops all section data and persists the empty state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = map[section.Section]SectionData{}
	return s.save()
}

// save rewrites the whole snapshot file. Callers hold s.mu.
func (s *Store) save() error {
	out := make(map[string]json.RawMessage, len(s.sections)+len(s.extra))

	for key, value := range s.extra {
		out[key] = value
	}
	for sec, sd := range s.sections {
		data, err := json.Marshal(sd)
		if err != nil {
			return err
		}
		out[string(sec)] = data
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
