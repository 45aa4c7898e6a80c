package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const settingsFile = "app_config.json"

// Settings are the user-editable runtime preferences, persisted outside the
// media library so they survive library moves.
type Settings struct {
	DefaultSegmentDuration int    `json:"defaultSegmentDuration"`
	AutoTranscribe         bool   `json:"autoTranscribe"`
	WhisperModel           string `json:"whisperModel"`
	StreamCheckInterval    int    `json:"streamCheckIntervalSeconds"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		DefaultSegmentDuration: 60,
		WhisperModel:           "base",
		StreamCheckInterval:    120,
	}
}

// SettingsStore persists Settings as JSON in the data directory.
type SettingsStore struct {
	path string
	mu   sync.Mutex
}

func NewSettingsStore(dataDir string) (*SettingsStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("config: create data dir: %w", err)
	}
	return &SettingsStore{path: filepath.Join(dataDir, settingsFile)}, nil
}

// Load returns the persisted settings, falling back to defaults when nothing
// has been saved yet.
func (s *SettingsStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *SettingsStore) load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config: read settings: %w", err)
	}
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("config: parse settings: %w", err)
	}
	return settings, nil
}

// Save persists the full settings document.
func (s *SettingsStore) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

func (s *SettingsStore) save(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("config: write settings: %w", err)
	}
	return nil
}

// Patch merges a partial JSON document into the persisted settings and
// returns the result.
func (s *SettingsStore) Patch(partial []byte) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(partial, &settings); err != nil {
		return Settings{}, fmt.Errorf("config: parse settings patch: %w", err)
	}
	if err := s.save(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
