// Package storage provides thread-safe, bounded memoization of formatted analyses.
//
// Only ready analyses are kept: a finished analysis never changes, so its
// formatted record can be served again without refetching or reshaping it.
// The least recently used entries are evicted once the store is full.
//
// The set of analyses already reported is persisted to a JSON file so a
// restarted watcher does not announce them again. Memoized records are not
// persisted.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

const (
	filePermissions os.FileMode = 0o644
	dirPermissions  os.FileMode = 0o755

	persistenceVersion = "1.0"
)

// Entry is a memoized formatted analysis.
type Entry struct {
	Formatted  models.Formatted
	SampleName string
	StoredAt   time.Time
}

// Storage memoizes formatted analyses keyed by analysis ID
type Storage struct {
	entries  *lru.Cache[string, Entry]
	notified map[string]time.Time
	mu       sync.RWMutex

	filePath string
}

// PersistenceFile represents the file structure for JSON persistence
type PersistenceFile struct {
	Version  string               `json:"version"`
	SavedAt  time.Time            `json:"saved_at"`
	Notified map[string]time.Time `json:"notified"`
}

// New creates a new Storage holding at most maxEntries analyses. The notified
// set is persisted to filePath; if filePath is empty, an OS-appropriate tmp
// directory is used.
func New(maxEntries int, filePath string) (*Storage, error) {
	entries, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "vtanalysis", "notified.json")
	}

	return &Storage{
		entries:  entries,
		notified: make(map[string]time.Time),
		filePath: filePath,
	}, nil
}

// Put memoizes a formatted analysis with the name of its sample. Analyses that
// are not ready are ignored and any stale entry for them is dropped. It
// reports whether f was stored.
func (s *Storage) Put(f models.Formatted, sampleName string) bool {
	if f == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !f.IsReady() {
		s.entries.Remove(f.AnalysisID())
		return false
	}

	s.entries.Add(f.AnalysisID(), Entry{Formatted: f, SampleName: sampleName, StoredAt: time.Now()})
	return true
}

// Get returns the memoized analysis with the given ID
func (s *Storage) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries.Get(id)
}

// Len returns the number of memoized analyses
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries.Len()
}

// MarkNotified records that a report for the analysis has been sent
func (s *Storage) MarkNotified(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notified[id] = time.Now()
}

// Notified reports whether a report for the analysis has been sent
func (s *Storage) Notified(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.notified[id]
	return ok
}

// Save persists the notified set to file
func (s *Storage) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data := PersistenceFile{
		Version:  persistenceVersion,
		SavedAt:  time.Now(),
		Notified: s.notified,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to a temporary file first so a crash never leaves a torn file
	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Load restores the notified set from file. A missing file leaves the set empty.
func (s *Storage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp file from a previous crash
	tempPath := s.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	jsonData, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data PersistenceFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	s.notified = data.Notified
	if s.notified == nil {
		s.notified = make(map[string]time.Time)
	}

	return nil
}
