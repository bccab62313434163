package filerepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/sessions"
)

var _ sessions.Repo = (*FileRepo)(nil)

// FileRepo is a key-value repo persisted as one JSON object in a file readable
// only by the current user. Writes go through a temp file and a rename.
type FileRepo struct {
	path string
	mu   sync.Mutex
}

func New(path string) *FileRepo {
	return &FileRepo{path: path}
}

func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	value, ok := entries[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return value, nil
}

func (r *FileRepo) Put(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("[filerepo Put] value for %q is not valid JSON", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking new sessions
		entries = make(map[string]json.RawMessage)
	}
	entries[key] = value
	return r.save(entries)
}

func (r *FileRepo) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)

	if len(entries) == 0 {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("[filerepo Delete] remove: %w", err)
		}
		return nil
	}
	return r.save(entries)
}

func (r *FileRepo) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filerepo load] read: %w", err)
	}

	entries := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("[filerepo load] decode %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *FileRepo) save(entries map[string]json.RawMessage) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("[filerepo save] encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("[filerepo save] mkdir: %w", err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("[filerepo save] write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("[filerepo save] atomic rename: %w", err)
	}
	return nil
}
