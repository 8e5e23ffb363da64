// Package cache stores short-lived read results on disk so repeated CLI
// invocations and MCP calls can skip slow host scans. Only project, tag and
// folder lists are cached; tasks always come from the host.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	lockFileName = ".lock"
	dirMode      = 0o700
	fileMode     = 0o600
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// SanitizeKey maps a cache key to a file-name-safe form.
func SanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

type entry struct {
	Data    json.RawMessage `json:"data"`
	Expires int64           `json:"expires"`
}

// Store is a directory of JSON cache files. Writes are atomic renames made
// under an advisory lock; concurrent writers race with last-writer-wins.
type Store struct {
	dir string
	now func() time.Time
}

// New returns a Store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, SanitizeKey(key)+".json")
}

// Get loads key into dst. It reports false for missing, expired or unreadable
// entries; an unreadable entry is removed.
func (s *Store) Get(key string, dst any) (bool, error) {
	p := s.path(key)
	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache %s: %w", key, err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		_ = os.Remove(p)
		return false, nil
	}
	if s.now().UnixMilli() >= e.Expires {
		return false, nil
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		_ = os.Remove(p)
		return false, nil
	}
	return true, nil
}

// Set stores v under key for ttl.
func (s *Store) Set(key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	raw, err := json.Marshal(entry{Data: data, Expires: s.now().Add(ttl).UnixMilli()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	unlock, err := lock(filepath.Join(s.dir, lockFileName))
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	defer unlock()

	tmp := filepath.Join(s.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, raw, fileMode); err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit cache %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(keys ...string) error {
	for _, k := range keys {
		if err := os.Remove(s.path(k)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Clear removes every cache entry and returns how many were removed.
func (s *Store) Clear() (int, error) {
	ents, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, err
		}
		n++
	}
	return n, nil
}
