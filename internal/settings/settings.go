// Package settings holds the per-session state shared across commands: the
// auth token and the offline (replay) flag. It replaces ambient storage
// lookups with one object that callers receive explicitly.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	keyAuthToken   = "authToken"
	keyOfflineMode = "offlineMode"
)

// Settings is safe for concurrent use. Writes are persisted immediately.
type Settings struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// Open loads the session file at path. A missing file yields an empty session.
// An empty path keeps the session in memory only.
func Open(path string) (*Settings, error) {
	s := &Settings{path: path, values: map[string]string{}}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file, if any.
func (s *Settings) Path() string { return s.path }

// AuthToken returns the stored token or "".
func (s *Settings) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyAuthToken]
}

// SetAuthToken stores token.
func (s *Settings) SetAuthToken(token string) error {
	return s.set(keyAuthToken, token)
}

// ClearAuthToken removes the stored token.
func (s *Settings) ClearAuthToken() error {
	return s.set(keyAuthToken, "")
}

// OfflineMode reports whether replay mode is on.
func (s *Settings) OfflineMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyOfflineMode] == "true"
}

// SetOfflineMode toggles replay mode.
func (s *Settings) SetOfflineMode(on bool) error {
	v := "false"
	if on {
		v = "true"
	}
	return s.set(keyOfflineMode, v)
}

// set re-reads the file so keys written by other processes survive, then
// updates memory only once the write succeeded.
func (s *Settings) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.readLocked()
	if err != nil {
		return err
	}
	if value == "" {
		delete(next, key)
	} else {
		next[key] = value
	}
	if err := s.writeLocked(next); err != nil {
		return fmt.Errorf("save session %s: %w", s.path, err)
	}
	s.values = next
	return nil
}

// Reload re-reads the session file and reports whether the offline flag changed.
func (s *Settings) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.readLocked()
	if err != nil {
		return false, err
	}
	changed := s.values[keyOfflineMode] != values[keyOfflineMode]
	s.values = values
	return changed, nil
}

// readLocked returns a fresh copy of the persisted values. Without a backing
// file the in-memory values are copied instead.
func (s *Settings) readLocked() (map[string]string, error) {
	values := map[string]string{}
	if s.path == "" {
		for k, v := range s.values {
			values[k] = v
		}
		return values, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read session %s: %w", s.path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", s.path, err)
		}
	}
	return values, nil
}

func (s *Settings) writeLocked(values map[string]string) error {
	if s.path == "" {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Watch re-reads the session file every interval until ctx ends and calls fn
// with the new offline flag whenever another process changed it.
func (s *Settings) Watch(ctx context.Context, interval time.Duration, fn func(offline bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := s.Reload()
			if err != nil || !changed {
				continue
			}
			if fn != nil {
				fn(s.OfflineMode())
			}
		}
	}
}
