// Package audio stores synthesized speech artifacts under the static
// directory served by the HTTP gateway.
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store writes one MP3 file per synthesized reply. Filenames are random
// UUIDs so concurrent calls never overwrite each other's audio.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore creates the artifact directory if needed. urlPrefix is the public
// path the gateway serves the directory under, e.g. "/static".
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir %s: %w", dir, err)
	}
	return &Store{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the on-disk artifact directory.
func (s *Store) Dir() string { return s.dir }

// Save persists the audio stream and returns the URL path it will be served
// from.
func (s *Store) Save(audio io.Reader) (string, error) {
	name := uuid.NewString() + ".mp3"
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	return s.urlPrefix + "/" + name, nil
}

// Prune deletes artifacts older than maxAge and returns how many were
// removed. Synthesized audio is only needed for the duration of one call.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mp3" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
