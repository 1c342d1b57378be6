package audio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSave_UniqueNames(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatal(err)
	}

	url1, err := s.Save(strings.NewReader("audio-one"))
	if err != nil {
		t.Fatal(err)
	}
	url2, err := s.Save(strings.NewReader("audio-two"))
	if err != nil {
		t.Fatal(err)
	}

	if url1 == url2 {
		t.Errorf("two saves produced the same URL: %s", url1)
	}
	for _, u := range []string{url1, url2} {
		if !strings.HasPrefix(u, "/static/") || !strings.HasSuffix(u, ".mp3") {
			t.Errorf("unexpected artifact URL %q", u)
		}
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), filepath.Base(url1)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio-one" {
		t.Errorf("artifact content = %q", data)
	}
}

func TestPrune_RemovesOldArtifacts(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatal(err)
	}

	url, err := s.Save(strings.NewReader("stale"))
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(s.Dir(), filepath.Base(url))
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Save(strings.NewReader("fresh")); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Prune(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale artifact should be gone")
	}
}
