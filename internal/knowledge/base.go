// Package knowledge loads the static reference text injected into every
// general-query prompt. The base is read once at startup and never changes
// for the life of the process.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Base holds the knowledge text. Immutable after Load.
type Base struct {
	text string
}

// Load reads the knowledge base from path. A regular file is used as-is;
// a directory is read as every .txt and .md file inside it, concatenated
// in name order with blank-line separators.
func Load(path string) (*Base, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge base %s: %w", path, err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base: %w", err)
		}
		return &Base{text: strings.TrimSpace(string(data))}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".txt", ".md":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("knowledge dir %s contains no .txt or .md files", path)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(string(data)))
	}
	return &Base{text: sb.String()}, nil
}

// Text returns the full knowledge text.
func (b *Base) Text() string { return b.text }

// Empty reports whether the base carries no text.
func (b *Base) Empty() bool { return b.text == "" }
