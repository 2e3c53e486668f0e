// Package artifacts writes generated code and diagram files to disk.
// Every write gets a fresh timestamped name; nothing is ever overwritten.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Store writes artifacts under two fixed directories.
type Store struct {
	codeDir    string
	diagramDir string
	seq        atomic.Uint64
}

// NewStore creates a store rooted at the given directories, creating
// them if needed.
func NewStore(codeDir, diagramDir string) (*Store, error) {
	for _, dir := range []string{codeDir, diagramDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact dir %s: %w", dir, err)
		}
	}
	return &Store{codeDir: codeDir, diagramDir: diagramDir}, nil
}

// stamp produces a unique filename suffix. The sequence counter keeps
// names distinct when two writes land in the same second.
func (s *Store) stamp() string {
	return fmt.Sprintf("%s_%04d", time.Now().UTC().Format("20060102_150405"), s.seq.Add(1))
}

// WriteCode saves code text as a new {provider}_{tool}_{timestamp}.{ext}
// file and returns the filename and full path.
func (s *Store) WriteCode(code, provider, tool, ext string) (filename, path string, err error) {
	filename = fmt.Sprintf("%s_%s_%s.%s", provider, tool, s.stamp(), ext)
	path = filepath.Join(s.codeDir, filename)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write code artifact: %w", err)
	}
	return filename, path, nil
}

// WriteDiagram saves a diagram description as a new .mmd file.
func (s *Store) WriteDiagram(diagram, provider string) (filename, path string, err error) {
	filename = fmt.Sprintf("%s_diagram_%s.mmd", provider, s.stamp())
	path = filepath.Join(s.diagramDir, filename)
	if err := os.WriteFile(path, []byte(diagram), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write diagram artifact: %w", err)
	}
	return filename, path, nil
}

// WriteHTML saves an HTML preview document next to the diagrams.
func (s *Store) WriteHTML(html, provider string) (path string, err error) {
	filename := fmt.Sprintf("%s_interactive_diagram_%s.html", provider, s.stamp())
	path = filepath.Join(s.diagramDir, filename)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("failed to write html artifact: %w", err)
	}
	return path, nil
}

// ReadCode returns the exact bytes previously written to path.
func (s *Store) ReadCode(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read code artifact: %w", err)
	}
	return string(b), nil
}
