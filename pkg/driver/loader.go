package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minischeme/interpreter-go/pkg/syntax"
)

// Program is a fully read source file ready for evaluation.
type Program struct {
	Entry string
	Forms []syntax.Node
}

// Loader resolves source file references against an ordered list of
// search directories and reads them into datum form.
type Loader struct {
	searchPaths []string
}

// NewLoader returns a loader probing the given directories in order.
// Non-existent directories are dropped up front.
func NewLoader(searchPaths []string) (*Loader, error) {
	paths := make([]string, 0, len(searchPaths))
	for _, path := range searchPaths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("loader: resolve search path %q: %w", path, err)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			paths = append(paths, abs)
		}
	}
	return &Loader{searchPaths: paths}, nil
}

// Load resolves entry to a source file, reads it, and parses every
// top-level form.
func (l *Loader) Load(entry string) (*Program, error) {
	path, err := l.Resolve(entry)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	forms, err := syntax.Read(string(data))
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return &Program{Entry: path, Forms: forms}, nil
}

// Resolve locates entry on disk: absolute paths and paths relative to
// the working directory win, then each search directory is probed in
// order. A missing .scm extension is supplied during probing.
func (l *Loader) Resolve(entry string) (string, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", fmt.Errorf("loader: empty source reference")
	}

	candidates := []string{entry}
	if filepath.Ext(entry) == "" {
		candidates = append(candidates, entry+".scm")
	}

	for _, candidate := range candidates {
		if filepath.IsAbs(candidate) {
			if isFile(candidate) {
				return filepath.Clean(candidate), nil
			}
			continue
		}
		if isFile(candidate) {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return "", fmt.Errorf("loader: resolve %s: %w", candidate, err)
			}
			return abs, nil
		}
		for _, dir := range l.searchPaths {
			joined := filepath.Join(dir, filepath.FromSlash(candidate))
			if isFile(joined) {
				return joined, nil
			}
		}
	}
	return "", fmt.Errorf("loader: source file %q not found", entry)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
