package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderResolvesAgainstSearchPaths(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "lib.scm")
	if err := os.WriteFile(source, []byte("(define answer 42)\nanswer\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	loader, err := NewLoader([]string{dir, filepath.Join(dir, "does-not-exist")})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	program, err := loader.Load("lib.scm")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if program.Entry != source {
		t.Fatalf("entry = %q, want %q", program.Entry, source)
	}
	if len(program.Forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(program.Forms))
	}
}

func TestLoaderSuppliesExtension(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "main.scm")
	if err := os.WriteFile(source, []byte("1"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	loader, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	path, err := loader.Resolve("main")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if path != source {
		t.Fatalf("resolved %q, want %q", path, source)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader, err := NewLoader(nil)
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if _, err := loader.Load("nope.scm"); err == nil {
		t.Fatalf("expected a not-found error")
	}
}

func TestLoaderReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "bad.scm")
	if err := os.WriteFile(source, []byte("(define x"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	loader, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if _, err := loader.Load("bad.scm"); err == nil {
		t.Fatalf("expected read error for truncated source")
	}
}
