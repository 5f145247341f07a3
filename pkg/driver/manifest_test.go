package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "package.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
name: demo-app
version: 0.1.0
license: MIT
authors:
  - Ada
targets:
  main:
    type: executable
    main: src/main.scm
  lib:
    type: library
dependencies:
  utils:
    git: https://example.com/utils.git
    tag: v1.2.0
  local:
    path: ../local
`)
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if manifest.Name != "demo_app" {
		t.Fatalf("expected sanitized name demo_app, got %q", manifest.Name)
	}
	target, err := manifest.DefaultExecutableTarget()
	if err != nil {
		t.Fatalf("DefaultExecutableTarget failed: %v", err)
	}
	if target.Main != "src/main.scm" {
		t.Fatalf("unexpected main entrypoint %q", target.Main)
	}
	if _, ok := manifest.FindTarget("lib"); !ok {
		t.Fatalf("expected to find lib target")
	}
	dep := manifest.Dependencies["utils"]
	if dep == nil || dep.Git != "https://example.com/utils.git" || dep.Tag != "v1.2.0" {
		t.Fatalf("unexpected utils dependency %#v", dep)
	}
}

func TestLoadManifestShorthandDependency(t *testing.T) {
	path := writeManifest(t, `
name: demo
dependencies:
  utils: https://example.com/utils.git
`)
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	dep := manifest.Dependencies["utils"]
	if dep == nil || dep.Git != "https://example.com/utils.git" {
		t.Fatalf("bare string should become a git source, got %#v", dep)
	}
}

func TestLoadManifestAggregatesValidationIssues(t *testing.T) {
	path := writeManifest(t, `
name: ""
targets:
  main:
    type: executable
dependencies:
  broken:
    git: https://example.com/x.git
    path: ../x
`)
	_, err := LoadManifest(path)
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	joined := strings.Join(verr.Issues, "\n")
	for _, want := range []string{
		"name must be provided",
		`target "main" requires a main entrypoint`,
		"dependencies.broken: path overrides cannot also specify a git source",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing issue %q in:\n%s", want, joined)
		}
	}
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, `
name: demo
colour: blue
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("unknown top-level keys must be rejected")
	}
}

func TestLoadManifestRejectsConflictingRefs(t *testing.T) {
	path := writeManifest(t, `
name: demo
dependencies:
  utils:
    git: https://example.com/utils.git
    tag: v1
    branch: main
`)
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "rev, tag, and branch are mutually exclusive") {
		t.Fatalf("expected mutually-exclusive ref error, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Demo App":   "demo_app",
		"my-lib":     "my_lib",
		"  spaced  ": "spaced",
		"a//b":       "a_b",
		"trail-":     "trail",
	}
	for input, want := range cases {
		if got := SanitizeName(input); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", input, got, want)
		}
	}
}
