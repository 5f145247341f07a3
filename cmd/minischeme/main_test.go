package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestRunVersionFlag(t *testing.T) {
	if code := run([]string{"--version"}); code != 0 {
		t.Fatalf("--version exit code = %d", code)
	}
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("version exit code = %d", code)
	}
}

func TestRunHelpFlag(t *testing.T) {
	if code := run([]string{"--help"}); code != 0 {
		t.Fatalf("--help exit code = %d", code)
	}
}

func TestRunScriptFile(t *testing.T) {
	path := writeSource(t, "ok.scm", "(define x 2)\n(display (* x x))\n")
	if code := run([]string{path}); code != 0 {
		t.Fatalf("script run exit code = %d", code)
	}
}

func TestRunScriptRuntimeError(t *testing.T) {
	path := writeSource(t, "bad.scm", "(car 1)\n")
	if code := run([]string{path}); code != 1 {
		t.Fatalf("runtime error should exit 1, got %d", code)
	}
}

func TestRunScriptExitStopsCleanly(t *testing.T) {
	path := writeSource(t, "exit.scm", "(exit)\n(car 1)\n")
	if code := run([]string{path}); code != 0 {
		t.Fatalf("exit should stop evaluation with code 0, got %d", code)
	}
}

func TestRunManifestTarget(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "main.scm"), []byte("(display 1)\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	manifest := "name: demo\ntargets:\n  main:\n    type: executable\n    main: src/main.scm\n"
	if err := os.WriteFile(filepath.Join(dir, "package.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)

	if code := run([]string{"run"}); code != 0 {
		t.Fatalf("manifest target run exit code = %d", code)
	}
	if code := run([]string{"run", "main"}); code != 0 {
		t.Fatalf("named target run exit code = %d", code)
	}
}

func TestRunPreloadsDependencyLibraries(t *testing.T) {
	dir := t.TempDir()
	depDir := filepath.Join(dir, "dep")
	if err := os.MkdirAll(depDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	depManifest := "name: utils\ntargets:\n  lib:\n    type: library\n    main: lib.scm\n"
	if err := os.WriteFile(filepath.Join(depDir, "package.yml"), []byte(depManifest), 0o644); err != nil {
		t.Fatalf("write dep manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(depDir, "lib.scm"), []byte("(define answer 42)\n"), 0o644); err != nil {
		t.Fatalf("write dep source: %v", err)
	}

	manifest := "name: demo\ntargets:\n  main:\n    type: executable\n    main: main.scm\ndependencies:\n  utils:\n    path: ./dep\n"
	if err := os.WriteFile(filepath.Join(dir, "package.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	lock := "root: demo\ntool: test\npackages:\n  - name: utils\n    source: path ./dep\n    dir: " + depDir + "\n"
	if err := os.WriteFile(filepath.Join(dir, "package.lock"), []byte(lock), 0o644); err != nil {
		t.Fatalf("write lockfile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.scm"), []byte("(display answer)\n"), 0o644); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)

	if code := run([]string{"run"}); code != 0 {
		t.Fatalf("run with dependency library exit code = %d", code)
	}
}

func TestRunDepsRequiresSubcommand(t *testing.T) {
	if code := run([]string{"deps"}); code != 1 {
		t.Fatalf("bare deps should exit 1, got %d", code)
	}
	if code := run([]string{"deps", "frobnicate"}); code != 1 {
		t.Fatalf("unknown deps subcommand should exit 1, got %d", code)
	}
}

func TestFindManifestWalksUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifestPath := filepath.Join(root, "package.yml")
	if err := os.WriteFile(manifestPath, []byte("name: demo\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	found, err := findManifest(nested)
	if err != nil {
		t.Fatalf("findManifest failed: %v", err)
	}
	if found != manifestPath {
		t.Fatalf("found %q, want %q", found, manifestPath)
	}
}

func TestLooksLikePathCandidate(t *testing.T) {
	for _, arg := range []string{"dir/file", "./x", "main.scm", `a\b`} {
		if !looksLikePathCandidate(arg) {
			t.Fatalf("%q should look like a path", arg)
		}
	}
	for _, arg := range []string{"", "maintarget"} {
		if looksLikePathCandidate(arg) {
			t.Fatalf("%q should not look like a path", arg)
		}
	}
}
