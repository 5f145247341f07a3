package driver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.lock")

	lock := NewLockfile("demo", "minischeme-test")
	lock.Upsert(&LockedPackage{
		Name:     "utils",
		Source:   "https://example.com/utils.git tag v1",
		Revision: "0123456789abcdef",
		Dir:      "/cache/pkg/utils/0123456789abcdef",
	})
	lock.Upsert(&LockedPackage{Name: "local", Source: "path ../local", Dir: "/work/local"})

	if err := WriteLockfile(lock, path); err != nil {
		t.Fatalf("WriteLockfile failed: %v", err)
	}
	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("LoadLockfile failed: %v", err)
	}
	if loaded.Root != "demo" || loaded.Tool != "minischeme-test" {
		t.Fatalf("unexpected header %#v", loaded)
	}
	if len(loaded.Packages) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(loaded.Packages))
	}
	// Packages are sorted on write.
	if loaded.Packages[0].Name != "local" || loaded.Packages[1].Name != "utils" {
		t.Fatalf("packages not sorted: %#v", loaded.Packages)
	}
	pkg, ok := loaded.FindPackage("utils")
	if !ok || pkg.Revision != "0123456789abcdef" {
		t.Fatalf("FindPackage(utils) = %#v, %v", pkg, ok)
	}
}

func TestLoadLockfileMissing(t *testing.T) {
	_, err := LoadLockfile(filepath.Join(t.TempDir(), "package.lock"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLockfileUpsertReportsChanges(t *testing.T) {
	lock := NewLockfile("demo", "tool")
	pkg := &LockedPackage{Name: "utils", Source: "git", Revision: "aaa", Dir: "/a"}
	if !lock.Upsert(pkg) {
		t.Fatalf("first insert should change the lockfile")
	}
	same := *pkg
	if lock.Upsert(&same) {
		t.Fatalf("identical entry should not count as a change")
	}
	same.Revision = "bbb"
	if !lock.Upsert(&same) {
		t.Fatalf("revision change should count as a change")
	}
	if got, _ := lock.FindPackage("utils"); got.Revision != "bbb" {
		t.Fatalf("expected updated revision, got %#v", got)
	}
}

func TestInstallerUsesPathDependenciesInPlace(t *testing.T) {
	workDir := t.TempDir()
	depDir := filepath.Join(workDir, "local")
	if err := os.MkdirAll(depDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifestPath := filepath.Join(workDir, "package.yml")
	if err := os.WriteFile(manifestPath, []byte("name: demo\ndependencies:\n  local:\n    path: ./local\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	lock := NewLockfile(manifest.Name, "tool")
	installer := NewInstaller(manifest, filepath.Join(workDir, "cache"))
	changed, logs, err := installer.Install(lock)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if !changed {
		t.Fatalf("expected lockfile change")
	}
	if len(logs) != 1 {
		t.Fatalf("expected one log line, got %#v", logs)
	}
	pkg, ok := lock.FindPackage("local")
	if !ok || pkg.Dir != depDir {
		t.Fatalf("expected path dependency resolved to %s, got %#v", depDir, pkg)
	}
}

func TestInstallerRejectsMissingPathDependency(t *testing.T) {
	workDir := t.TempDir()
	manifestPath := filepath.Join(workDir, "package.yml")
	if err := os.WriteFile(manifestPath, []byte("name: demo\ndependencies:\n  gone:\n    path: ./gone\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	installer := NewInstaller(manifest, filepath.Join(workDir, "cache"))
	if _, _, err := installer.Install(NewLockfile(manifest.Name, "tool")); err == nil {
		t.Fatalf("missing path dependency must fail")
	}
}
