package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lockfile captures the resolved state of a manifest's dependencies.
// It is written next to package.yml as package.lock.
type Lockfile struct {
	Path     string           `yaml:"-"`
	Root     string           `yaml:"root"`
	Tool     string           `yaml:"tool"`
	Packages []*LockedPackage `yaml:"packages"`
}

// LockedPackage pins one dependency to an exact source revision and
// its location in the local cache.
type LockedPackage struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Revision string `yaml:"revision,omitempty"`
	Dir      string `yaml:"dir"`
}

// NewLockfile returns an empty lockfile for the named root package.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{Root: root, Tool: tool}
}

// LoadLockfile reads and parses a package.lock file.
func LoadLockfile(path string) (*Lockfile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	var lock Lockfile
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", absPath, err)
	}
	lock.Path = absPath
	if lock.Root == "" {
		return nil, fmt.Errorf("lockfile: %s missing root package name", absPath)
	}
	return &lock, nil
}

// WriteLockfile serializes the lockfile to path with packages sorted
// by name so repeated installs produce identical files.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nothing to write")
	}
	packages := make([]*LockedPackage, 0, len(lock.Packages))
	for _, pkg := range lock.Packages {
		if pkg != nil {
			packages = append(packages, pkg)
		}
	}
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})
	lock.Packages = packages

	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("lockfile: encode: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", absPath, err)
	}
	lock.Path = absPath
	return nil
}

// FindPackage looks up a locked package by sanitized name.
func (l *Lockfile) FindPackage(name string) (*LockedPackage, bool) {
	if l == nil {
		return nil, false
	}
	key := SanitizeName(name)
	for _, pkg := range l.Packages {
		if pkg != nil && SanitizeName(pkg.Name) == key {
			return pkg, true
		}
	}
	return nil, false
}

// Upsert replaces the entry matching pkg's name or appends a new one,
// reporting whether the lockfile changed.
func (l *Lockfile) Upsert(pkg *LockedPackage) bool {
	if l == nil || pkg == nil {
		return false
	}
	key := SanitizeName(pkg.Name)
	for idx, existing := range l.Packages {
		if existing == nil || SanitizeName(existing.Name) != key {
			continue
		}
		if *existing == *pkg {
			return false
		}
		l.Packages[idx] = pkg
		return true
	}
	l.Packages = append(l.Packages, pkg)
	return true
}

// describeSource renders a dependency's source for log lines.
func describeSource(dep *DependencySpec) string {
	if dep == nil {
		return "<none>"
	}
	if dep.Path != "" {
		return "path " + dep.Path
	}
	ref := ""
	switch {
	case dep.Tag != "":
		ref = " tag " + dep.Tag
	case dep.Branch != "":
		ref = " branch " + dep.Branch
	case dep.Rev != "":
		ref = " rev " + shortRevision(dep.Rev)
	}
	return dep.Git + ref
}

func shortRevision(rev string) string {
	rev = strings.TrimSpace(rev)
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
