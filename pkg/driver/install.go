package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Installer materializes a manifest's dependencies into the shared
// cache directory and records the outcome in a lockfile.
type Installer struct {
	manifest *Manifest
	cacheDir string
}

// NewInstaller returns an installer cloning into cacheDir.
func NewInstaller(manifest *Manifest, cacheDir string) *Installer {
	return &Installer{manifest: manifest, cacheDir: cacheDir}
}

// Install resolves every dependency in the manifest, cloning git
// sources that are not already cached and resolving path sources in
// place. It reports whether the lockfile changed, plus one log line
// per dependency.
func (inst *Installer) Install(lock *Lockfile) (bool, []string, error) {
	if inst.manifest == nil {
		return false, nil, fmt.Errorf("installer: no manifest")
	}
	if lock == nil {
		return false, nil, fmt.Errorf("installer: no lockfile")
	}

	names := make([]string, 0, len(inst.manifest.Dependencies))
	for name := range inst.manifest.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := false
	var logs []string
	for _, name := range names {
		dep := inst.manifest.Dependencies[name]
		if dep == nil {
			continue
		}
		pkg, line, err := inst.installOne(name, dep, lock)
		if err != nil {
			return changed, logs, fmt.Errorf("installer: %s: %w", name, err)
		}
		if lock.Upsert(pkg) {
			changed = true
		}
		logs = append(logs, line)
	}
	return changed, logs, nil
}

func (inst *Installer) installOne(name string, dep *DependencySpec, lock *Lockfile) (*LockedPackage, string, error) {
	if dep.Path != "" {
		base := filepath.Dir(inst.manifest.Path)
		dir := dep.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		dir = filepath.Clean(dir)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, "", fmt.Errorf("path dependency %s: %w", dep.Path, err)
		}
		if !info.IsDir() {
			return nil, "", fmt.Errorf("path dependency %s is not a directory", dep.Path)
		}
		pkg := &LockedPackage{
			Name:   name,
			Source: describeSource(dep),
			Dir:    dir,
		}
		return pkg, fmt.Sprintf("Using %s from %s", name, dir), nil
	}

	// A locked revision that is already present in the cache needs no
	// network access at all.
	if locked, ok := lock.FindPackage(name); ok && locked.Revision != "" && dep.Rev == "" {
		dir := inst.packageDir(name, locked.Revision)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return locked, fmt.Sprintf("Cached %s at %s", name, shortRevision(locked.Revision)), nil
		}
	}

	revision, dir, err := inst.clone(name, dep)
	if err != nil {
		return nil, "", err
	}
	pkg := &LockedPackage{
		Name:     name,
		Source:   describeSource(dep),
		Revision: revision,
		Dir:      dir,
	}
	return pkg, fmt.Sprintf("Installed %s at %s", name, shortRevision(revision)), nil
}

func (inst *Installer) clone(name string, dep *DependencySpec) (string, string, error) {
	if dep.Git == "" {
		return "", "", fmt.Errorf("no git source declared")
	}

	// Pinned revisions get a stable cache slot; clone into it once and
	// reuse it forever.
	if dep.Rev != "" {
		dir := inst.packageDir(name, dep.Rev)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dep.Rev, dir, nil
		}
		if err := inst.cloneInto(dir, dep, plumbing.NewHash(dep.Rev)); err != nil {
			return "", "", err
		}
		return dep.Rev, dir, nil
	}

	// Tags and branches resolve to a revision at install time, so clone
	// into a staging directory first and rename once the hash is known.
	staging := inst.packageDir(name, "staging")
	if err := os.RemoveAll(staging); err != nil {
		return "", "", fmt.Errorf("clear staging dir: %w", err)
	}
	repo, err := inst.cloneRef(staging, dep)
	if err != nil {
		return "", "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("resolve HEAD of %s: %w", dep.Git, err)
	}
	revision := head.Hash().String()
	dir := inst.packageDir(name, revision)
	if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
		if err := os.RemoveAll(staging); err != nil {
			return "", "", fmt.Errorf("clear staging dir: %w", err)
		}
		return revision, dir, nil
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return "", "", fmt.Errorf("finalize clone: %w", err)
	}
	return revision, dir, nil
}

func (inst *Installer) cloneRef(dir string, dep *DependencySpec) (*git.Repository, error) {
	options := &git.CloneOptions{URL: dep.Git}
	switch {
	case dep.Tag != "":
		options.ReferenceName = plumbing.NewTagReferenceName(dep.Tag)
		options.SingleBranch = true
	case dep.Branch != "":
		options.ReferenceName = plumbing.NewBranchReferenceName(dep.Branch)
		options.SingleBranch = true
	}
	repo, err := git.PlainClone(dir, false, options)
	if err != nil && !errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return nil, fmt.Errorf("clone %s: %w", dep.Git, err)
	}
	if repo == nil {
		repo, err = git.PlainOpen(dir)
		if err != nil {
			return nil, fmt.Errorf("open cached clone %s: %w", dir, err)
		}
	}
	return repo, nil
}

func (inst *Installer) cloneInto(dir string, dep *DependencySpec, hash plumbing.Hash) error {
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: dep.Git})
	if err != nil {
		return fmt.Errorf("clone %s: %w", dep.Git, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		return fmt.Errorf("checkout %s: %w", hash, err)
	}
	return nil
}

func (inst *Installer) packageDir(name, revision string) string {
	return filepath.Join(inst.cacheDir, "pkg", SanitizeName(name), revision)
}
