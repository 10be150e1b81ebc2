package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
	"go.uber.org/zap"
)

// WriteTree snapshots dir, which must be the root or lie below it, and
// stores every object of the snapshot. Ignored entries and the metadata
// directory are left out. Objects already in the store are not rewritten,
// so calling WriteTree on an unchanged directory is cheap and returns the
// same hash.
func (r *Repo) WriteTree(dir string) (object.Hash, error) {
	abs, err := r.worktreePath(dir)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write tree: %w", err)
	}
	tree, err := object.TreeFromDirectory(abs, r.ignore)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write tree: %w", err)
	}
	if err := tree.Write(r.Store); err != nil {
		return object.ZeroHash, fmt.Errorf("write tree: %w", err)
	}
	r.log.Debug("wrote tree", zap.String("dir", abs), zap.Stringer("tree", tree.Hash()))
	return tree.Hash(), nil
}

// ReadTree replaces the contents of dir with the tree h.
//
// The tree is loaded in full before anything on disk changes. Every entry
// of dir is then removed except the metadata directory and ignored paths,
// which survive at any depth, and the tree is written out. Untracked files
// that are not ignored are lost.
func (r *Repo) ReadTree(dir string, h object.Hash) error {
	abs, err := r.worktreePath(dir)
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	tree, err := object.ReadTree(r.Store, h)
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	if err := tree.Restorable(); err != nil {
		return fmt.Errorf("read tree %s: %w", h, err)
	}
	if err := r.clearDir(abs); err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	if err := tree.WriteToDirectory(abs); err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	r.log.Debug("restored tree", zap.String("dir", abs), zap.Stringer("tree", h))
	return nil
}

// clearDir removes every entry of dir that is not ignored. Every path is
// decided before the first removal, since removing a rule file would change
// the decisions for its siblings.
func (r *Repo) clearDir(dir string) error {
	removals, _, err := r.planClear(dir)
	if err != nil {
		return err
	}
	for _, path := range removals {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}

// planClear lists the entries of dir to remove. Directories are descended
// into so ignored entries inside them survive; a directory with nothing
// left to keep is listed as a whole. It reports whether anything in dir
// is kept.
func (r *Repo) planClear(dir string) (removals []string, kept bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false, err
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if path == r.MetaDir {
			kept = true
			continue
		}
		ignored, err := r.ignore.Excluded(path)
		if err != nil {
			return nil, false, err
		}
		if ignored {
			kept = true
			continue
		}

		if !e.IsDir() {
			removals = append(removals, path)
			continue
		}
		sub, subKept, err := r.planClear(path)
		if err != nil {
			return nil, false, err
		}
		if subKept {
			kept = true
			removals = append(removals, sub...)
			continue
		}
		removals = append(removals, path)
	}
	return removals, kept, nil
}

// worktreePath resolves dir against the root and checks that it lies
// inside the working tree but outside the metadata directory.
func (r *Repo) worktreePath(dir string) (string, error) {
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.RootDir, dir)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository at %s", dir, r.RootDir)
	}
	if abs == r.MetaDir || strings.HasPrefix(abs, r.MetaDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is inside the metadata directory", dir)
	}
	return abs, nil
}
