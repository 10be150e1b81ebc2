package repo

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/diff"
	"github.com/odvcencio/twig/pkg/object"
)

// ResolveTree loads the tree named by h. A commit hash resolves to the
// commit's tree; the commit itself is returned alongside, nil otherwise.
func (r *Repo) ResolveTree(h object.Hash) (*object.Tree, *object.Commit, error) {
	hdr, err := r.Store.Stat(h)
	if err != nil {
		return nil, nil, err
	}

	var c *object.Commit
	treeHash := h
	switch hdr.Kind {
	case object.KindTree:
	case object.KindCommit:
		if c, err = object.ReadCommit(r.Store, h); err != nil {
			return nil, nil, err
		}
		treeHash = c.Tree
	default:
		return nil, nil, fmt.Errorf("object %s: %w: %s is not a tree or commit", h, object.ErrInvalidObjectType, hdr.Kind)
	}

	t, err := object.ReadTree(r.Store, treeHash)
	if err != nil {
		return nil, nil, err
	}
	return t, c, nil
}

// Snapshot builds the tree of the working directory without storing any
// object. Blob content is read from the files on demand.
func (r *Repo) Snapshot() (*object.Tree, error) {
	t, err := object.TreeFromDirectory(r.RootDir, r.ignore)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return t, nil
}

// DiffWorktree compares the tree or commit from with the working
// directory. A zero from stands for HEAD, or the empty tree before the
// first commit.
func (r *Repo) DiffWorktree(from object.Hash) ([]diff.Change, error) {
	if from.IsZero() {
		head, ok, err := r.Head()
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		if ok {
			from = head
		}
	}

	var before *object.Tree
	if !from.IsZero() {
		t, _, err := r.ResolveTree(from)
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		before = t
	}
	after, err := r.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return diff.Trees(before, after)
}

// Diff compares two stored trees or commits.
func (r *Repo) Diff(from, to object.Hash) ([]diff.Change, error) {
	before, _, err := r.ResolveTree(from)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	after, _, err := r.ResolveTree(to)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return diff.Trees(before, after)
}
