// Package diff compares tree snapshots and renders line-level patches.
package diff

import (
	"fmt"
	"io"
	"path"

	"github.com/odvcencio/twig/pkg/object"
)

// ChangeType classifies what happened to a file between two trees.
type ChangeType int

const (
	Added    ChangeType = iota // File exists only in the new tree.
	Removed                    // File exists only in the old tree.
	Modified                   // Content or mode differs.
)

// Letter returns the one-letter status used by name-status output.
func (c ChangeType) Letter() string {
	switch c {
	case Added:
		return "A"
	case Removed:
		return "D"
	default:
		return "M"
	}
}

// Change is one file-level difference. Old is nil for Added, New is nil
// for Removed. Directories are never reported themselves.
type Change struct {
	Type ChangeType
	Path string
	Old  *object.TreeEntry
	New  *object.TreeEntry
}

// Trees returns the file-level changes turning a into b, ordered by path.
// A nil tree is treated as empty. Both trees must have their entries
// resolved, as ReadTree and TreeFromDirectory leave them.
func Trees(a, b *object.Tree) ([]Change, error) {
	var changes []Change
	err := diffTrees(&changes, "", entriesOf(a), entriesOf(b))
	return changes, err
}

func entriesOf(t *object.Tree) []object.TreeEntry {
	if t == nil {
		return nil
	}
	return t.Entries()
}

func diffTrees(out *[]Change, prefix string, a, b []object.TreeEntry) error {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i].Name < b[j].Name):
			if err := expand(out, Removed, prefix, &a[i]); err != nil {
				return err
			}
			i++
		case i >= len(a) || b[j].Name < a[i].Name:
			if err := expand(out, Added, prefix, &b[j]); err != nil {
				return err
			}
			j++
		default:
			if err := diffEntry(out, prefix, &a[i], &b[j]); err != nil {
				return err
			}
			i++
			j++
		}
	}
	return nil
}

func diffEntry(out *[]Change, prefix string, from, to *object.TreeEntry) error {
	if from.Hash == to.Hash && from.Mode == to.Mode {
		return nil
	}
	fromTree, fromIsTree := from.Object.(*object.Tree)
	toTree, toIsTree := to.Object.(*object.Tree)
	switch {
	case fromIsTree && toIsTree:
		return diffTrees(out, path.Join(prefix, from.Name), fromTree.Entries(), toTree.Entries())
	case fromIsTree || toIsTree:
		if err := expand(out, Removed, prefix, from); err != nil {
			return err
		}
		return expand(out, Added, prefix, to)
	default:
		*out = append(*out, Change{Type: Modified, Path: path.Join(prefix, from.Name), Old: from, New: to})
		return nil
	}
}

// expand reports e, or every file below it when e is a directory, as t.
func expand(out *[]Change, t ChangeType, prefix string, e *object.TreeEntry) error {
	p := path.Join(prefix, e.Name)
	switch obj := e.Object.(type) {
	case *object.Tree:
		entries := obj.Entries()
		for i := range entries {
			if err := expand(out, t, p, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	case *object.Blob:
		c := Change{Type: t, Path: p}
		if t == Removed {
			c.Old = e
		} else {
			c.New = e
		}
		*out = append(*out, c)
		return nil
	default:
		return fmt.Errorf("diff %s: %w: entry not resolved", p, object.ErrObjectNotFound)
	}
}

// WriteNameStatus writes one "<letter>\t<path>" line per change.
func WriteNameStatus(w io.Writer, changes []Change) error {
	for _, c := range changes {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", c.Type.Letter(), c.Path); err != nil {
			return err
		}
	}
	return nil
}

// WritePatch writes a unified patch for changes, reading blob content as
// needed.
func WritePatch(w io.Writer, changes []Change, context int) error {
	for _, c := range changes {
		if _, err := fmt.Fprintf(w, "diff --twig a/%s b/%s\n", c.Path, c.Path); err != nil {
			return err
		}
		oldName, newName := "a/"+c.Path, "b/"+c.Path
		switch c.Type {
		case Added:
			fmt.Fprintf(w, "new file mode %s\n", c.New.Mode)
			oldName = "/dev/null"
		case Removed:
			fmt.Fprintf(w, "deleted file mode %s\n", c.Old.Mode)
			newName = "/dev/null"
		case Modified:
			if c.Old.Mode != c.New.Mode {
				fmt.Fprintf(w, "old mode %s\nnew mode %s\n", c.Old.Mode, c.New.Mode)
			}
		}

		before, err := blobContent(c.Old)
		if err != nil {
			return err
		}
		after, err := blobContent(c.New)
		if err != nil {
			return err
		}
		if err := WriteUnified(w, oldName, newName, before, after, context); err != nil {
			return err
		}
	}
	return nil
}

func blobContent(e *object.TreeEntry) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	blob, ok := e.Object.(*object.Blob)
	if !ok {
		return nil, fmt.Errorf("diff %s: %w: not a blob", e.Name, object.ErrInvalidObjectType)
	}
	rc, err := blob.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
