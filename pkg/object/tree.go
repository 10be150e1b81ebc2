package object

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaxTreeDepth bounds how deeply nested a tree may be, both when it is
// built from a directory and when it is read back from a store.
const MaxTreeDepth = 256

// Filter decides whether a directory entry is left out of a snapshot.
// Path is the entry's full filesystem path.
type Filter interface {
	Excluded(path string) (bool, error)
}

// TreeEntry is one entry in a tree object. Object is the resolved *Blob or
// *Tree the entry points at.
type TreeEntry struct {
	Mode   Mode
	Name   string
	Hash   Hash
	Object Object
}

// Tree is a snapshot of one directory. Entries are kept sorted by name in
// byte order, which makes the content, and so the hash, independent of
// directory listing order.
type Tree struct {
	entries []TreeEntry
	content []byte
	hash    Hash
}

// NewTree builds a tree from entries, which may be in any order. Names must
// be unique, non-empty and free of '/'.
func NewTree(entries []TreeEntry) (*Tree, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		if err := validEntryName(e.Name); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("tree: duplicate entry %q", e.Name)
		}
		buf.WriteString(e.Mode.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}

	content := buf.Bytes()
	return &Tree{
		entries: sorted,
		content: content,
		hash:    HashBytes(KindTree, content),
	}, nil
}

func validEntryName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("tree: invalid entry name %q", name)
	}
	return nil
}

func (t *Tree) Kind() Kind  { return KindTree }
func (t *Tree) Hash() Hash  { return t.hash }
func (t *Tree) Size() int64 { return int64(len(t.content)) }

// Entries returns the tree entries in name order.
func (t *Tree) Entries() []TreeEntry {
	out := make([]TreeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Content returns the serialized tree content (without the header).
func (t *Tree) Content() []byte {
	return bytes.Clone(t.content)
}

// TreeFromDirectory snapshots dir. Entries the filter excludes are skipped;
// subdirectories become nested trees, built before the entry that refers to
// them. Symlinks and special files fail with ErrUnsupportedEntry. A nil
// filter excludes nothing.
func TreeFromDirectory(dir string, filter Filter) (*Tree, error) {
	return treeFromDirectory(dir, filter, 0)
}

func treeFromDirectory(dir string, filter Filter, depth int) (*Tree, error) {
	if depth > MaxTreeDepth {
		return nil, fmt.Errorf("tree %s: nested deeper than %d levels", dir, MaxTreeDepth)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", dir, err)
	}

	entries := make([]TreeEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		if filter != nil {
			excluded, err := filter.Excluded(path)
			if err != nil {
				return nil, fmt.Errorf("tree %s: %w", path, err)
			}
			if excluded {
				continue
			}
		}

		entry, err := entryFromDirEntry(path, de, filter, depth)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return NewTree(entries)
}

func entryFromDirEntry(path string, de fs.DirEntry, filter Filter, depth int) (TreeEntry, error) {
	typ := de.Type()
	switch {
	case typ.IsDir():
		sub, err := treeFromDirectory(path, filter, depth+1)
		if err != nil {
			return TreeEntry{}, err
		}
		return TreeEntry{Mode: ModeTree, Name: de.Name(), Hash: sub.Hash(), Object: sub}, nil

	case typ&fs.ModeSymlink != 0:
		return TreeEntry{}, fmt.Errorf("%w: %s is a symlink", ErrUnsupportedEntry, path)

	case typ.IsRegular():
		info, err := de.Info()
		if err != nil {
			return TreeEntry{}, fmt.Errorf("tree %s: %w", path, err)
		}
		blob, err := BlobFromFile(path)
		if err != nil {
			return TreeEntry{}, err
		}
		return TreeEntry{Mode: modeFromFileInfo(info), Name: de.Name(), Hash: blob.Hash(), Object: blob}, nil

	default:
		return TreeEntry{}, fmt.Errorf("%w: %s has file mode %s", ErrUnsupportedEntry, path, typ)
	}
}

func modeFromFileInfo(info fs.FileInfo) Mode {
	if info.Mode()&0o111 != 0 {
		return ModeExecutable
	}
	return ModeRegular
}

// FilePerm returns the permissions a file with mode m is restored with.
func (m Mode) FilePerm() os.FileMode {
	if m == ModeExecutable {
		return 0o755
	}
	return 0o644
}

// ReadTree loads the tree h from s, resolving every entry into its Blob or
// Tree recursively.
func ReadTree(s *Store, h Hash) (*Tree, error) {
	return readTree(s, h, 0)
}

func readTree(s *Store, h Hash, depth int) (*Tree, error) {
	if depth > MaxTreeDepth {
		return nil, fmt.Errorf("tree %s: nested deeper than %d levels", h, MaxTreeDepth)
	}

	hdr, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if hdr.Kind != KindTree {
		return nil, fmt.Errorf("object %s: %w: got %s, want %s", h, ErrInvalidObjectType, hdr.Kind, KindTree)
	}

	entries, err := parseTreeContent(data)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", h, err)
	}

	for i := range entries {
		e := &entries[i]
		obj, err := readObject(s, e.Hash, depth+1)
		if err != nil {
			return nil, fmt.Errorf("tree %s entry %q: %w", h, e.Name, err)
		}
		if obj.Kind() != e.Mode.Kind() {
			return nil, fmt.Errorf("tree %s entry %q: %w: mode %s points at a %s",
				h, e.Name, ErrInvalidObjectType, e.Mode, obj.Kind())
		}
		e.Object = obj
	}

	t, err := NewTree(entries)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w: %v", h, ErrMalformedObject, err)
	}
	if t.hash != h {
		return nil, fmt.Errorf("tree %s: %w: content hashes to %s", h, ErrMalformedObject, t.hash)
	}
	return t, nil
}

// parseTreeContent splits tree content into entries without resolving
// them. Entries must be in strictly increasing name order.
func parseTreeContent(data []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: tree entry missing mode separator", ErrMalformedObject)
		}
		mode, err := ParseMode(string(data[:sp]))
		if err != nil {
			return nil, err
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: tree entry missing name terminator", ErrMalformedObject)
		}
		name := string(data[:nul])
		if err := validEntryName(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
		}
		data = data[nul+1:]

		if len(data) < HashSize {
			return nil, fmt.Errorf("%w: tree entry %q has a short hash (%d bytes)", ErrMalformedObject, name, len(data))
		}
		var h Hash
		copy(h[:], data[:HashSize])
		data = data[HashSize:]

		if n := len(entries); n > 0 && entries[n-1].Name >= name {
			return nil, fmt.Errorf("%w: tree entry %q out of order", ErrMalformedObject, name)
		}
		entries = append(entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return entries, nil
}

// Write stores every object the tree refers to, children first, and then
// the tree itself. A tree already in the store is skipped together with its
// children: it is only ever written after all of them.
func (t *Tree) Write(s *Store) error {
	if s.Has(t.hash) {
		return nil
	}
	for _, e := range t.entries {
		switch obj := e.Object.(type) {
		case *Blob:
			if err := obj.Write(s); err != nil {
				return fmt.Errorf("write tree entry %q: %w", e.Name, err)
			}
		case *Tree:
			if err := obj.Write(s); err != nil {
				return fmt.Errorf("write tree entry %q: %w", e.Name, err)
			}
		default:
			if !s.Has(e.Hash) {
				return fmt.Errorf("write tree entry %q: %w: %s not resolved", e.Name, ErrObjectNotFound, e.Hash)
			}
		}
	}
	if _, err := s.WriteBytes(KindTree, t.content); err != nil {
		return fmt.Errorf("write tree %s: %w", t.hash, err)
	}
	return nil
}

// Restorable reports whether WriteToDirectory can materialize every entry
// of the tree. Symlink entries fail with ErrUnsupportedEntry.
func (t *Tree) Restorable() error {
	for _, e := range t.entries {
		if e.Mode == ModeSymlink {
			return fmt.Errorf("%w: %q is a symlink", ErrUnsupportedEntry, e.Name)
		}
		if sub, ok := e.Object.(*Tree); ok {
			if err := sub.Restorable(); err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
		}
	}
	return nil
}

// WriteToDirectory materializes the tree under dir: blobs become files
// with the entry's permissions, subtrees become directories. Symlink
// entries fail with ErrUnsupportedEntry.
func (t *Tree) WriteToDirectory(dir string) error {
	for _, e := range t.entries {
		path := filepath.Join(dir, e.Name)
		if e.Mode == ModeSymlink {
			return fmt.Errorf("restore %s: %w: %q is a symlink", dir, ErrUnsupportedEntry, e.Name)
		}
		switch obj := e.Object.(type) {
		case *Blob:
			if err := obj.WriteFile(path, e.Mode.FilePerm()); err != nil {
				return err
			}
		case *Tree:
			if err := os.Mkdir(path, 0o755); err != nil && !os.IsExist(err) {
				return fmt.Errorf("mkdir %s: %w", path, err)
			}
			if err := obj.WriteToDirectory(path); err != nil {
				return err
			}
		default:
			return fmt.Errorf("restore %s: %w: entry %q not resolved", dir, ErrObjectNotFound, e.Name)
		}
	}
	return nil
}

func (t *Tree) isObject() {}
