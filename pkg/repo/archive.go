package repo

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/odvcencio/twig/pkg/object"
	"go.uber.org/zap"
)

// Archive writes the tree named by h as a zstd-compressed tar stream to w.
// h may name a tree or a commit; a commit contributes its tree and its
// timestamp, a bare tree is archived with the Unix epoch as modification
// time. Stored objects are only read.
func (r *Repo) Archive(w io.Writer, h object.Hash) error {
	tree, c, err := r.ResolveTree(h)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	modTime := time.Unix(0, 0)
	if c != nil {
		modTime = c.Time
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	tw := tar.NewWriter(enc)
	files, err := archiveTree(tw, tree, "", modTime)
	if err != nil {
		enc.Close()
		return fmt.Errorf("archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		enc.Close()
		return fmt.Errorf("archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	r.log.Debug("archived tree", zap.Stringer("tree", tree.Hash()), zap.Int("files", files))
	return nil
}

func archiveTree(tw *tar.Writer, t *object.Tree, prefix string, modTime time.Time) (int, error) {
	files := 0
	for _, e := range t.Entries() {
		name := path.Join(prefix, e.Name)
		if e.Mode == object.ModeSymlink {
			return files, fmt.Errorf("%s: %w: symlink entries cannot be archived", name, object.ErrUnsupportedEntry)
		}
		switch obj := e.Object.(type) {
		case *object.Tree:
			if err := tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     0o755,
				ModTime:  modTime,
			}); err != nil {
				return files, err
			}
			n, err := archiveTree(tw, obj, name, modTime)
			files += n
			if err != nil {
				return files, err
			}
		case *object.Blob:
			if err := tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Mode:     int64(e.Mode.FilePerm()),
				Size:     obj.Size(),
				ModTime:  modTime,
			}); err != nil {
				return files, err
			}
			if _, err := obj.WriteTo(tw); err != nil {
				return files, fmt.Errorf("%s: %w", name, err)
			}
			files++
		default:
			return files, fmt.Errorf("%s: %w: entry not resolved", name, object.ErrObjectNotFound)
		}
	}
	return files, nil
}
