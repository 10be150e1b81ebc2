package object

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Blob is the content of one file. It never holds the bytes itself: the
// content is streamed from either the source file or the stored object
// each time it is needed.
type Blob struct {
	hash Hash
	size int64
	open func() (io.ReadCloser, error)
}

// BlobFromFile hashes the file at path by streaming it. The returned Blob
// keeps reading from path until it is written to a store.
func BlobFromFile(path string) (*Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s: is a directory", ErrFileNotFound, path)
	}

	open := func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
			}
			return nil, err
		}
		return f, nil
	}

	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := HashReader(KindBlob, info.Size(), f)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return &Blob{hash: h, size: info.Size(), open: open}, nil
}

// ReadBlob loads the blob h from s. Only the header is read; content is
// opened lazily.
func ReadBlob(s *Store, h Hash) (*Blob, error) {
	hdr, err := s.Stat(h)
	if err != nil {
		return nil, err
	}
	if hdr.Kind != KindBlob {
		return nil, fmt.Errorf("object %s: %w: got %s, want %s", h, ErrInvalidObjectType, hdr.Kind, KindBlob)
	}
	open := func() (io.ReadCloser, error) {
		hdr, rc, err := s.Open(h)
		if err != nil {
			return nil, err
		}
		if hdr.Kind != KindBlob {
			rc.Close()
			return nil, fmt.Errorf("object %s: %w: got %s, want %s", h, ErrInvalidObjectType, hdr.Kind, KindBlob)
		}
		return rc, nil
	}
	return &Blob{hash: h, size: hdr.Size, open: open}, nil
}

func (b *Blob) Kind() Kind  { return KindBlob }
func (b *Blob) Hash() Hash  { return b.hash }
func (b *Blob) Size() int64 { return b.size }

// Open returns a reader over the blob content.
func (b *Blob) Open() (io.ReadCloser, error) {
	return b.open()
}

// WriteTo streams the blob content into w.
func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	rc, err := b.open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return io.Copy(w, rc)
}

// Write persists the blob in s. Already stored blobs are left alone. A
// source file that changed since it was hashed is an error.
func (b *Blob) Write(s *Store) error {
	if s.Has(b.hash) {
		return nil
	}
	rc, err := b.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	h, err := s.Write(KindBlob, b.size, rc)
	if err != nil {
		return err
	}
	if h != b.hash {
		return fmt.Errorf("blob %s: content changed while writing (now %s)", b.hash, h)
	}
	return nil
}

// WriteFile writes the blob content to path with the given permissions,
// replacing any file already there.
func (b *Blob) WriteFile(path string, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := b.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// The umask may have masked the execute bits.
	return os.Chmod(path, perm)
}

func (b *Blob) isObject() {}
