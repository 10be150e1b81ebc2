package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// objectsDir is the store's subdirectory under the repository metadata
// directory.
const objectsDir = "objects"

// maxHeaderLen bounds the header scan: the longest kind plus a 20 digit
// size, a space and the NUL all fit.
const maxHeaderLen = 32

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	fs  afero.Fs
	log *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger attaches a logger to the store. The default is a no-op logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates a Store on fs, which must be rooted at the repository
// metadata directory. The objects/ subdirectory is created lazily on first
// write.
func NewStore(fs afero.Fs, opts ...StoreOption) *Store {
	s := &Store{fs: fs, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreAt creates a Store rooted at the given metadata directory on the
// local filesystem.
func NewStoreAt(dir string, opts ...StoreOption) *Store {
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir), opts...)
}

// objectPath returns the filesystem path for a given hash.
func objectPath(h Hash) string {
	hx := h.String()
	return filepath.Join(objectsDir, hx[:2], hx[2:])
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := s.fs.Stat(objectPath(h))
	return err == nil
}

// Write streams size bytes of content from r into the store under kind and
// returns the object hash. The on-disk format is "kind size\0content".
// Content goes to a temp file while it is hashed and is renamed into place
// only when no object with that hash exists yet; existing objects are never
// overwritten.
func (s *Store) Write(kind Kind, size int64, r io.Reader) (Hash, error) {
	if err := s.fs.MkdirAll(objectsDir, 0o755); err != nil {
		return ZeroHash, fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, objectsDir, ".tmp-*")
	if err != nil {
		return ZeroHash, fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	hs := NewHasher(kind, size)
	if _, err := tmp.Write(Header{Kind: kind, Size: size}.Bytes()); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("object write: %w", err)
	}
	if err := copyExact(io.MultiWriter(tmp, hs), r, size); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("object write close: %w", err)
	}

	h := hs.Sum()
	if s.Has(h) {
		s.fs.Remove(tmpName)
		s.log.Debug("object already stored", zap.Stringer("hash", h), zap.Stringer("kind", kind))
		return h, nil
	}

	dest := objectPath(h)
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("object write mkdir: %w", err)
	}
	if err := s.fs.Rename(tmpName, dest); err != nil {
		s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("object write rename: %w", err)
	}

	s.log.Debug("object stored",
		zap.Stringer("hash", h),
		zap.Stringer("kind", kind),
		zap.Int64("size", size),
	)
	return h, nil
}

// WriteBytes stores in-memory content under kind.
func (s *Store) WriteBytes(kind Kind, data []byte) (Hash, error) {
	return s.Write(kind, int64(len(data)), bytes.NewReader(data))
}

// Open returns the header of the object h and a reader over exactly its
// content. The caller must close the reader.
func (s *Store) Open(h Hash) (Header, io.ReadCloser, error) {
	f, err := s.fs.Open(objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Header{}, nil, fmt.Errorf("object read %s: %w", h, ErrObjectNotFound)
		}
		return Header{}, nil, fmt.Errorf("object read %s: %w", h, err)
	}

	br := bufio.NewReader(f)
	hdr, err := readHeader(br)
	if err != nil {
		f.Close()
		return Header{}, nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return hdr, &contentReader{r: br, c: f, remaining: hdr.Size}, nil
}

// Stat returns only the header of the object h.
func (s *Store) Stat(h Hash) (Header, error) {
	hdr, rc, err := s.Open(h)
	if err != nil {
		return Header{}, err
	}
	rc.Close()
	return hdr, nil
}

// Read retrieves an object by hash, returning its header and full content.
// Intended for tree and commit objects; blobs should be streamed with Open.
func (s *Store) Read(h Hash) (Header, []byte, error) {
	hdr, rc, err := s.Open(h)
	if err != nil {
		return Header{}, nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Header{}, nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return hdr, data, nil
}

// Verify re-hashes the stored object h and checks that it matches its
// name.
func (s *Store) Verify(h Hash) error {
	hdr, rc, err := s.Open(h)
	if err != nil {
		return err
	}
	defer rc.Close()

	got, err := HashReader(hdr.Kind, hdr.Size, rc)
	if err != nil {
		return fmt.Errorf("object verify %s: %w", h, err)
	}
	if got != h {
		return fmt.Errorf("object verify %s: %w: content hashes to %s", h, ErrMalformedObject, got)
	}
	return nil
}

// Walk calls fn for every object file in the store. Temp files and stray
// names are skipped.
func (s *Store) Walk(fn func(Hash) error) error {
	err := afero.Walk(s.fs, objectsDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		prefix := filepath.Base(filepath.Dir(path))
		h, err := ParseHash(prefix + info.Name())
		if err != nil {
			return nil
		}
		return fn(h)
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// readHeader scans up to the header's terminating NUL and parses
// "<kind> <size>".
func readHeader(br *bufio.Reader) (Header, error) {
	raw := make([]byte, 0, maxHeaderLen)
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return Header{}, fmt.Errorf("%w: header has no NUL terminator", ErrMalformedObject)
			}
			return Header{}, err
		}
		if c == 0 {
			break
		}
		if len(raw) == maxHeaderLen {
			return Header{}, fmt.Errorf("%w: header too long", ErrMalformedObject)
		}
		raw = append(raw, c)
	}
	return parseHeader(string(raw))
}

func parseHeader(header string) (Header, error) {
	kindStr, sizeStr, ok := strings.Cut(header, " ")
	if !ok {
		return Header{}, fmt.Errorf("%w: invalid header %q", ErrMalformedObject, header)
	}
	kind, err := ParseKind(kindStr)
	if err != nil {
		return Header{}, err
	}
	if sizeStr == "" || strings.TrimLeft(sizeStr, "0123456789") != "" {
		return Header{}, fmt.Errorf("%w: invalid length %q", ErrMalformedObject, sizeStr)
	}
	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return Header{}, fmt.Errorf("%w: invalid length %q", ErrMalformedObject, sizeStr)
	}
	return Header{Kind: kind, Size: size}, nil
}

// contentReader yields exactly the declared content of a stored object and
// reports a truncated file as malformed.
type contentReader struct {
	r         io.Reader
	c         io.Closer
	remaining int64
}

func (cr *contentReader) Read(p []byte) (int, error) {
	if cr.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > cr.remaining {
		p = p[:cr.remaining]
	}
	n, err := cr.r.Read(p)
	cr.remaining -= int64(n)
	if err == io.EOF {
		if cr.remaining > 0 {
			return n, fmt.Errorf("%w: content truncated (%d bytes missing)", ErrMalformedObject, cr.remaining)
		}
		return n, nil
	}
	return n, err
}

func (cr *contentReader) Close() error {
	return cr.c.Close()
}
