package object

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// HashSize is the length of a raw object hash in bytes.
const HashSize = sha1.Size

// Hash is the raw SHA-1 digest of an object's header and content.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash. No stored object has it.
var ZeroHash Hash

// String returns the 40-character lowercase hex form of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first n hex characters of h.
func (h Hash) Short(n int) string {
	s := h.String()
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a 40-character hex string into a Hash. Upper-case hex
// digits are accepted.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("%w: %q", ErrInvalidObjectName, s)
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return ZeroHash, fmt.Errorf("%w: %q", ErrInvalidObjectName, s)
	}
	return h, nil
}

// Hasher computes an object hash from a header followed by streamed
// content.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts an object hash for kind with the given content size.
// The header is written immediately; content follows through Write.
func NewHasher(kind Kind, size int64) *Hasher {
	hs := &Hasher{h: sha1.New()}
	hs.h.Write(Header{Kind: kind, Size: size}.Bytes())
	return hs
}

// Write feeds content bytes into the hash. It never returns an error.
func (hs *Hasher) Write(p []byte) (int, error) {
	return hs.h.Write(p)
}

// Sum returns the object hash of everything written so far.
func (hs *Hasher) Sum() Hash {
	var out Hash
	copy(out[:], hs.h.Sum(nil))
	return out
}

// HashReader streams size bytes of content from r through the hasher. A
// reader that ends early or holds more than size bytes is an error.
func HashReader(kind Kind, size int64, r io.Reader) (Hash, error) {
	hs := NewHasher(kind, size)
	if err := copyExact(hs, r, size); err != nil {
		return ZeroHash, err
	}
	return hs.Sum(), nil
}

// HashBytes computes the object hash of in-memory content.
func HashBytes(kind Kind, data []byte) Hash {
	h, _ := HashReader(kind, int64(len(data)), bytes.NewReader(data))
	return h
}

// copyExact copies exactly size bytes from src to dst and fails if src
// holds a different amount.
func copyExact(dst io.Writer, src io.Reader, size int64) error {
	n, err := io.Copy(dst, io.LimitReader(src, size))
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("%w: content is %d bytes, header says %d", ErrMalformedObject, n, size)
	}
	var probe [1]byte
	if m, _ := src.Read(probe[:]); m > 0 {
		return fmt.Errorf("%w: content exceeds declared size %d", ErrMalformedObject, size)
	}
	return nil
}
