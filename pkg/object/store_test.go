package object

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreAt(t.TempDir())
}

func memStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewStore(fs), fs
}

func mustParseHash(t *testing.T, s string) Hash {
	t.Helper()
	h, err := ParseHash(s)
	if err != nil {
		t.Fatalf("ParseHash(%q): %v", s, err)
	}
	return h
}

func TestHashBytesKnownVectors(t *testing.T) {
	cases := []struct {
		kind Kind
		data []byte
		want string
	}{
		{KindBlob, nil, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
		{KindBlob, []byte("Hello, World!"), "b45ef6fec89518d314f546fd6c3025367b721684"},
		{KindTree, nil, "4b825dc642cb6eb9a060e54bf8d69288fbee4904"},
	}
	for _, tc := range cases {
		if got := HashBytes(tc.kind, tc.data).String(); got != tc.want {
			t.Errorf("HashBytes(%s, %q) = %s, want %s", tc.kind, tc.data, got, tc.want)
		}
	}
}

func TestHashKindChangesHash(t *testing.T) {
	data := []byte("hello")
	if HashBytes(KindBlob, data) == HashBytes(KindTree, data) {
		t.Fatal("blob and tree with the same content hash alike")
	}
}

func TestHashReaderSizeMismatch(t *testing.T) {
	if _, err := HashReader(KindBlob, 10, strings.NewReader("short")); !errors.Is(err, ErrMalformedObject) {
		t.Fatalf("short reader error = %v, want ErrMalformedObject", err)
	}
	if _, err := HashReader(KindBlob, 2, strings.NewReader("too long")); !errors.Is(err, ErrMalformedObject) {
		t.Fatalf("long reader error = %v, want ErrMalformedObject", err)
	}
}

func TestParseHash(t *testing.T) {
	h := mustParseHash(t, "B45EF6FEC89518D314F546FD6C3025367B721684")
	if got := h.String(); got != "b45ef6fec89518d314f546fd6c3025367b721684" {
		t.Fatalf("String() = %s", got)
	}
	if got := h.Short(7); got != "b45ef6f" {
		t.Fatalf("Short(7) = %s", got)
	}

	for _, bad := range []string{"", "abc", "zz5ef6fec89518d314f546fd6c3025367b721684", "b45ef6fec89518d314f546fd6c3025367b7216840"} {
		if _, err := ParseHash(bad); !errors.Is(err, ErrInvalidObjectName) {
			t.Errorf("ParseHash(%q) error = %v, want ErrInvalidObjectName", bad, err)
		}
	}
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.WriteBytes(KindBlob, data)
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if want := HashBytes(KindBlob, data); h != want {
		t.Fatalf("hash = %s, want %s", h, want)
	}

	hdr, got, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := (Header{Kind: KindBlob, Size: int64(len(data))}); hdr != want {
		t.Fatalf("header = %+v, want %+v", hdr, want)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("content = %q, want %q", got, data)
	}
}

func TestStoreHas(t *testing.T) {
	s, _ := memStore(t)
	h, err := s.WriteBytes(KindBlob, []byte("exists"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if !s.Has(h) {
		t.Fatal("Has(written) = false")
	}
	if s.Has(HashBytes(KindBlob, []byte("absent"))) {
		t.Fatal("Has(absent) = true")
	}
}

func TestStoreFanoutLayout(t *testing.T) {
	s, fs := memStore(t)
	h, err := s.WriteBytes(KindBlob, []byte("fanout test"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	hx := h.String()
	raw, err := afero.ReadFile(fs, filepath.Join("objects", hx[:2], hx[2:]))
	if err != nil {
		t.Fatalf("read loose object: %v", err)
	}
	if got := string(raw); got != "blob 11\x00fanout test" {
		t.Fatalf("stored bytes = %q", got)
	}
}

func TestStoreDuplicateWriteIsNoop(t *testing.T) {
	s, fs := memStore(t)
	h1, err := s.WriteBytes(KindBlob, []byte("duplicate"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	path := objectPath(h1)
	before, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	h2, err := s.WriteBytes(KindBlob, []byte("duplicate"))
	if err != nil {
		t.Fatalf("second WriteBytes: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hashes differ: %s vs %s", h1, h2)
	}

	after, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !before.ModTime().Equal(after.ModTime()) {
		t.Fatalf("object rewritten: modtime %v -> %v", before.ModTime(), after.ModTime())
	}

	// No temp files are left behind.
	entries, err := afero.ReadDir(fs, "objects")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			t.Errorf("unexpected file %s in objects/", e.Name())
		}
	}
}

func TestStoreWriteRejectsWrongSize(t *testing.T) {
	s, _ := memStore(t)
	if _, err := s.Write(KindBlob, 100, strings.NewReader("tiny")); !errors.Is(err, ErrMalformedObject) {
		t.Fatalf("Write error = %v, want ErrMalformedObject", err)
	}
}

func TestStoreReadMissing(t *testing.T) {
	s, _ := memStore(t)
	if _, _, err := s.Read(HashBytes(KindBlob, []byte("missing"))); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Read error = %v, want ErrObjectNotFound", err)
	}
}

func TestStoreOpenStreamsContent(t *testing.T) {
	s, _ := memStore(t)
	data := bytes.Repeat([]byte("0123456789"), 10000)
	h, err := s.WriteBytes(KindBlob, data)
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	hdr, rc, err := s.Open(h)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if hdr.Kind != KindBlob {
		t.Fatalf("kind = %s, want blob", hdr.Kind)
	}

	var out bytes.Buffer
	if _, err := io.Copy(&out, rc); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("streamed %d bytes, want %d", out.Len(), len(data))
	}
}

func TestStoreMalformedHeaders(t *testing.T) {
	cases := map[string]string{
		"no nul":         "blob 5hello",
		"unknown kind":   "tag 5\x00hello",
		"no space":       "blob5\x00hello",
		"bad size":       "blob five\x00hello",
		"negative size":  "blob -5\x00hello",
		"truncated":      "blob 50\x00hello",
		"header too big": strings.Repeat("x", 64) + "\x00",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s, fs := memStore(t)
			h := HashBytes(KindBlob, []byte(name))
			if err := afero.WriteFile(fs, objectPath(h), []byte(raw), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, _, err := s.Read(h); !errors.Is(err, ErrMalformedObject) {
				t.Fatalf("Read error = %v, want ErrMalformedObject", err)
			}
		})
	}
}

func TestStoreVerify(t *testing.T) {
	s, fs := memStore(t)
	h, err := s.WriteBytes(KindBlob, []byte("good"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if err := s.Verify(h); err != nil {
		t.Fatalf("Verify(good): %v", err)
	}

	if err := afero.WriteFile(fs, objectPath(h), []byte("blob 4\x00evil"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.Verify(h); !errors.Is(err, ErrMalformedObject) {
		t.Fatalf("Verify(tampered) error = %v, want ErrMalformedObject", err)
	}
}

func TestStoreWalk(t *testing.T) {
	s, _ := memStore(t)

	var none []Hash
	if err := s.Walk(func(h Hash) error {
		none = append(none, h)
		return nil
	}); err != nil {
		t.Fatalf("Walk(empty): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("empty store walked %d objects", len(none))
	}

	want := map[Hash]bool{}
	for _, c := range []string{"a", "b", "c"} {
		h, err := s.WriteBytes(KindBlob, []byte(c))
		if err != nil {
			t.Fatalf("WriteBytes: %v", err)
		}
		want[h] = true
	}

	got := map[Hash]bool{}
	if err := s.Walk(func(h Hash) error {
		got[h] = true
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("walked %v, want %v", got, want)
	}
}
