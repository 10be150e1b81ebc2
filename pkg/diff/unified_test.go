package diff

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func numbered(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestLines_KeepsTerminators(t *testing.T) {
	ops := Lines([]byte("a\nb"), []byte("a\nb\n"))
	want := []Op{{Equal, "a\n"}, {Delete, "b"}, {Insert, "b\n"}}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestHunks_SplitsDistantChanges(t *testing.T) {
	a := numbered(20)
	b := strings.Replace(a, "line 2\n", "line two\n", 1)
	b = strings.Replace(b, "line 18\n", "line eighteen\n", 1)

	hunks := Hunks(Lines([]byte(a), []byte(b)), 3)
	if len(hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(hunks))
	}
	if got := hunks[0].Header(); got != "@@ -1,5 +1,5 @@" {
		t.Errorf("first header = %q", got)
	}
	if got := hunks[1].Header(); got != "@@ -15,6 +15,6 @@" {
		t.Errorf("second header = %q", got)
	}
}

func TestHunks_MergesNearbyChanges(t *testing.T) {
	a := numbered(20)
	b := strings.Replace(a, "line 5\n", "five\n", 1)
	b = strings.Replace(b, "line 11\n", "eleven\n", 1)

	hunks := Hunks(Lines([]byte(a), []byte(b)), 3)
	if len(hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(hunks))
	}
	if got := hunks[0].Header(); got != "@@ -2,13 +2,13 @@" {
		t.Errorf("header = %q", got)
	}
}

func TestHunks_ZeroLengthSide(t *testing.T) {
	hunks := Hunks(Lines(nil, []byte("new\n")), 3)
	if len(hunks) != 1 || hunks[0].Header() != "@@ -0,0 +1 @@" {
		t.Fatalf("hunks = %+v", hunks)
	}
	hunks = Hunks(Lines([]byte("old\n"), nil), 3)
	if len(hunks) != 1 || hunks[0].Header() != "@@ -1 +0,0 @@" {
		t.Fatalf("hunks = %+v", hunks)
	}
}

func TestWriteUnified(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUnified(&buf, "a/f", "b/f", []byte("one\ntwo\nthree\n"), []byte("one\n2\nthree\n"), 3); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	want := "--- a/f\n+++ b/f\n@@ -1,3 +1,3 @@\n one\n-two\n+2\n three\n"
	if buf.String() != want {
		t.Fatalf("patch =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteUnified_NoNewlineAtEOF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUnified(&buf, "a/f", "b/f", []byte("x\n"), []byte("x"), 3); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	want := "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-x\n+x\n\\ No newline at end of file\n"
	if buf.String() != want {
		t.Fatalf("patch = %q, want %q", buf.String(), want)
	}
}

func TestWriteUnified_EqualAndBinary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUnified(&buf, "a/f", "b/f", []byte("same"), []byte("same"), 3); err != nil || buf.Len() != 0 {
		t.Fatalf("equal content wrote %q, err %v", buf.String(), err)
	}
	if err := WriteUnified(&buf, "a/f", "b/f", []byte("a\x00b"), []byte("c"), 3); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	if buf.String() != "Binary files a/f and b/f differ\n" {
		t.Fatalf("binary patch = %q", buf.String())
	}
}
