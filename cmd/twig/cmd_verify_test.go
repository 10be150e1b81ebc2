package main

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/odvcencio/twig/pkg/object"
)

func TestVerifyCmd(t *testing.T) {
	dir := initTestRepo(t)
	writeRepoFile(t, dir, "main.go", "package main\n")
	mustRunTwig(t, dir, "commit", "-m", "initial")

	out := mustRunTwig(t, dir, "verify")
	if out != "ok: verified 3 object(s), 3 reachable from HEAD\n" {
		t.Fatalf("verify output = %q", out)
	}

	blob := object.HashBytes(object.KindBlob, []byte("package main\n")).String()
	if err := os.Remove(filepath.Join(dir, ".twig", "objects", blob[:2], blob[2:])); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	out, err := runTwig(t, dir, "verify")
	if err == nil || exitCode(err) != 1 {
		t.Fatalf("verify with missing object error = %v", err)
	}
	if out != "missing "+blob+"\n" {
		t.Fatalf("verify output = %q", out)
	}
}

func TestArchiveCmd(t *testing.T) {
	dir := initTestRepo(t)
	writeRepoFile(t, dir, "docs/readme.txt", "read me\n")
	mustRunTwig(t, dir, "commit", "-m", "docs")
	head, err := os.ReadFile(filepath.Join(dir, ".twig", "HEAD"))
	if err != nil {
		t.Fatalf("read HEAD: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "snapshot.tar.zst")
	mustRunTwig(t, dir, "archive", strings.TrimSpace(string(head)), "-o", dest)

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd.NewReader: %v", err)
	}
	defer dec.Close()

	var names []string
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar Next: %v", err)
		}
		names = append(names, hdr.Name)
	}
	if got := strings.Join(names, ","); got != "docs/,docs/readme.txt" {
		t.Fatalf("archive entries = %s", got)
	}

	missing := strings.Repeat("1", 40)
	_, err = runTwig(t, dir, "archive", missing, "-o", filepath.Join(t.TempDir(), "x.tar.zst"))
	if !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("archive missing object error = %v", err)
	}
}

func TestDiffCmd(t *testing.T) {
	dir := initTestRepo(t)
	writeRepoFile(t, dir, "notes.txt", "alpha\nbeta\n")
	mustRunTwig(t, dir, "commit", "-m", "notes")
	first := strings.TrimSpace(mustRunTwig(t, dir, "write-tree"))

	if out := mustRunTwig(t, dir, "diff"); out != "" {
		t.Fatalf("clean diff = %q", out)
	}

	writeRepoFile(t, dir, "notes.txt", "alpha\ngamma\n")
	want := "diff --twig a/notes.txt b/notes.txt\n" +
		"--- a/notes.txt\n+++ b/notes.txt\n" +
		"@@ -1,2 +1,2 @@\n alpha\n-beta\n+gamma\n"
	if out := mustRunTwig(t, dir, "diff"); out != want {
		t.Fatalf("diff =\n%s\nwant\n%s", out, want)
	}

	writeRepoFile(t, dir, "extra.txt", "x\n")
	second := strings.TrimSpace(mustRunTwig(t, dir, "write-tree"))
	if out := mustRunTwig(t, dir, "diff", "--name-status", first, second); out != "A\textra.txt\nM\tnotes.txt\n" {
		t.Fatalf("diff --name-status = %q", out)
	}
	if out := mustRunTwig(t, dir, "diff", "--name-status", first); out != "A\textra.txt\nM\tnotes.txt\n" {
		t.Fatalf("diff --name-status against worktree = %q", out)
	}

	_, err := runTwig(t, dir, "diff", "nope")
	if !errors.Is(err, object.ErrInvalidObjectName) {
		t.Fatalf("diff invalid hash error = %v", err)
	}
}
