package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCheckIgnoreCmd(t *testing.T) {
	dir := initTestRepo(t)
	writeRepoFile(t, dir, ".twigignore", "# build output\n*.log\n")
	writeRepoFile(t, dir, "sub/.twigignore", "!keep.log\n")
	writeRepoFile(t, dir, "debug.log", "x")
	writeRepoFile(t, dir, "sub/keep.log", "x")

	if out := mustRunTwig(t, dir, "check-ignore", "debug.log"); out != "debug.log\n" {
		t.Fatalf("check-ignore debug.log = %q", out)
	}
	if out := mustRunTwig(t, dir, "check-ignore", "-v", "debug.log"); out != ".twigignore:2:*.log\tdebug.log\n" {
		t.Fatalf("check-ignore -v debug.log = %q", out)
	}

	out, err := runTwig(t, dir, "check-ignore", "sub/keep.log")
	if !errors.Is(err, errNotIgnored) || exitCode(err) != 1 {
		t.Fatalf("check-ignore sub/keep.log error = %v", err)
	}
	if out != "" {
		t.Fatalf("not-ignored path printed %q", out)
	}

	// Rule sources are shown relative to the working directory.
	writeRepoFile(t, dir, "sub/other.log", "x")
	out = mustRunTwig(t, filepath.Join(dir, "sub"), "check-ignore", "-v", "other.log")
	if out != "../.twigignore:2:*.log\tother.log\n" {
		t.Fatalf("check-ignore -v from sub = %q", out)
	}

	// A path that does not exist is never ignored.
	out, err = runTwig(t, dir, "check-ignore", "missing.log")
	if !errors.Is(err, errNotIgnored) || out != "" {
		t.Fatalf("check-ignore missing.log = %q, %v", out, err)
	}

	out = mustRunTwig(t, dir, "check-ignore", "-v", ".twig")
	if out != ".twigignore:0:.twig\t.twig\n" {
		t.Fatalf("check-ignore -v .twig = %q", out)
	}
}
