package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/twig/pkg/ignore"
	"github.com/odvcencio/twig/pkg/object"
)

func initRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected directory %s: %v", path, err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", path)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be absent, stat err = %v", path, err)
	}
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init(%q): %v", dir, err)
	}
	if r.RootDir != dir {
		t.Errorf("RootDir = %q, want %q", r.RootDir, dir)
	}
	metaDir := filepath.Join(dir, ".twig")
	if r.MetaDir != metaDir {
		t.Errorf("MetaDir = %q, want %q", r.MetaDir, metaDir)
	}
	assertDir(t, metaDir)
	assertDir(t, filepath.Join(metaDir, "objects"))
	if _, err := os.Stat(filepath.Join(metaDir, "config.toml")); err != nil {
		t.Errorf("config.toml missing: %v", err)
	}
	if r.Store == nil {
		t.Error("Store is nil after Init")
	}
	if _, ok, err := r.Head(); err != nil || ok {
		t.Errorf("Head() on fresh repo = ok %v, err %v; want no head", ok, err)
	}
}

func TestInit_ExistingRepo_Error(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	_, err := Init(dir)
	if !errors.Is(err, ErrRepositoryExists) {
		t.Fatalf("second Init error = %v, want ErrRepositoryExists", err)
	}
}

func TestDiscover_FromSubdirectory(t *testing.T) {
	r := initRepo(t)
	sub := filepath.Join(r.RootDir, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	found, err := Discover(sub)
	if err != nil {
		t.Fatalf("Discover(%q): %v", sub, err)
	}
	if found.RootDir != r.RootDir {
		t.Errorf("RootDir = %q, want %q", found.RootDir, r.RootDir)
	}
}

func TestDiscover_NotARepository(t *testing.T) {
	_, err := Discover(t.TempDir())
	if !errors.Is(err, ErrRepositoryNotFound) {
		t.Fatalf("Discover error = %v, want ErrRepositoryNotFound", err)
	}
}

func TestOpen_DoesNotSearchParents(t *testing.T) {
	r := initRepo(t)
	sub := filepath.Join(r.RootDir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := Open(sub); !errors.Is(err, ErrRepositoryNotFound) {
		t.Fatalf("Open(sub) error = %v, want ErrRepositoryNotFound", err)
	}
	if _, err := Open(r.RootDir); err != nil {
		t.Fatalf("Open(root): %v", err)
	}
}

func TestConfig_DefaultsAndRoundTrip(t *testing.T) {
	r := initRepo(t)
	if got := r.Config.Core.IgnoreFile; got != ignore.DefaultFileName {
		t.Fatalf("default ignore file = %q, want %q", got, ignore.DefaultFileName)
	}

	cfg := DefaultConfig()
	cfg.Core.IgnoreFile = ".ignore"
	cfg.Log.Level = "debug"
	cfg.Signing.Key = "~/.ssh/id_ed25519"
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	reopened, err := Open(r.RootDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if *reopened.Config != *cfg {
		t.Fatalf("config = %+v, want %+v", *reopened.Config, *cfg)
	}
	if got := reopened.Ignore().FileName(); got != ".ignore" {
		t.Fatalf("ignore engine file name = %q, want .ignore", got)
	}

	fromDisk, err := ReadConfig(r.RootDir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if fromDisk.Log.Level != "debug" {
		t.Fatalf("ReadConfig log level = %q, want debug", fromDisk.Log.Level)
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	r := initRepo(t)
	if err := os.Remove(filepath.Join(r.MetaDir, "config.toml")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	reopened, err := Open(r.RootDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if *reopened.Config != *DefaultConfig() {
		t.Fatalf("config = %+v, want defaults", *reopened.Config)
	}
}

func TestConfig_Malformed(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.MetaDir, "config.toml"), "[core\nignore_file = ")
	if _, err := Open(r.RootDir); err == nil {
		t.Fatal("Open with malformed config should fail")
	}
}

func TestHead_RoundTrip(t *testing.T) {
	r := initRepo(t)
	h, err := r.Store.WriteBytes(object.KindBlob, []byte("head target"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if err := r.SetHead(h); err != nil {
		t.Fatalf("SetHead: %v", err)
	}
	got, ok, err := r.Head()
	if err != nil || !ok {
		t.Fatalf("Head() = ok %v, err %v", ok, err)
	}
	if got != h {
		t.Fatalf("Head() = %s, want %s", got, h)
	}
	if raw := readFile(t, filepath.Join(r.MetaDir, "HEAD")); raw != h.String()+"\n" {
		t.Fatalf("HEAD file = %q", raw)
	}
}

func TestHead_Garbage(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.MetaDir, "HEAD"), "not-a-hash\n")
	if _, _, err := r.Head(); err == nil {
		t.Fatal("Head() with garbage content should fail")
	}
}
