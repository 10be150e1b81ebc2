package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/twig/pkg/ignore"
	"github.com/spf13/afero"
)

const configFile = "config.toml"

// Config stores repository-local settings from .twig/config.toml.
type Config struct {
	Core    CoreConfig    `toml:"core"`
	Log     LogConfig     `toml:"log"`
	Signing SigningConfig `toml:"signing"`
}

type CoreConfig struct {
	// IgnoreFile is the per-directory ignore file name.
	IgnoreFile string `toml:"ignore_file"`
}

type LogConfig struct {
	Level string `toml:"level,omitempty"`
}

type SigningConfig struct {
	// Key is the SSH private key used by commit --sign when no key is given.
	Key string `toml:"key,omitempty"`
}

// DefaultConfig returns the configuration written by Init.
func DefaultConfig() *Config {
	return &Config{Core: CoreConfig{IgnoreFile: ignore.DefaultFileName}}
}

// ReadConfig reads the config of the repository containing start without
// opening it. A missing file yields DefaultConfig.
func ReadConfig(start string) (*Config, error) {
	root, err := FindRoot(start)
	if err != nil {
		return nil, err
	}
	return readConfig(afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(root, MetaDirName)))
}

func readConfig(fsys afero.Fs) (*Config, error) {
	data, err := afero.ReadFile(fsys, configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	if cfg.Core.IgnoreFile == "" {
		cfg.Core.IgnoreFile = ignore.DefaultFileName
	}
	return cfg, nil
}

// WriteConfig atomically replaces .twig/config.toml and updates r.Config.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := writeConfig(r.fs, cfg); err != nil {
		return err
	}
	r.Config = cfg
	return nil
}

func writeConfig(fsys afero.Fs, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := writeFileAtomic(fsys, configFile, buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to name and renames it
// into place.
func writeFileAtomic(fsys afero.Fs, name string, data []byte) error {
	tmp, err := afero.TempFile(fsys, path.Dir(name), "."+path.Base(name)+"-tmp-*")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fsys.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fsys.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := fsys.Rename(tmpName, name); err != nil {
		fsys.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
