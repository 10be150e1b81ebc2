package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/twig/pkg/ignore"
	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// MetaDirName is the repository metadata directory at the root of every
// working tree.
const MetaDirName = ".twig"

var (
	ErrRepositoryNotFound = errors.New("not a twig repository (or any of the parent directories): " + MetaDirName)
	ErrRepositoryExists   = errors.New("repository already exists")
)

// Repo represents an opened twig repository.
type Repo struct {
	RootDir string        // working directory root
	MetaDir string        // .twig/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config

	fs     afero.Fs // rooted at MetaDir
	ignore *ignore.Engine
	log    *zap.Logger
}

type options struct {
	log    *zap.Logger
	config *Config
}

// Option configures Init, Open and Discover.
type Option func(*options)

// WithLogger sets the logger shared by the repository, its store and its
// ignore engine.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithConfig uses cfg instead of reading .twig/config.toml.
func WithConfig(cfg *Config) Option {
	return func(o *options) { o.config = cfg }
}

func buildOptions(opts []Option) *options {
	o := &options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init creates a new repository at path: the .twig/ directory, its objects/
// directory and a default config.toml. It fails with ErrRepositoryExists if
// path already holds a .twig/ directory.
func Init(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	metaDir := filepath.Join(abs, MetaDirName)
	if _, err := os.Stat(metaDir); err == nil {
		return nil, fmt.Errorf("init %s: %w", metaDir, ErrRepositoryExists)
	}

	if err := os.MkdirAll(filepath.Join(metaDir, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	o := buildOptions(opts)
	cfg := o.config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	fs := afero.NewBasePathFs(afero.NewOsFs(), metaDir)
	if err := writeConfig(fs, cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	o.log.Debug("initialized repository", zap.String("root", abs))

	return open(abs, fs, cfg, o)
}

// Open opens the repository whose working tree root is root. Unlike
// Discover it does not search parent directories.
func Open(root string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}
	metaDir := filepath.Join(abs, MetaDirName)
	info, err := os.Stat(metaDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", abs, ErrRepositoryNotFound)
	}

	o := buildOptions(opts)
	fs := afero.NewBasePathFs(afero.NewOsFs(), metaDir)
	cfg := o.config
	if cfg == nil {
		if cfg, err = readConfig(fs); err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
	}
	return open(abs, fs, cfg, o)
}

// Discover searches start and its parents for a .twig/ directory and opens
// the repository found.
func Discover(start string, opts ...Option) (*Repo, error) {
	root, err := FindRoot(start)
	if err != nil {
		return nil, err
	}
	return Open(root, opts...)
}

// FindRoot returns the nearest directory at or above start that contains a
// .twig/ directory.
func FindRoot(start string) (string, error) {
	cur, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("discover: abs path: %w", err)
	}
	for {
		info, err := os.Stat(filepath.Join(cur, MetaDirName))
		if err == nil && info.IsDir() {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", ErrRepositoryNotFound
		}
		cur = parent
	}
}

func open(root string, fs afero.Fs, cfg *Config, o *options) (*Repo, error) {
	engine, err := ignore.New(root,
		ignore.WithFileName(cfg.Core.IgnoreFile),
		ignore.WithMetaDir(MetaDirName),
		ignore.WithLogger(o.log.Named("ignore")),
	)
	if err != nil {
		return nil, err
	}
	return &Repo{
		RootDir: root,
		MetaDir: filepath.Join(root, MetaDirName),
		Store:   object.NewStore(fs, object.WithLogger(o.log.Named("store"))),
		Config:  cfg,
		fs:      fs,
		ignore:  engine,
		log:     o.log,
	}, nil
}

// Ignore returns the repository's ignore engine.
func (r *Repo) Ignore() *ignore.Engine { return r.ignore }
