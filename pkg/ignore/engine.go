// Package ignore decides which working-tree paths are left out of snapshots.
//
// Rules live in per-directory ignore files. A path is checked against the
// rules of its own directory first and then against each parent up to the
// repository root; the nearest level with a matching rule decides.
package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultFileName is the per-directory ignore file name.
	DefaultFileName = ".twigignore"
	// DefaultMetaDir is the repository metadata directory, excluded at every
	// level by an implicit rule.
	DefaultMetaDir = ".twig"
)

// ErrOutsideRoot is returned when a checked path is not below the root.
var ErrOutsideRoot = errors.New("path is outside the repository")

// Result is the outcome of a Check. Rule is the rule that decided it, or
// nil when no rule at any level matched.
type Result struct {
	Ignored bool
	Rule    *Rule
}

// Engine evaluates ignore rules for paths below a repository root. Rule
// files are re-read on every check; compiled patterns are cached. An Engine
// is not safe for concurrent use.
type Engine struct {
	root     string
	fileName string
	metaDir  string
	fs       afero.Fs
	log      *zap.Logger

	cache map[string]*matcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithFileName sets the per-directory ignore file name.
func WithFileName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.fileName = name
		}
	}
}

// WithMetaDir sets the metadata directory name excluded at every level.
func WithMetaDir(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.metaDir = name
		}
	}
}

// WithFs reads rule files and stats paths through fsys instead of the OS.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) { e.fs = fsys }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Engine for the repository rooted at root.
func New(root string, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("ignore: resolve root %s: %w", root, err)
	}
	e := &Engine{
		root:     abs,
		fileName: DefaultFileName,
		metaDir:  DefaultMetaDir,
		fs:       afero.NewOsFs(),
		log:      zap.NewNop(),
		cache:    make(map[string]*matcher),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Root returns the absolute repository root.
func (e *Engine) Root() string { return e.root }

// FileName returns the per-directory ignore file name.
func (e *Engine) FileName() string { return e.fileName }

// Check reports whether target is ignored and which rule decided it.
//
// Levels are visited from the directory containing target up to the root.
// Within a level every matching rule overrides the previous one; the first
// level with any match is final. A target that does not exist, or cannot
// be stat'ed, is not ignored.
func (e *Engine) Check(target string) (Result, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return Result{}, fmt.Errorf("ignore: resolve %s: %w", target, err)
	}
	if !e.contains(abs) {
		return Result{}, fmt.Errorf("ignore %s: %w", target, ErrOutsideRoot)
	}
	if abs == e.root {
		return Result{}, nil
	}

	info, err := e.stat(abs)
	if err != nil {
		// Paths that cannot be stat'ed are treated as absent.
		return Result{}, nil
	}
	isDir := info.IsDir()

	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		res, matched, err := e.checkLevel(dir, abs, isDir)
		if err != nil {
			return Result{}, err
		}
		if matched {
			e.log.Debug("ignore decision",
				zap.String("path", abs),
				zap.Bool("ignored", res.Ignored),
				zap.Stringer("rule", res.Rule))
			return res, nil
		}
		if dir == e.root {
			return Result{}, nil
		}
	}
}

// Excluded reports whether path is ignored. It lets an Engine act as the
// snapshot filter of object.TreeFromDirectory.
func (e *Engine) Excluded(path string) (bool, error) {
	res, err := e.Check(path)
	if err != nil {
		return false, err
	}
	return res.Ignored, nil
}

// Rules returns the rules active at dir: the implicit metadata rule followed
// by the rules of dir's ignore file in file order.
func (e *Engine) Rules(dir string) ([]Rule, error) {
	source := filepath.Join(dir, e.fileName)
	rules := []Rule{{Pattern: e.metaDir, Source: source, Line: 0}}
	loaded, err := LoadRules(e.fs, source)
	if err != nil {
		return nil, fmt.Errorf("ignore: %w", err)
	}
	return append(rules, loaded...), nil
}

func (e *Engine) checkLevel(dir, target string, isDir bool) (Result, bool, error) {
	rules, err := e.Rules(dir)
	if err != nil {
		return Result{}, false, err
	}

	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return Result{}, false, fmt.Errorf("ignore: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		rel += "/"
	}

	var res Result
	matched := false
	for i := range rules {
		m, err := e.compile(rules[i].Pattern)
		if err != nil {
			e.log.Warn("skipping invalid ignore pattern",
				zap.Stringer("rule", rules[i]), zap.Error(err))
			continue
		}
		if !m.match(rel) {
			continue
		}
		matched = true
		res = Result{Ignored: !m.negated, Rule: &rules[i]}
	}
	return res, matched, nil
}

func (e *Engine) compile(pattern string) (*matcher, error) {
	if m, ok := e.cache[pattern]; ok {
		return m, nil
	}
	m, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	e.cache[pattern] = m
	return m, nil
}

// stat does not follow a final symlink when the filesystem supports it, so
// a dangling link is still checked.
func (e *Engine) stat(path string) (os.FileInfo, error) {
	if l, ok := e.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return e.fs.Stat(path)
}

func (e *Engine) contains(abs string) bool {
	rel, err := filepath.Rel(e.root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
