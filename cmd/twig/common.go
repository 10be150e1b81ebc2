package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/odvcencio/twig/pkg/tlog"
	"go.uber.org/zap"
)

const logLevelEnv = "TWIG_LOG_LEVEL"

// logLevel is bound to the global --log-level flag.
var logLevel string

// newLogger picks the level from the flag, then the environment, then the
// repository config.
func newLogger(configured string) (*zap.Logger, error) {
	level := logLevel
	if level == "" {
		level = os.Getenv(logLevelEnv)
	}
	if level == "" {
		level = configured
	}
	l, err := tlog.New(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return l, nil
}

// openRepo discovers the repository enclosing the current directory.
func openRepo() (*repo.Repo, error) {
	root, err := repo.FindRoot(".")
	if err != nil {
		return nil, err
	}
	cfg, err := repo.ReadConfig(root)
	if err != nil {
		return nil, err
	}
	l, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return repo.Open(root, repo.WithConfig(cfg), repo.WithLogger(l))
}
