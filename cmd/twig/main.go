package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

// errNotIgnored is returned by check-ignore when the path is not ignored.
// It only sets the exit status.
var errNotIgnored = errors.New("path is not ignored")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "twig",
		Short:         "Content-addressed snapshots of a working directory",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error or none (default from $"+logLevelEnv+" or config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newReadTreeCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newCheckIgnoreCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newVerifyCommitCmd())
	root.AddCommand(newVerifyCmd())
	return root
}

// exitCode maps an error to the process exit status: 128 when a
// precondition failed before any work was done, 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, repo.ErrRepositoryNotFound),
		errors.Is(err, object.ErrInvalidObjectName),
		errors.Is(err, object.ErrObjectNotFound),
		errors.Is(err, object.ErrFileNotFound):
		return 128
	default:
		return 1
	}
}

// reportError prints err to w and returns the exit status for it.
func reportError(w io.Writer, err error) int {
	code := exitCode(err)
	switch {
	case errors.Is(err, errNotIgnored):
	case code == 128:
		fmt.Fprintf(w, "fatal: %v\n", err)
	default:
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return code
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "twig %s\n", version)
		},
	}
}
