package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

const logDateFormat = "Mon Jan 2 15:04:05 2006 -0700"

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			head, ok, err := r.Head()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			entries, err := r.Log(head, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, entry := range entries {
				if oneline {
					printOneline(out, entry, i == 0)
				} else {
					printEntry(out, entry, i == 0)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 for all)")
	return cmd
}

var (
	hashColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan, color.Bold)
)

func printOneline(w io.Writer, entry repo.LogEntry, isHead bool) {
	hashColor.Fprint(w, entry.Hash.Short(repo.ShortHashLen))
	if isHead {
		fmt.Fprint(w, " ")
		headColor.Fprint(w, "(HEAD)")
	}
	fmt.Fprintf(w, " %s\n", firstLine(entry.Commit.Message))
}

func printEntry(w io.Writer, entry repo.LogEntry, isHead bool) {
	hashColor.Fprintf(w, "commit %s", entry.Hash)
	if isHead {
		fmt.Fprint(w, " ")
		headColor.Fprint(w, "(HEAD)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Date:   %s\n\n", entry.Commit.Time.Format(logDateFormat))
	for _, line := range strings.Split(entry.Commit.Message, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintln(w)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
