package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCheckIgnoreCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check-ignore [-v] <path>",
		Short: "Report whether a path is ignored",
		Long: "Print the path if it is ignored and exit 0; exit 1 otherwise.\n" +
			"With -v the deciding rule is printed as <file>:<line>:<pattern>.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			target := args[0]
			res, err := r.Ignore().Check(target)
			if err != nil {
				return err
			}
			if !res.Ignored {
				return errNotIgnored
			}

			out := cmd.OutOrStdout()
			if !verbose {
				fmt.Fprintln(out, target)
				return nil
			}
			source := res.Rule.Source
			if wd, err := os.Getwd(); err == nil {
				if rel, err := filepath.Rel(wd, source); err == nil {
					source = rel
				}
			}
			fmt.Fprintf(out, "%s:%d:%s\t%s\n", source, res.Rule.Line, res.Rule.Pattern, target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the rule that matched")
	return cmd
}
