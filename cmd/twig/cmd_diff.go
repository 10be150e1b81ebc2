package main

import (
	"github.com/odvcencio/twig/pkg/diff"
	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var nameStatus bool
	var context int

	cmd := &cobra.Command{
		Use:   "diff [<from> [<to>]]",
		Short: "Show changes between trees, commits and the working directory",
		Long: "With no arguments, compare HEAD with the working directory.\n" +
			"With one hash, compare that tree or commit with the working directory.\n" +
			"With two hashes, compare the two stored trees or commits.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashes := make([]object.Hash, len(args))
			for i, arg := range args {
				h, err := object.ParseHash(arg)
				if err != nil {
					return err
				}
				hashes[i] = h
			}

			r, err := openRepo()
			if err != nil {
				return err
			}

			var changes []diff.Change
			switch len(hashes) {
			case 2:
				changes, err = r.Diff(hashes[0], hashes[1])
			case 1:
				changes, err = r.DiffWorktree(hashes[0])
			default:
				changes, err = r.DiffWorktree(object.ZeroHash)
			}
			if err != nil {
				return err
			}

			if nameStatus {
				return diff.WriteNameStatus(cmd.OutOrStdout(), changes)
			}
			return diff.WritePatch(cmd.OutOrStdout(), changes, context)
		},
	}

	cmd.Flags().BoolVar(&nameStatus, "name-status", false, "show only changed paths with a status letter")
	cmd.Flags().IntVarP(&context, "unified", "U", diff.DefaultContext, "lines of context around each change")
	return cmd
}
