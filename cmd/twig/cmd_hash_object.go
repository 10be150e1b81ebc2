package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object [-w] <file>",
		Short: "Compute the blob hash of a file, optionally storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := object.BlobFromFile(args[0])
			if err != nil {
				return err
			}
			if write {
				r, err := openRepo()
				if err != nil {
					return err
				}
				if err := blob.Write(r.Store); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), blob.Hash())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the blob into the object store")
	return cmd
}
