package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "archive <hash> [-o file]",
		Short: "Export a tree or commit as a zstd-compressed tar archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("archive: %w", err)
				}
				if err := r.Archive(f, h); err != nil {
					f.Close()
					os.Remove(output)
					return err
				}
				return f.Close()
			}
			return r.Archive(w, h)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the archive to file instead of stdout")
	return cmd
}
