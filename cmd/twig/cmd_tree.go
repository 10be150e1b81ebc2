package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newWriteTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Snapshot the current directory and print its tree hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			h, err := r.WriteTree(wd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newReadTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-tree <hash>",
		Short: "Replace the current directory's contents with a stored tree",
		Long: "Replace the current directory's contents with a stored tree.\n" +
			"Ignored files and the .twig directory are left in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo()
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			return r.ReadTree(wd, h)
		},
	}
}
