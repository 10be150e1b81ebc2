package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showType, showSize, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) <hash>",
		Short: "Show the type, size or content of a stored object",
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

			out := cmd.OutOrStdout()
			switch {
			case showType:
				hdr, err := r.Store.Stat(h)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, hdr.Kind)
			case showSize:
				hdr, err := r.Store.Stat(h)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, hdr.Size)
			default:
				return prettyPrint(out, r, h)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object kind")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the content size in bytes")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "print the object content")
	cmd.MarkFlagsMutuallyExclusive("type", "size", "pretty")
	cmd.MarkFlagsOneRequired("type", "size", "pretty")
	return cmd
}

// prettyPrint writes blob bytes as-is, one line per tree entry, and the
// serialized form of a commit.
func prettyPrint(w io.Writer, r *repo.Repo, h object.Hash) error {
	hdr, err := r.Store.Stat(h)
	if err != nil {
		return err
	}
	switch hdr.Kind {
	case object.KindBlob:
		blob, err := object.ReadBlob(r.Store, h)
		if err != nil {
			return err
		}
		_, err = blob.WriteTo(w)
		return err
	case object.KindTree:
		tree, err := object.ReadTree(r.Store, h)
		if err != nil {
			return err
		}
		for _, e := range tree.Entries() {
			fmt.Fprintf(w, "%s %s %s\t%s\n", e.Mode, e.Mode.Kind(), e.Hash, e.Name)
		}
		return nil
	case object.KindCommit:
		c, err := object.ReadCommit(r.Store, h)
		if err != nil {
			return err
		}
		_, err = w.Write(c.Content())
		return err
	default:
		return fmt.Errorf("cat-file %s: %w: %s", h, object.ErrInvalidObjectType, hdr.Kind)
	}
}
