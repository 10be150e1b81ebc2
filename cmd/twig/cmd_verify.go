package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Rehash every stored object and check that HEAD's history is complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			report, err := r.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range report.Corrupt {
				fmt.Fprintf(out, "corrupt %s\n", h)
			}
			for _, h := range report.Missing {
				fmt.Fprintf(out, "missing %s\n", h)
			}
			if !report.OK() {
				return fmt.Errorf("verify: %d corrupt, %d missing object(s)", len(report.Corrupt), len(report.Missing))
			}
			fmt.Fprintf(out, "ok: verified %d object(s), %d reachable from HEAD\n", report.Objects, report.Reachable)
			return nil
		},
	}
}

func newVerifyCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit <hash>",
		Short: "Check the SSH signature of a commit",
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

			info, err := r.VerifyCommitSignature(h)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "good signature for %s with %s key %s\n", h.Short(repo.ShortHashLen), info.Format, info.Fingerprint)
			return nil
		},
	}
}
