package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var sign bool
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Snapshot the repository and record it as the new HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := openRepo()
			if err != nil {
				return err
			}

			var opts repo.CommitOptions
			if sign || signKey != "" {
				keyPath := signKey
				if keyPath == "" {
					keyPath = r.Config.Signing.Key
				}
				signer, _, err := loadSSHSigner(keyPath)
				if err != nil {
					return err
				}
				opts.Signer = signer
			}

			res, err := r.Commit(message, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[commit %s] %s\n", res.Short, res.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key used with --sign (default: [signing] key, then ~/.ssh/id_*)")
	return cmd
}
