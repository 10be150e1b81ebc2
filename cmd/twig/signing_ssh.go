package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/twig/pkg/repo"
	"golang.org/x/crypto/ssh"
)

// defaultSigningKeys are tried in order, relative to ~/.ssh, when neither
// --sign-key nor [signing] key is set.
var defaultSigningKeys = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// loadSSHSigner reads an unencrypted OpenSSH private key and returns a
// commit signer for it along with the resolved key path.
func loadSSHSigner(keyPath string) (repo.CommitSigner, string, error) {
	resolved, err := signingKeyPath(keyPath)
	if err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("read signing key %q: %w", resolved, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, "", fmt.Errorf("signing key %q is passphrase protected", resolved)
		}
		return nil, "", fmt.Errorf("parse signing key %q: %w", resolved, err)
	}
	return repo.NewSSHSigner(signer), resolved, nil
}

func signingKeyPath(p string) (string, error) {
	if p = strings.TrimSpace(p); p != "" {
		return expandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	for _, name := range defaultSigningKeys {
		candidate := filepath.Join(home, ".ssh", name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no SSH private key found in ~/.ssh (tried %s)", strings.Join(defaultSigningKeys, ", "))
}

func expandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
