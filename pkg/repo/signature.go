package repo

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// CommitSignaturePrefix tags the signature encoding
// "sshsig-v1:<format>:<base64 public key>:<base64 signature>".
const CommitSignaturePrefix = "sshsig-v1"

const signaturesDir = "signatures"

var (
	ErrSignatureNotFound = errors.New("commit is not signed")
	ErrInvalidSignature  = errors.New("invalid commit signature")
)

// CommitSigner signs serialized commit content and returns an encoded
// signature.
type CommitSigner func(payload []byte) (string, error)

// NewSSHSigner returns a CommitSigner backed by an SSH key.
func NewSSHSigner(signer ssh.Signer) CommitSigner {
	pubB64 := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())
	return func(payload []byte) (string, error) {
		sig, err := signer.Sign(rand.Reader, payload)
		if err != nil {
			return "", err
		}
		sigB64 := base64.StdEncoding.EncodeToString(sig.Blob)
		return fmt.Sprintf("%s:%s:%s:%s", CommitSignaturePrefix, sig.Format, pubB64, sigB64), nil
	}
}

// SignatureInfo describes a verified commit signature.
type SignatureInfo struct {
	Format      string
	PublicKey   ssh.PublicKey
	Fingerprint string
}

func signaturePath(h object.Hash) string {
	hx := h.String()
	return path.Join(signaturesDir, hx[:2], hx[2:])
}

func (r *Repo) writeSignature(h object.Hash, sig string) error {
	p := signaturePath(h)
	if err := r.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	if err := writeFileAtomic(r.fs, p, []byte(sig+"\n")); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}

// CommitSignature returns the encoded signature stored for commit h.
func (r *Repo) CommitSignature(h object.Hash) (string, error) {
	data, err := afero.ReadFile(r.fs, signaturePath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("commit %s: %w", h, ErrSignatureNotFound)
		}
		return "", fmt.Errorf("read signature: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// VerifyCommitSignature checks the stored signature of commit h against the
// commit's serialized content.
func (r *Repo) VerifyCommitSignature(h object.Hash) (*SignatureInfo, error) {
	hdr, payload, err := r.Store.Read(h)
	if err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}
	if hdr.Kind != object.KindCommit {
		return nil, fmt.Errorf("verify signature: object %s: %w: got %s, want %s",
			h, object.ErrInvalidObjectType, hdr.Kind, object.KindCommit)
	}
	encoded, err := r.CommitSignature(h)
	if err != nil {
		return nil, err
	}
	info, err := verifySignature(encoded, payload)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", h, err)
	}
	return info, nil
}

func verifySignature(encoded string, payload []byte) (*SignatureInfo, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 4 || parts[0] != CommitSignaturePrefix {
		return nil, fmt.Errorf("%w: unrecognized encoding", ErrInvalidSignature)
	}
	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrInvalidSignature, err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrInvalidSignature, err)
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidSignature, err)
	}
	if err := pub.Verify(payload, &ssh.Signature{Format: parts[1], Blob: blob}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &SignatureInfo{
		Format:      parts[1],
		PublicKey:   pub,
		Fingerprint: ssh.FingerprintSHA256(pub),
	}, nil
}
