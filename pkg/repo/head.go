package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const headFile = "HEAD"

// Head returns the commit hash stored in .twig/HEAD. ok is false when no
// commit has been made yet.
func (r *Repo) Head() (h object.Hash, ok bool, err error) {
	data, err := afero.ReadFile(r.fs, headFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.ZeroHash, false, nil
		}
		return object.ZeroHash, false, fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return object.ZeroHash, false, nil
	}
	h, err = object.ParseHash(content)
	if err != nil {
		return object.ZeroHash, false, fmt.Errorf("head: %w", err)
	}
	return h, true, nil
}

// SetHead overwrites .twig/HEAD with h.
func (r *Repo) SetHead(h object.Hash) error {
	if err := writeFileAtomic(r.fs, headFile, []byte(h.String()+"\n")); err != nil {
		return fmt.Errorf("set head: %w", err)
	}
	r.log.Debug("updated HEAD", zap.Stringer("commit", h))
	return nil
}
