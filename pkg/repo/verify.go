package repo

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
	"go.uber.org/zap"
)

// VerifyReport summarizes a Verify run.
type VerifyReport struct {
	// Objects is the number of stored objects whose content was rehashed.
	Objects int
	// Corrupt lists stored objects whose content no longer matches their
	// hash or whose header is malformed.
	Corrupt []object.Hash
	// Reachable is the number of objects reachable from HEAD.
	Reachable int
	// Missing lists objects referenced from HEAD that are not stored.
	Missing []object.Hash
}

// OK reports whether no corruption and no missing objects were found.
func (v *VerifyReport) OK() bool {
	return len(v.Corrupt) == 0 && len(v.Missing) == 0
}

// Verify rehashes every stored object and checks that the history reachable
// from HEAD is complete.
func (r *Repo) Verify() (*VerifyReport, error) {
	report := &VerifyReport{}
	err := r.Store.Walk(func(h object.Hash) error {
		report.Objects++
		if err := r.Store.Verify(h); err != nil {
			r.log.Warn("corrupt object", zap.Stringer("hash", h), zap.Error(err))
			report.Corrupt = append(report.Corrupt, h)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if len(report.Corrupt) > 0 {
		// Reachability would trip over the same corrupt objects.
		return report, nil
	}

	head, ok, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if !ok {
		return report, nil
	}
	set, missing, err := r.Store.ReachableSet([]object.Hash{head})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report.Reachable = len(set)
	report.Missing = missing
	return report, nil
}
