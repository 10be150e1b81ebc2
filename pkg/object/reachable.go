package object

import (
	"fmt"
	"sort"
)

// ReachableSet returns all object hashes reachable from roots by following
// commit parents, commit trees and tree entries. Missing objects are
// reported in the second return value instead of failing the walk.
func (s *Store) ReachableSet(roots []Hash) (map[Hash]Kind, []Hash, error) {
	out := make(map[Hash]Kind, len(roots))
	missing := make(map[Hash]struct{})

	stack := make([]Hash, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.IsZero() {
			continue
		}
		if _, ok := out[h]; ok {
			continue
		}
		if !s.Has(h) {
			missing[h] = struct{}{}
			continue
		}

		hdr, err := s.Stat(h)
		if err != nil {
			return nil, nil, fmt.Errorf("reachable set read %s: %w", h, err)
		}
		out[h] = hdr.Kind

		refs, err := s.referencedHashes(h, hdr.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("reachable set parse %s (%s): %w", h, hdr.Kind, err)
		}
		stack = append(stack, refs...)
	}

	missingList := make([]Hash, 0, len(missing))
	for h := range missing {
		missingList = append(missingList, h)
	}
	sort.Slice(missingList, func(i, j int) bool {
		return missingList[i].String() < missingList[j].String()
	})
	return out, missingList, nil
}

func (s *Store) referencedHashes(h Hash, kind Kind) ([]Hash, error) {
	switch kind {
	case KindBlob:
		return nil, nil
	case KindCommit:
		_, data, err := s.Read(h)
		if err != nil {
			return nil, err
		}
		c, err := ParseCommit(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, 1+len(c.Parents))
		refs = append(refs, c.Tree)
		return append(refs, c.Parents...), nil
	case KindTree:
		_, data, err := s.Read(h)
		if err != nil {
			return nil, err
		}
		entries, err := parseTreeContent(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(entries))
		for _, e := range entries {
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrMalformedObject, kind)
	}
}
