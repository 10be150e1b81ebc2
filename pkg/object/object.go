package object

import "fmt"

// Object is one of *Blob, *Tree or *Commit. The set is closed: only this
// package implements it.
type Object interface {
	Kind() Kind
	Hash() Hash
	Size() int64
	isObject()
}

// ReadObject resolves h to a Blob or a Tree by reading its header first.
// Tree entries only ever point at these two kinds, so a commit is rejected
// with ErrInvalidObjectType; commits are loaded directly with ReadCommit.
func ReadObject(s *Store, h Hash) (Object, error) {
	return readObject(s, h, 0)
}

func readObject(s *Store, h Hash, depth int) (Object, error) {
	hdr, err := s.Stat(h)
	if err != nil {
		return nil, err
	}
	switch hdr.Kind {
	case KindBlob:
		return ReadBlob(s, h)
	case KindTree:
		return readTree(s, h, depth)
	default:
		return nil, fmt.Errorf("object %s: %w: %s cannot be a tree entry", h, ErrInvalidObjectType, hdr.Kind)
	}
}
