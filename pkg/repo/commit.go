package repo

import (
	"fmt"
	"time"

	"github.com/odvcencio/twig/pkg/object"
	"go.uber.org/zap"
)

// ShortHashLen is the abbreviated hash length printed after a commit.
const ShortHashLen = 7

// CommitOptions tunes Commit. The zero value commits unsigned at the
// current time.
type CommitOptions struct {
	// Signer, when set, signs the serialized commit; the signature is stored
	// next to the object store, leaving the commit encoding unchanged.
	Signer CommitSigner
	// Time overrides the commit timestamp.
	Time time.Time
}

// CommitResult describes a commit that was just made.
type CommitResult struct {
	Hash    object.Hash
	Short   string
	Message string
	Signed  bool
}

// Commit records the working tree as a new commit.
//
//  1. Snapshot the root with WriteTree
//  2. Read HEAD; a missing HEAD means the commit has no parent
//  3. Write the commit object (and its signature, if requested)
//  4. Point HEAD at the new commit
func (r *Repo) Commit(message string, opts CommitOptions) (*CommitResult, error) {
	// 1. Snapshot.
	treeHash, err := r.WriteTree(r.RootDir)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// 2. Parent.
	var parents []object.Hash
	head, ok, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if ok {
		parents = append(parents, head)
	}

	// 3. Commit object.
	at := opts.Time
	if at.IsZero() {
		at = time.Now()
	}
	c, err := object.NewCommitAt(treeHash, parents, message, at)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	commitHash, err := c.Write(r.Store)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	signed := false
	if opts.Signer != nil {
		sig, err := opts.Signer(c.Content())
		if err != nil {
			return nil, fmt.Errorf("commit: sign commit: %w", err)
		}
		if err := r.writeSignature(commitHash, sig); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		signed = true
	}

	// 4. HEAD.
	if err := r.SetHead(commitHash); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.log.Info("created commit",
		zap.Stringer("commit", commitHash),
		zap.Stringer("tree", treeHash),
		zap.Int("parents", len(parents)),
		zap.Bool("signed", signed))

	return &CommitResult{
		Hash:    commitHash,
		Short:   commitHash.Short(ShortHashLen),
		Message: message,
		Signed:  signed,
	}, nil
}

// LogEntry is one commit visited by Log.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks the history starting at start, following first-parent links,
// and returns up to limit commits newest first. A limit <= 0 means no
// limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start
	for limit <= 0 || len(entries) < limit {
		c, err := object.ReadCommit(r.Store, current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		// Follow first parent.
		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return entries, nil
}
