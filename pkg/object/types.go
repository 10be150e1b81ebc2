package object

import (
	"fmt"
	"strconv"
)

// Kind identifies the kind of object stored.
type Kind uint8

const (
	KindBlob Kind = iota + 1
	KindTree
	KindCommit
)

func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindCommit:
		return "commit"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind maps the lowercase header word to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "blob":
		return KindBlob, nil
	case "tree":
		return KindTree, nil
	case "commit":
		return KindCommit, nil
	default:
		return 0, fmt.Errorf("%w: unknown object kind %q", ErrMalformedObject, s)
	}
}

// Header precedes every stored object's content: "<kind> <size>\0".
type Header struct {
	Kind Kind
	Size int64
}

// Bytes returns the serialized header including the terminating NUL.
func (h Header) Bytes() []byte {
	b := make([]byte, 0, 24)
	b = append(b, h.Kind.String()...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, h.Size, 10)
	return append(b, 0)
}

// Mode is the filesystem type recorded on a tree entry.
type Mode uint8

const (
	ModeRegular Mode = iota + 1
	ModeExecutable
	ModeTree
	ModeSymlink
)

// Tree entry mode strings as they appear in tree content.
const (
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeDir        = "040000"
	TreeModeSymlink    = "120000"
)

func (m Mode) String() string {
	switch m {
	case ModeRegular:
		return TreeModeFile
	case ModeExecutable:
		return TreeModeExecutable
	case ModeTree:
		return TreeModeDir
	case ModeSymlink:
		return TreeModeSymlink
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode maps a tree entry mode string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case TreeModeFile:
		return ModeRegular, nil
	case TreeModeExecutable:
		return ModeExecutable, nil
	case TreeModeDir:
		return ModeTree, nil
	case TreeModeSymlink:
		return ModeSymlink, nil
	default:
		return 0, fmt.Errorf("%w: unknown tree entry mode %q", ErrMalformedObject, s)
	}
}

// Kind returns the kind of object an entry with mode m points at.
func (m Mode) Kind() Kind {
	if m == ModeTree {
		return KindTree
	}
	return KindBlob
}
