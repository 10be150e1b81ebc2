package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Commit wraps a tree snapshot with its parent link, creation time and
// message.
type Commit struct {
	Tree    Hash
	Parents []Hash
	// Time carries the author's UTC offset in its location.
	Time    time.Time
	Message string
}

// NewCommit creates a commit stamped with the current local time.
func NewCommit(tree Hash, parents []Hash, message string) (*Commit, error) {
	return NewCommitAt(tree, parents, message, time.Now())
}

// NewCommitAt creates a commit stamped with t. The timestamp keeps whole
// seconds and the UTC offset keeps whole minutes.
func NewCommitAt(tree Hash, parents []Hash, message string, t time.Time) (*Commit, error) {
	if t.IsZero() {
		return nil, fmt.Errorf("new commit: invalid timestamp")
	}
	_, offset := t.Zone()
	loc := time.FixedZone("", offset/60*60)
	return &Commit{
		Tree:    tree,
		Parents: append([]Hash(nil), parents...),
		Time:    time.Unix(t.Unix(), 0).In(loc),
		Message: message,
	}, nil
}

// TimezoneOffset returns the commit's UTC offset in minutes.
func (c *Commit) TimezoneOffset() int {
	_, offset := c.Time.Zone()
	return offset / 60
}

// Content serializes the commit:
//
//	tree <hex>
//	parent <hex>     (zero or more)
//	time <epoch> <±HHMM>
//
//	message
func (c *Commit) Content() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "time %d %s\n", c.Time.Unix(), FormatTimezone(c.TimezoneOffset()))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

func (c *Commit) Kind() Kind  { return KindCommit }
func (c *Commit) Hash() Hash  { return HashBytes(KindCommit, c.Content()) }
func (c *Commit) Size() int64 { return int64(len(c.Content())) }

// Write stores the commit in s and returns its hash.
func (c *Commit) Write(s *Store) (Hash, error) {
	h, err := s.WriteBytes(KindCommit, c.Content())
	if err != nil {
		return ZeroHash, fmt.Errorf("write commit: %w", err)
	}
	return h, nil
}

func (c *Commit) isObject() {}

// ReadCommit loads and parses the commit h from s.
func ReadCommit(s *Store, h Hash) (*Commit, error) {
	hdr, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if hdr.Kind != KindCommit {
		return nil, fmt.Errorf("object %s: %w: got %s, want %s", h, ErrInvalidObjectType, hdr.Kind, KindCommit)
	}
	c, err := ParseCommit(data)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", h, err)
	}
	return c, nil
}

// ParseCommit parses serialized commit content.
func ParseCommit(data []byte) (*Commit, error) {
	rest := string(data)
	nextLine := func() (string, bool) {
		line, after, ok := strings.Cut(rest, "\n")
		if !ok {
			return "", false
		}
		rest = after
		return line, true
	}

	line, ok := nextLine()
	if !ok {
		return nil, fmt.Errorf("%w: commit is missing its tree line", ErrMalformedObject)
	}
	tree, err := parseHashLine(line, "tree")
	if err != nil {
		return nil, err
	}

	c := &Commit{Tree: tree}
	for {
		line, ok = nextLine()
		if !ok {
			return nil, fmt.Errorf("%w: commit is missing its time line", ErrMalformedObject)
		}
		if !strings.HasPrefix(line, "parent ") {
			break
		}
		p, err := parseHashLine(line, "parent")
		if err != nil {
			return nil, err
		}
		c.Parents = append(c.Parents, p)
	}

	if c.Time, err = parseTimeLine(line); err != nil {
		return nil, err
	}

	line, ok = nextLine()
	if !ok || line != "" {
		return nil, fmt.Errorf("%w: commit header not followed by a blank line", ErrMalformedObject)
	}
	c.Message = rest
	return c, nil
}

func parseHashLine(line, key string) (Hash, error) {
	val, ok := strings.CutPrefix(line, key+" ")
	if !ok {
		return ZeroHash, fmt.Errorf("%w: expected %s line, got %q", ErrMalformedObject, key, line)
	}
	h, err := ParseHash(val)
	if err != nil {
		return ZeroHash, fmt.Errorf("%w: bad %s hash %q", ErrMalformedObject, key, val)
	}
	return h, nil
}

func parseTimeLine(line string) (time.Time, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] != "time" {
		return time.Time{}, fmt.Errorf("%w: bad time line %q", ErrMalformedObject, line)
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedObject, parts[1])
	}
	offset, err := ParseTimezone(parts[2])
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0).In(time.FixedZone("", offset*60)), nil
}

// FormatTimezone renders an offset in minutes as ±HHMM.
func FormatTimezone(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d%02d", sign, minutes/60, minutes%60)
}

// ParseTimezone parses exactly ±HHMM into an offset in minutes.
func ParseTimezone(s string) (int, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("%w: bad timezone offset %q", ErrMalformedObject, s)
	}
	for i := 1; i < 5; i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: bad timezone offset %q", ErrMalformedObject, s)
		}
	}
	hours := int(s[1]-'0')*10 + int(s[2]-'0')
	mins := int(s[3]-'0')*10 + int(s[4]-'0')
	if mins >= 60 {
		return 0, fmt.Errorf("%w: bad timezone offset %q", ErrMalformedObject, s)
	}
	offset := hours*60 + mins
	if s[0] == '-' {
		offset = -offset
	}
	return offset, nil
}
