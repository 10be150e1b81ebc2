package diff

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// binarySniffLen bounds how much of a file is searched for a NUL byte.
const binarySniffLen = 8000

// Hunk is a run of edit operations with surrounding context. Starts are
// 1-based; a zero-length side starts at the line before the hunk.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Ops                []Op
}

// Lines diffs a and b line by line. Lines keep their terminating newline,
// so a final line without one differs from the same line with one.
func Lines(a, b []byte) []Op {
	return Myers(splitLines(a), splitLines(b))
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Hunks groups ops into hunks with up to context unchanged lines on each
// side. Changes separated by at most 2*context unchanged lines share a hunk.
func Hunks(ops []Op, context int) []Hunk {
	if context < 0 {
		context = 0
	}
	// oldBefore[i] and newBefore[i] count the lines consumed by ops[:i].
	oldBefore := make([]int, len(ops)+1)
	newBefore := make([]int, len(ops)+1)
	for i, op := range ops {
		oldBefore[i+1], newBefore[i+1] = oldBefore[i], newBefore[i]
		if op.Type != Insert {
			oldBefore[i+1]++
		}
		if op.Type != Delete {
			newBefore[i+1]++
		}
	}

	var hunks []Hunk
	for i := 0; i < len(ops); {
		if ops[i].Type == Equal {
			i++
			continue
		}
		start := max(0, i-context)
		end := i + 1
		for j := end; j < len(ops) && j-end <= 2*context; j++ {
			if ops[j].Type != Equal {
				end = j + 1
			}
		}
		stop := min(len(ops), end+context)

		h := Hunk{
			OldStart: oldBefore[start],
			OldLines: oldBefore[stop] - oldBefore[start],
			NewStart: newBefore[start],
			NewLines: newBefore[stop] - newBefore[start],
			Ops:      ops[start:stop],
		}
		if h.OldLines > 0 {
			h.OldStart++
		}
		if h.NewLines > 0 {
			h.NewStart++
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

// Header renders the "@@ -a,b +c,d @@" line of the hunk.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@", hunkRange(h.OldStart, h.OldLines), hunkRange(h.NewStart, h.NewLines))
}

func hunkRange(start, lines int) string {
	if lines == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, lines)
}

// IsBinary reports whether data looks like binary content.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// WriteUnified writes a unified diff of a and b labelled oldName and
// newName. Nothing is written when the contents are equal.
func WriteUnified(w io.Writer, oldName, newName string, a, b []byte, context int) error {
	if bytes.Equal(a, b) {
		return nil
	}
	if IsBinary(a) || IsBinary(b) {
		_, err := fmt.Fprintf(w, "Binary files %s and %s differ\n", oldName, newName)
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n+++ %s\n", oldName, newName)
	for _, h := range Hunks(Lines(a, b), context) {
		buf.WriteString(h.Header())
		buf.WriteByte('\n')
		for _, op := range h.Ops {
			switch op.Type {
			case Equal:
				buf.WriteByte(' ')
			case Insert:
				buf.WriteByte('+')
			case Delete:
				buf.WriteByte('-')
			}
			buf.WriteString(op.Line)
			if !strings.HasSuffix(op.Line, "\n") {
				buf.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
