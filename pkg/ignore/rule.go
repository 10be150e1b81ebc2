package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

// Rule is one pattern loaded from an ignore file. Negation (leading '!') and
// directory-only matching (trailing '/') stay encoded in Pattern.
type Rule struct {
	Pattern string
	// Source is the path of the ignore file the rule belongs to. Implicit
	// rules carry the path the ignore file would have at their level.
	Source string
	// Line is 1-based; implicit rules use 0.
	Line int
}

func (r Rule) String() string {
	return fmt.Sprintf("%s:%d:%s", r.Source, r.Line, r.Pattern)
}

// ParseRules reads rules from r, one per line. Blank lines and lines starting
// with '#' are skipped; line numbers still count them.
func ParseRules(r io.Reader, source string) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		pattern := trimPattern(text)
		if pattern == "" {
			continue
		}
		rules = append(rules, Rule{Pattern: pattern, Source: source, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return rules, nil
}

// LoadRules reads the ignore file at path. A missing file yields no rules.
func LoadRules(fsys afero.Fs, path string) ([]Rule, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, nil
	}
	return ParseRules(f, path)
}

// trimPattern drops leading whitespace and trailing whitespace, except that
// an escaped trailing space ("\ ") survives as the pattern's last character.
func trimPattern(line string) string {
	line = strings.TrimLeft(line, " \t")
	if len(line) <= 1 {
		return line
	}
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, `\`) && len(trimmed) < len(line) && !escapedBackslash(trimmed) {
		return trimmed + " "
	}
	return trimmed
}

// escapedBackslash reports whether s ends in an even run of backslashes, in
// which case the last one escapes nothing.
func escapedBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 0
}
