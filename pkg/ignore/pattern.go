package ignore

import (
	"regexp"
	"strings"
)

// matcher is a compiled rule pattern. It matches slash-separated paths
// relative to the rule's directory; directories carry a trailing '/'.
type matcher struct {
	negated bool
	dirOnly bool
	re      *regexp.Regexp
}

func (m *matcher) match(rel string) bool {
	return m.re != nil && m.re.MatchString(rel)
}

// compilePattern translates a rule pattern into a matcher.
//
// A pattern without a leading or interior '/' matches at any depth; otherwise
// it is anchored to the rule's directory. A pattern with a trailing '/'
// matches directories only; any other pattern that matches a directory also
// matches every path below it.
func compilePattern(pattern string) (*matcher, error) {
	m := &matcher{}
	p := pattern
	if strings.HasPrefix(p, "!") {
		m.negated = true
		p = p[1:]
	}
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(p, `\/`) {
		m.dirOnly = true
		p = strings.TrimRight(p, "/")
	}

	anchored := strings.Contains(p, "/")
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return m, nil
	}

	var b strings.Builder
	if anchored {
		b.WriteString("^")
	} else {
		b.WriteString("^(?:.*/)?")
	}
	b.WriteString(globToRegex(p))
	if m.dirOnly {
		b.WriteString("/$")
	} else {
		b.WriteString("(?:/.*)?$")
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	m.re = re
	return m, nil
}

// globToRegex translates the glob body of a pattern, without anchors.
func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch ch {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					// Globstar directory segment: zero or more path segments.
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			class, n := charClass(pattern[i:])
			if n == 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(class)
			i += n - 1
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
				continue
			}
			b.WriteString(`\\`)
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	return b.String()
}

// charClass translates a bracket expression at the start of s. It returns
// the regex class and the number of pattern bytes consumed, or 0 when s has
// no closing bracket.
func charClass(s string) (string, int) {
	i := 1
	negate := false
	if i < len(s) && (s[i] == '!' || s[i] == '^') {
		negate = true
		i++
	}
	start := i
	// A ']' right after the opening bracket is a literal.
	if i < len(s) && s[i] == ']' {
		i++
	}
	for i < len(s) && s[i] != ']' {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		i++
	}
	if i >= len(s) {
		return "", 0
	}

	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for j := start; j < i; j++ {
		c := s[j]
		if c == '\\' && j+1 < i {
			j++
			c = s[j]
		}
		switch c {
		case '\\', '[', ']', '^':
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	if negate {
		b.WriteString("/")
	}
	b.WriteByte(']')
	return b.String(), i + 1
}
