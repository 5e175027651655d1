package expect

import (
	"fmt"
	"regexp"
)

// A Pattern is one synchronisation point for a wait call.  The zero
// Pattern never matches.
type Pattern struct {
	re      *regexp.Regexp
	literal string
	isLit   bool
}

// Literal returns a Pattern that matches s verbatim, without any regular
// expression interpretation.
func Literal(s string) Pattern {
	return Pattern{re: regexp.MustCompile(regexp.QuoteMeta(s)), literal: s, isLit: true}
}

// Regexp wraps an already compiled regular expression.
func Regexp(re *regexp.Regexp) Pattern {
	return Pattern{re: re}
}

// Compile parses a regular expression into a Pattern.
func Compile(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", expr, err)
	}
	return Pattern{re: re}, nil
}

// MustCompile is like Compile but panics on an invalid expression.
func MustCompile(expr string) Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// IsLiteral reports whether the pattern was built from literal text.
func (p Pattern) IsLiteral() bool { return p.isLit }

// String returns the literal text for literal patterns and the regular
// expression source otherwise.
func (p Pattern) String() string {
	switch {
	case p.isLit:
		return p.literal
	case p.re != nil:
		return p.re.String()
	default:
		return ""
	}
}

// find returns the submatch index pairs of the leftmost match in buf, or
// nil.
func (p Pattern) find(buf []byte) []int {
	if p.re == nil {
		return nil
	}
	return p.re.FindSubmatchIndex(buf)
}

// coercePatterns turns the loosely typed arguments of Expect into
// Patterns.  Anything that is not text or a pattern is used as the
// literal form of fmt.Sprint, and warn is called for it.
func coercePatterns(args []any, warn func(format string, args ...interface{})) []Pattern {
	out := make([]Pattern, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case Pattern:
			out = append(out, v)
		case *Pattern:
			out = append(out, *v)
		case *regexp.Regexp:
			out = append(out, Regexp(v))
		case string:
			out = append(out, Literal(v))
		case []byte:
			out = append(out, Literal(string(v)))
		default:
			s := fmt.Sprint(v)
			warn("argument %q (%T) is neither text nor a pattern, using it as a literal", s, v)
			out = append(out, Literal(s))
		}
	}
	return out
}

func patternStrings(ps []Pattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
