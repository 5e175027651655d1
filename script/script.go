// Package script describes send/expect conversations as data so they can
// be kept in YAML files or given on the command line.
//
//	timeout: 10s
//	steps:
//	  - expect: "login: "
//	  - send: "root\n"
//	  - expect: ["Password: ", "# "]
//	  - regex: 'uid=(\d+)'
//	    timeout: 2s
//	  - eof: true
package script

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"goexpect/expect"
)

// Script is an ordered list of steps.
type Script struct {
	// Timeout applies to steps without their own; zero means the
	// session's default.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Steps   []Step        `yaml:"steps"`
}

// Step sends, waits, or both (sending first).
type Step struct {
	Send    string        `yaml:"send,omitempty"`
	Expect  stringList    `yaml:"expect,omitempty"`
	Regex   stringList    `yaml:"regex,omitempty"`
	EOF     bool          `yaml:"eof,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Optional steps tolerate a timeout.
	Optional bool `yaml:"optional,omitempty"`

	patterns []expect.Pattern
}

// stringList accepts either a single YAML string or a sequence.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML script and validates every step.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	for i := range s.Steps {
		if err := s.Steps[i].compile(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

// ParseStep parses the command-line form of a step: "send=TEXT",
// "expect=TEXT", "regex=EXPR" or "eof".  TEXT may use Go escapes such as
// \n, \r, \t and \x03.
func ParseStep(spec string) (Step, error) {
	kind, value, hasValue := strings.Cut(spec, "=")
	var st Step
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "eof":
		st.EOF = true
		hasValue = true
	case "send":
		v, err := unescape(value)
		if err != nil {
			return Step{}, err
		}
		st.Send = v
	case "expect":
		v, err := unescape(value)
		if err != nil {
			return Step{}, err
		}
		st.Expect = stringList{v}
	case "regex":
		st.Regex = stringList{value}
	default:
		return Step{}, fmt.Errorf("unknown step %q (want send=, expect=, regex= or eof)", spec)
	}
	if !hasValue {
		return Step{}, fmt.Errorf("step %q needs a value", spec)
	}
	if err := st.compile(); err != nil {
		return Step{}, err
	}
	return st, nil
}

func unescape(s string) (string, error) {
	v, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return "", fmt.Errorf("bad escape in %q: %w", s, err)
	}
	return v, nil
}

// compile validates the step and builds its patterns: literals first,
// then regular expressions, each in the order given.
func (st *Step) compile() error {
	if st.Send == "" && len(st.Expect) == 0 && len(st.Regex) == 0 && !st.EOF {
		return fmt.Errorf("empty step")
	}
	if st.EOF && len(st.Expect)+len(st.Regex) > 0 {
		return fmt.Errorf("eof cannot be combined with expect or regex")
	}
	st.patterns = st.patterns[:0]
	for _, lit := range st.Expect {
		st.patterns = append(st.patterns, expect.Literal(lit))
	}
	for _, expr := range st.Regex {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("regex %q: %w", expr, err)
		}
		st.patterns = append(st.patterns, expect.Regexp(re))
	}
	return nil
}

// Patterns returns the step's wait patterns in priority order.
func (st Step) Patterns() []expect.Pattern { return st.patterns }

// String renders the step in its command-line form.
func (st Step) String() string {
	var parts []string
	if st.Send != "" {
		parts = append(parts, "send="+expect.Printable([]byte(st.Send)))
	}
	for _, p := range st.patterns {
		if p.IsLiteral() {
			parts = append(parts, "expect="+expect.Printable([]byte(p.String())))
		} else {
			parts = append(parts, "regex="+p.String())
		}
	}
	if st.EOF {
		parts = append(parts, "eof")
	}
	return strings.Join(parts, " ")
}
