package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	data := []byte(`
timeout: 3s
steps:
  - expect: "login: "
  - send: "root\n"
    expect: ["Password: ", "# "]
  - regex: 'uid=(\d+)'
    timeout: 250ms
    optional: true
  - eof: true
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Timeout != 3*time.Second || len(s.Steps) != 4 {
		t.Fatalf("timeout=%v steps=%d", s.Timeout, len(s.Steps))
	}

	tests := []struct {
		step     int
		send     string
		patterns []string
		timeout  time.Duration
		optional bool
		eof      bool
	}{
		{0, "", []string{"login: "}, 0, false, false},
		{1, "root\n", []string{"Password: ", "# "}, 0, false, false},
		{2, "", []string{`uid=(\d+)`}, 250 * time.Millisecond, true, false},
		{3, "", nil, 0, false, true},
	}
	for _, tt := range tests {
		st := s.Steps[tt.step]
		if st.Send != tt.send || st.Timeout != tt.timeout || st.Optional != tt.optional || st.EOF != tt.eof {
			t.Errorf("step %d = %+v", tt.step, st)
		}
		ps := st.Patterns()
		if len(ps) != len(tt.patterns) {
			t.Errorf("step %d: %d patterns, want %d", tt.step, len(ps), len(tt.patterns))
			continue
		}
		for i, p := range ps {
			if p.String() != tt.patterns[i] {
				t.Errorf("step %d pattern %d = %q, want %q", tt.step, i, p.String(), tt.patterns[i])
			}
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad regex", "steps:\n  - regex: '('\n", "regex"},
		{"empty step", "steps:\n  - optional: true\n", "empty step"},
		{"eof with expect", "steps:\n  - eof: true\n    expect: x\n", "eof cannot"},
		{"mapping as expect", "steps:\n  - expect: {a: b}\n", "string or a list"},
		{"bad duration", "steps:\n  - expect: x\n    timeout: soon\n", "parsing script"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - send: \"hi\\n\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Steps) != 1 || s.Steps[0].Send != "hi\n" {
		t.Errorf("steps = %+v", s.Steps)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		spec    string
		send    string
		pattern string
		literal bool
		eof     bool
		wantErr bool
	}{
		{spec: `send=ls -l\n`, send: "ls -l\n"},
		{spec: `send=\x03`, send: "\x03"},
		{spec: `send=say "hi"`, send: `say "hi"`},
		{spec: "expect=$ ", pattern: "$ ", literal: true},
		{spec: "expect=a=b", pattern: "a=b", literal: true},
		{spec: `regex=\d+ files`, pattern: `\d+ files`},
		{spec: "eof", eof: true},
		{spec: "EOF", eof: true},
		{spec: "send=", wantErr: true},
		{spec: "expect", wantErr: true},
		{spec: "regex=(", wantErr: true},
		{spec: "wait=1s", wantErr: true},
		{spec: `send=\q`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			st, err := ParseStep(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", st)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if st.Send != tt.send || st.EOF != tt.eof {
				t.Errorf("step = %+v", st)
			}
			if tt.pattern != "" {
				ps := st.Patterns()
				if len(ps) != 1 || ps[0].String() != tt.pattern || ps[0].IsLiteral() != tt.literal {
					t.Errorf("patterns = %v", ps)
				}
			}
		})
	}
}

func TestStepString(t *testing.T) {
	st, err := ParseStep(`send=exit\r`)
	if err != nil {
		t.Fatal(err)
	}
	if st.String() != `send=exit\r` {
		t.Errorf("String = %q", st.String())
	}
}
