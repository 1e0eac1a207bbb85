package main

import (
	"bytes"
	"context"
	"math/big"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/opendax/schema"
)

func newTestSession(t *testing.T, src string) (*session, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	f, err := schema.Decode([]byte(src), schema.YAML)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var out bytes.Buffer
	s, err := newSession(ctx, f, &out)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(func() { s.close(ctx) })
	return s, &out
}

const testSchema = `
cdts:
  - name: dopey
    members:
      - {name: mem1, type: uint}
      - {name: mem2, type: bool, count: 10}
tags:
  - {name: d_dint, type: dint}
  - {name: bool2, type: bool, count: 16}
  - {name: dummy, type: dopey, value: {mem1: 5}}
`

func TestSplitCommands(t *testing.T) {
	got := splitCommands(" read a ;; write b 1;  ")
	want := []string{"read a", "write b 1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitCommands = %q", got)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", big.NewInt(42)},
		{"-7", big.NewInt(-7)},
		{"0x10", big.NewInt(16)},
		{"2.5", 2.5},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseValue(%q) = %#v", tt.in, got)
			}
		})
	}

	if got := parseValues([]string{"1", "0"}); !reflect.DeepEqual(got, []any{big.NewInt(1), big.NewInt(0)}) {
		t.Errorf("parseValues = %#v", got)
	}
}

func TestScript(t *testing.T) {
	ctx := context.Background()
	s, out := newTestSession(t, testSchema)

	tests := []struct {
		script string
		want   string
	}{
		{"clip d_dint 2147483648; read d_dint", "2147483647\n"},
		{"write bool2[2] 1 0 1; read bool2[1:5]", "false\ntrue\nfalse\ntrue\nfalse\n"},
		{"read dummy.mem1", "5\n"},
		{"add extra lreal 2", "extra LREAL[2] handle 4 offset"},
		{"dump d_dint", "0000  ff ff ff 7f\n"},
		{"cdt dopey", "dopey size 4\n  mem1 UINT 1 @0.0\n  mem2 BOOL 10 @2.0\n"},
		{"cdt pair a:int b:real:2", "pair size 10\n  a INT 1 @0.0\n  b REAL 2 @2.0\n"},
		{"list", "bool2 BOOL[16]\nd_dint DINT\ndummy dopey\nextra LREAL[2]\n"},
		{"dump", "48 bytes used\n"},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			out.Reset()
			if err := s.script(ctx, tt.script); err != nil {
				t.Fatalf("script: %v", err)
			}
			if !strings.HasPrefix(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestScriptErrors(t *testing.T) {
	ctx := context.Background()
	s, out := newTestSession(t, testSchema)

	for _, script := range []string{
		"bogus",
		"read",
		"write d_dint 2147483648",
		"read nosuch",
		"add x dint many",
		"cdt bad a",
		"dump nosuch",
	} {
		t.Run(script, func(t *testing.T) {
			if err := s.script(ctx, script); err == nil {
				t.Errorf("script %q succeeded", script)
			}
		})
	}

	// A failed command stops the script.
	out.Reset()
	if err := s.script(ctx, "read nosuch; read d_dint"); err == nil {
		t.Fatal("expected error")
	}
	if out.Len() != 0 {
		t.Errorf("later command ran: %q", out.String())
	}
}

func TestLines(t *testing.T) {
	s, out := newTestSession(t, testSchema)
	if err := s.lines(context.Background(), strings.NewReader("read nosuch\nwrite d_dint 9\nread d_dint\n")); err != nil {
		t.Fatal(err)
	}
	if out.String() != "9\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestInteractiveModel(t *testing.T) {
	s, _ := newTestSession(t, testSchema)
	m := newInteractiveModel(s)
	if len(m.tags) != 3 {
		t.Fatalf("tags = %q", m.tags)
	}

	m.input.SetValue("add added int")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("read nosuch")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.history) != 2 || m.history[0].err != nil || m.history[1].err == nil {
		t.Fatalf("history = %+v", m.history)
	}
	if len(m.tags) != 4 {
		t.Errorf("tags after add = %q", m.tags)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "read nosuch" {
		t.Errorf("recall = %q", m.input.Value())
	}

	view := m.View()
	for _, want := range []string{"daxc", "added INT", "Error:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc did not quit")
	}
}
