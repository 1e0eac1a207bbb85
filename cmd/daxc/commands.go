package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/opendax/client"
	"github.com/wippyai/opendax/codec"
	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/memserver"
	"github.com/wippyai/opendax/schema"
	"github.com/wippyai/opendax/types"
)

// session is one client attached to its own server.
type session struct {
	srv *memserver.Server
	c   *client.Client
	out io.Writer
}

func newSession(ctx context.Context, f *schema.File, out io.Writer) (*session, error) {
	srv, err := memserver.New(ctx, f.ServerConfig())
	if err != nil {
		return nil, err
	}
	c := client.New(f.Client.Name, srv)
	if err := f.Apply(ctx, c); err != nil {
		_ = srv.Close(ctx)
		return nil, err
	}
	return &session{srv: srv, c: c, out: out}, nil
}

func (s *session) close(ctx context.Context) {
	_ = s.srv.Close(ctx)
}

type command struct {
	run   func(s *session, ctx context.Context, args []string) error
	usage string
	min   int
	max   int // -1 for no limit
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"read":  {run: (*session).read, usage: "read <path>", min: 1, max: 1},
		"write": {run: (*session).write, usage: "write <path> <value> [value...]", min: 2, max: -1},
		"clip":  {run: (*session).clip, usage: "clip <path> <value> [value...]", min: 2, max: -1},
		"add":   {run: (*session).add, usage: "add <name> <type> [count]", min: 2, max: 3},
		"cdt":   {run: (*session).cdt, usage: "cdt <name> [member:type[:count]...]", min: 1, max: -1},
		"list":  {run: (*session).list, usage: "list", min: 0, max: 0},
		"dump":  {run: (*session).dump, usage: "dump [tag]", min: 0, max: 1},
		"help":  {run: (*session).help, usage: "help", min: 0, max: 0},
	}
}

// splitCommands splits a -x argument into trimmed, non-empty commands.
func splitCommands(src string) []string {
	var out []string
	for _, part := range strings.Split(src, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// script runs every command in src and stops at the first failure.
func (s *session) script(ctx context.Context, src string) error {
	for _, line := range splitCommands(src) {
		if err := s.exec(ctx, line); err != nil {
			return fmt.Errorf("%s: %w", line, err)
		}
	}
	return nil
}

func (s *session) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
	if len(args) < cmd.min || (cmd.max >= 0 && len(args) > cmd.max) {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(s, ctx, args)
}

func (s *session) read(ctx context.Context, args []string) error {
	v, err := s.c.Read(ctx, args[0])
	if err != nil {
		return err
	}
	if seq, ok := v.([]any); ok {
		for _, e := range seq {
			fmt.Fprintln(s.out, codec.Format(e))
		}
		return nil
	}
	fmt.Fprintln(s.out, codec.Format(v))
	return nil
}

func (s *session) write(ctx context.Context, args []string) error {
	return s.c.Write(ctx, args[0], parseValues(args[1:]))
}

func (s *session) clip(ctx context.Context, args []string) error {
	return s.c.Write(ctx, args[0], parseValues(args[1:]), client.WithClip())
}

func (s *session) add(ctx context.Context, args []string) error {
	count := 1
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad count %q", args[2])
		}
		count = n
	}
	tag, err := s.c.AddTag(ctx, args[0], types.Name(args[1]), count, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s handle %d offset %d\n", tag, tag.Handle, tag.BaseOffset)
	return nil
}

// cdt prints a compound definition, or defines one when members are given.
func (s *session) cdt(ctx context.Context, args []string) error {
	if len(args) > 1 {
		members, err := parseMembers(args[1:])
		if err != nil {
			return err
		}
		if _, err := s.c.AddCDT(ctx, args[0], members); err != nil {
			return err
		}
	}
	t, err := s.c.Registry().Resolve(types.Name(args[0]))
	if err != nil {
		return err
	}
	defs, err := s.c.CDT(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s size %d\n", t.Name(), t.Size())
	for i, d := range defs {
		m := t.Member(i)
		fmt.Fprintf(s.out, "  %s %s %d @%d.%d\n", d.Name, m.Type.Name(), d.Count, m.ByteOffset, m.BitOffset)
	}
	return nil
}

func (s *session) list(ctx context.Context, _ []string) error {
	for _, name := range s.srv.TagNames() {
		addr, err := s.c.Resolve(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, addr.Tag)
	}
	return nil
}

func (s *session) dump(_ context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "%d bytes used\n", s.srv.Used())
		return nil
	}
	data, err := s.srv.Bytes(args[0])
	if err != nil {
		return err
	}
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		fmt.Fprintf(s.out, "%04x  % x\n", off, data[off:end])
	}
	return nil
}

func (s *session) help(context.Context, []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(s.out, commands[name].usage)
	}
	return nil
}

// parseValues turns command arguments into a value for Client.Write. A
// single argument is a scalar; several make a sequence.
func parseValues(args []string) any {
	if len(args) == 1 {
		return parseValue(args[0])
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = parseValue(a)
	}
	return out
}

func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, ok := new(big.Int).SetString(s, 0); ok {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseMembers parses member:type[:count] arguments.
func parseMembers(args []string) ([]types.MemberDef, error) {
	out := make([]types.MemberDef, len(args))
	for i, a := range args {
		parts := strings.Split(a, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, errors.InvalidData(errors.PhaseConfig, []string{a}, "member must be name:type[:count]")
		}
		out[i] = types.MemberDef{Name: parts[0], Type: types.Name(parts[1])}
		if len(parts) == 3 {
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, errors.InvalidData(errors.PhaseConfig, []string{a}, "bad member count")
			}
			out[i].Count = n
		}
	}
	return out, nil
}
