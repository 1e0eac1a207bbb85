// Command daxc is a tag client over an in-process tag server.
//
//	daxc -schema plant.yaml -x "read dummy3[0].ddd; write bool2[2] 1 0 1"
//	daxc -schema plant.yaml -i
//
// Without -x or -i commands are read from stdin, one per line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/opendax/client"
	"github.com/wippyai/opendax/memserver"
	"github.com/wippyai/opendax/schema"
	"github.com/wippyai/opendax/types"
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Schema file with CDTs and tags (.yaml, .yml, .toml)")
		execCmds    = flag.String("x", "", "Commands to run, separated by ';'")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
	)
	flag.Parse()

	if *interactive && *execCmds != "" {
		fmt.Fprintln(os.Stderr, "Usage: daxc [-schema file] [-x \"cmd; cmd\"] [-v]")
		fmt.Fprintln(os.Stderr, "       daxc [-schema file] -i  (interactive mode)")
		os.Exit(1)
	}
	if *interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: -i needs a terminal on stdin")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = l.Sync() }()
		client.SetLogger(l)
		types.SetLogger(l)
		memserver.SetLogger(l)
	}

	if err := run(*schemaFile, *execCmds, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaFile, execCmds string, interactive bool) error {
	ctx := context.Background()

	f := &schema.File{}
	if schemaFile != "" {
		var err error
		if f, err = schema.Load(schemaFile); err != nil {
			return err
		}
	} else if err := f.Validate(); err != nil {
		return err
	}

	s, err := newSession(ctx, f, os.Stdout)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	switch {
	case interactive:
		return runInteractive(s)
	case execCmds != "":
		return s.script(ctx, execCmds)
	}
	return s.lines(ctx, os.Stdin)
}

func (s *session) lines(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := s.script(ctx, sc.Text()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return sc.Err()
}
