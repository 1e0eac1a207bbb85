// Package opendax is a Go client engine for OpenDAX style tag servers.
//
// A tag is a named, strongly typed region of server memory. This module
// parses tag paths, resolves compound data types (CDTs), and marshals Go
// values into the server's fixed-width little-endian layout and back.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	opendax/             Root package with the Transport contract and opcodes
//	├── client/          High-level typed read/write API keyed by tag paths
//	├── directory/       Per-client cache of tag handles
//	├── tagpath/         Tag path parsing and address resolution
//	├── codec/           Value <-> byte encoding, overflow policy, bit packing
//	├── types/           Scalar table and compound type registry
//	├── wire/            Protobuf wire forms for types and requests
//	├── memserver/       In-process tag server over wazero linear memory
//	├── schema/          YAML/TOML schema files for CDTs and tags
//	├── errors/          Structured error types
//	└── cmd/daxc/        Command line and TUI client
//
// # Quick Start
//
//	srv, err := memserver.New(ctx, memserver.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close(ctx)
//
//	c := client.New("example", srv)
//	if _, err := c.AddTag(ctx, "d_dint", types.Name("dint"), 1, nil); err != nil {
//	    log.Fatal(err)
//	}
//	_ = c.Write(ctx, "d_dint", int64(2147483648), client.WithClip())
//	v, _ := c.Read(ctx, "d_dint") // int32(2147483647)
//
// # Tag Paths
//
//	path := ident ( '[' index (':' count)? ']' )? ( '.' ident ( '[' index ']' )? )*
//
// Examples: "bool2[2]", "d_ints[4:8]", "dummy3[0].ddd.mem1".
//
// # Thread Safety
//
// A Client and everything it owns (registry, directory, codec) is meant to be
// used by one goroutine. Use one Client per goroutine; clients share no
// state. The memserver package is safe for concurrent clients.
package opendax
