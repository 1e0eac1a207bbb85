// Package schema loads tag and compound type declarations from YAML or TOML
// files and applies them to a client.
//
// A schema file looks like:
//
//	client: {name: daxc}
//	server: {memory_limit_pages: 256}
//	cdts:
//	  - name: dopey
//	    members: [{name: mem1, type: uint}, {name: mem2, type: bool, count: 10}]
//	tags:
//	  - {name: dummy, type: uint, count: 1, value: 0}
package schema

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/opendax/client"
	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/internal/ident"
	"github.com/wippyai/opendax/memserver"
	"github.com/wippyai/opendax/types"
)

// Format is a schema file encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// DefaultClientName is used when a schema names no client.
const DefaultClientName = "daxc"

// File is a decoded schema.
type File struct {
	Client ClientSection `yaml:"client" toml:"client"`
	Server ServerSection `yaml:"server" toml:"server"`
	CDTs   []CDT         `yaml:"cdts" toml:"cdts"`
	Tags   []Tag         `yaml:"tags" toml:"tags"`
}

// ClientSection configures the client.
type ClientSection struct {
	Name string `yaml:"name" toml:"name"`
}

// ServerSection configures the in-process server.
type ServerSection struct {
	InitialPages     uint32 `yaml:"initial_pages" toml:"initial_pages"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" toml:"memory_limit_pages"`
}

// CDT declares a compound type.
type CDT struct {
	Name    string   `yaml:"name" toml:"name"`
	Members []Member `yaml:"members" toml:"members"`
}

// Member declares one compound member.
type Member struct {
	Name  string `yaml:"name" toml:"name"`
	Type  string `yaml:"type" toml:"type"`
	Count int    `yaml:"count" toml:"count"`
}

// Tag declares a tag and its optional initial value.
type Tag struct {
	Value any    `yaml:"value" toml:"value"`
	Name  string `yaml:"name" toml:"name"`
	Type  string `yaml:"type" toml:"type"`
	Count int    `yaml:"count" toml:"count"`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", errors.InvalidData(errors.PhaseConfig, []string{path}, "unsupported schema extension")
}

// Load reads, decodes and validates the schema at path.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "read schema "+path)
	}
	return Decode(data, format)
}

// Decode parses and validates a schema.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode yaml schema")
		}
	case TOML:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode toml schema")
		}
	default:
		return nil, errors.InvalidData(errors.PhaseConfig, nil, fmt.Sprintf("unknown format %q", format))
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate fills defaults and checks every name and count.
func (f *File) Validate() error {
	if f.Client.Name == "" {
		f.Client.Name = DefaultClientName
	}

	cdts := make(map[string]struct{}, len(f.CDTs))
	for i := range f.CDTs {
		c := &f.CDTs[i]
		path := []string{"cdts", c.Name}
		if !ident.Valid(c.Name) {
			return errors.InvalidData(errors.PhaseConfig, path, "invalid type name")
		}
		key := strings.ToLower(c.Name)
		if _, dup := cdts[key]; dup {
			return errors.DuplicateType(errors.PhaseConfig, c.Name)
		}
		cdts[key] = struct{}{}
		if len(c.Members) == 0 {
			return errors.InvalidData(errors.PhaseConfig, path, "compound has no members")
		}
		for j := range c.Members {
			m := &c.Members[j]
			if err := checkEntry(append(path, m.Name), m.Name, m.Type, &m.Count); err != nil {
				return err
			}
		}
	}

	tags := make(map[string]struct{}, len(f.Tags))
	for i := range f.Tags {
		t := &f.Tags[i]
		if err := checkEntry([]string{"tags", t.Name}, t.Name, t.Type, &t.Count); err != nil {
			return err
		}
		if _, dup := tags[t.Name]; dup {
			return errors.DuplicateTag(errors.PhaseConfig, t.Name)
		}
		tags[t.Name] = struct{}{}
	}
	return nil
}

func checkEntry(path []string, name, typ string, count *int) error {
	if !ident.Valid(name) {
		return errors.InvalidData(errors.PhaseConfig, path, "invalid name")
	}
	if typ == "" {
		return errors.InvalidData(errors.PhaseConfig, path, "missing type")
	}
	switch {
	case *count == 0:
		*count = 1
	case *count < 0:
		return errors.InvalidData(errors.PhaseConfig, path, fmt.Sprintf("invalid count %d", *count))
	}
	return nil
}

// ServerConfig returns the memserver settings of the schema.
func (f *File) ServerConfig() memserver.Config {
	return memserver.Config{
		InitialPages: f.Server.InitialPages,
		MaxPages:     f.Server.MemoryLimitPages,
	}
}

// Definitions converts the declared compounds for types.Registry.RegisterAll.
func (f *File) Definitions() []types.CompoundDef {
	defs := make([]types.CompoundDef, len(f.CDTs))
	for i, c := range f.CDTs {
		members := make([]types.MemberDef, len(c.Members))
		for j, m := range c.Members {
			members[j] = types.MemberDef{Name: m.Name, Type: types.Name(m.Type), Count: m.Count}
		}
		defs[i] = types.CompoundDef{Name: c.Name, Members: members}
	}
	return defs
}

// Apply registers the schema's compounds and creates its tags in
// declaration order. Compounds may refer to each other in any order.
func (f *File) Apply(ctx context.Context, c *client.Client) error {
	if len(f.CDTs) > 0 {
		if _, err := c.AddCDTs(ctx, f.Definitions()); err != nil {
			return err
		}
	}
	for _, t := range f.Tags {
		if _, err := c.AddTag(ctx, t.Name, types.Name(t.Type), t.Count, t.Value); err != nil {
			return err
		}
	}
	return nil
}
