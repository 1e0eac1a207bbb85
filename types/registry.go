package types

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/opendax/errors"
	"github.com/wippyai/opendax/internal/ident"
	"github.com/wippyai/opendax/types/internal/layout"
)

// MemberDef declares one member of a compound type. Count 0 means 1.
type MemberDef struct {
	Type  Ref
	Name  string
	Count int
}

// CompoundDef declares a compound type for RegisterAll.
type CompoundDef struct {
	Name    string
	Members []MemberDef
}

// Registry holds the scalar and compound types known to one client.
// It is not safe for concurrent use.
type Registry struct {
	byName    map[string]*Type
	byCode    map[Code]*Type
	compounds []*Type
}

var aliases = map[string]*Type{
	"bool":  BoolType,
	"byte":  ByteType,
	"sint":  SintType,
	"word":  WordType,
	"uint":  UintType,
	"int":   IntType,
	"dword": DwordType,
	"udint": UdintType,
	"dint":  DintType,
	"lword": LwordType,
	"ulint": UlintType,
	"lint":  LintType,
	"real":  RealType,
	"lreal": LrealType,
}

// NewRegistry returns a registry holding the built-in scalar types.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Type, len(aliases)),
		byCode: make(map[Code]*Type, len(scalars)),
	}
	for name, t := range aliases {
		r.byName[name] = t
	}
	for _, t := range scalars {
		r.byCode[t.code] = t
	}
	return r
}

func key(name string) string {
	return strings.ToLower(name)
}

// Lookup finds a type by name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.byName[key(name)]
	return t, ok
}

// ByCode finds a type by its code.
func (r *Registry) ByCode(c Code) (*Type, bool) {
	t, ok := r.byCode[c]
	return t, ok
}

// Resolve returns the type ref refers to. A *Type resolves only when it is a
// built-in scalar or was registered with r.
func (r *Registry) Resolve(ref Ref) (*Type, error) {
	switch v := ref.(type) {
	case Name:
		if t, ok := r.Lookup(string(v)); ok {
			return t, nil
		}
	case Code:
		if t, ok := r.byCode[v]; ok {
			return t, nil
		}
	case *Type:
		if v != nil {
			if t, ok := r.byCode[v.code]; ok && t == v {
				return t, nil
			}
		}
	}
	return nil, errors.UnknownType(errors.PhaseResolve, ref)
}

// Compounds returns the registered compound types in registration order.
func (r *Registry) Compounds() []*Type {
	out := make([]*Type, len(r.compounds))
	copy(out, r.compounds)
	return out
}

// RegisterCompound defines a new compound type and computes its member
// offsets. Boolean members pack bit-contiguously; every other member starts
// on a byte boundary.
func (r *Registry) RegisterCompound(name string, members []MemberDef) (*Type, error) {
	if err := r.checkDef(name, members); err != nil {
		return nil, err
	}

	resolved := make([]*Type, len(members))
	for i, m := range members {
		if n, ok := m.Type.(Name); ok && strings.EqualFold(string(n), name) {
			return nil, errors.RecursiveType(errors.PhaseRegister, []string{name, m.Name, name})
		}
		mt, err := r.Resolve(m.Type)
		if err != nil {
			return nil, errors.New(errors.PhaseRegister, errors.KindUnknownType).
				Path(name, m.Name).
				Detail("member type %v not found", m.Type).
				Value(m.Type).
				Build()
		}
		resolved[i] = mt
	}

	t := &Type{
		name:    name,
		kind:    KindCompound,
		code:    CustomFlag | Code(len(r.compounds)),
		members: make([]Member, len(members)),
		index:   make(map[string]int, len(members)),
	}
	var p layout.Packer
	for i, m := range members {
		mt := resolved[i]
		count := m.Count
		if count == 0 {
			count = 1
		}
		byteOff, bitOff, ok := p.Place(mt.Stride(), count, mt.IsBool())
		if !ok {
			return nil, errors.InvalidData(errors.PhaseRegister, []string{name, m.Name},
				fmt.Sprintf("count %d makes the type larger than %d bits", count, layout.MaxBits))
		}
		t.members[i] = Member{
			Name:       m.Name,
			Type:       mt,
			Count:      count,
			ByteOffset: byteOff,
			BitOffset:  bitOff,
		}
		t.index[m.Name] = i
	}
	t.bits = p.Bits()

	r.byName[key(name)] = t
	r.byCode[t.code] = t
	r.compounds = append(r.compounds, t)
	Logger().Debug("compound registered",
		zap.String("name", name),
		zap.Stringer("code", t.code),
		zap.Int("size", t.Size()),
	)
	return t, nil
}

// checkDef validates everything about a definition that does not need
// member type resolution.
func (r *Registry) checkDef(name string, members []MemberDef) error {
	if !ident.Valid(name) {
		return errors.InvalidData(errors.PhaseRegister, []string{name}, "invalid type name")
	}
	if _, ok := r.Lookup(name); ok {
		return errors.DuplicateType(errors.PhaseRegister, name)
	}
	if len(members) == 0 {
		return errors.InvalidData(errors.PhaseRegister, []string{name}, "compound has no members")
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if !ident.Valid(m.Name) {
			return errors.InvalidData(errors.PhaseRegister, []string{name, m.Name}, "invalid member name")
		}
		if _, dup := seen[m.Name]; dup {
			return errors.InvalidData(errors.PhaseRegister, []string{name, m.Name}, "duplicate member name")
		}
		seen[m.Name] = struct{}{}
		if m.Count < 0 {
			return errors.InvalidData(errors.PhaseRegister, []string{name, m.Name},
				fmt.Sprintf("invalid count %d", m.Count))
		}
		if m.Type == nil {
			return errors.UnknownType(errors.PhaseRegister, nil)
		}
	}
	return nil
}

// RegisterAll registers a batch of compound definitions whose members may
// refer to each other by name in any order. The batch is checked completely
// before anything is registered, so a failure leaves r unchanged.
func (r *Registry) RegisterAll(defs []CompoundDef) ([]*Type, error) {
	batch := make(map[string]int, len(defs))
	for i, d := range defs {
		if err := r.checkDef(d.Name, d.Members); err != nil {
			return nil, err
		}
		if _, dup := batch[key(d.Name)]; dup {
			return nil, errors.DuplicateType(errors.PhaseRegister, d.Name)
		}
		batch[key(d.Name)] = i
	}

	const (
		visiting = 1
		visited  = 2
	)
	state := make([]int, len(defs))
	order := make([]int, 0, len(defs))
	var chain []string

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case visited:
			return nil
		case visiting:
			return errors.RecursiveType(errors.PhaseRegister, append(chain, defs[i].Name))
		}
		state[i] = visiting
		chain = append(chain, defs[i].Name)
		for _, m := range defs[i].Members {
			if n, ok := m.Type.(Name); ok {
				if j, in := batch[key(string(n))]; in {
					if err := visit(j); err != nil {
						return err
					}
					continue
				}
			}
			if _, err := r.Resolve(m.Type); err != nil {
				return errors.New(errors.PhaseRegister, errors.KindUnknownType).
					Path(defs[i].Name, m.Name).
					Detail("member type %v not found", m.Type).
					Value(m.Type).
					Build()
			}
		}
		chain = chain[:len(chain)-1]
		state[i] = visited
		order = append(order, i)
		return nil
	}

	// Visit in name order so error reports are stable.
	names := make([]string, 0, len(batch))
	for n := range batch {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := visit(batch[n]); err != nil {
			return nil, err
		}
	}

	out := make([]*Type, len(defs))
	before := len(r.compounds)
	for _, i := range order {
		t, err := r.RegisterCompound(defs[i].Name, defs[i].Members)
		if err != nil {
			r.truncate(before)
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// truncate drops compounds registered after the first n.
func (r *Registry) truncate(n int) {
	for _, t := range r.compounds[n:] {
		delete(r.byName, key(t.name))
		delete(r.byCode, t.code)
	}
	r.compounds = r.compounds[:n]
}

// Definition returns the member list of a compound type with member types
// given as codes.
func (r *Registry) Definition(ref Ref) ([]MemberDef, error) {
	t, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if !t.IsCompound() {
		return nil, errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			TagType(t.name).
			Detail("not a compound type").
			Build()
	}
	defs := make([]MemberDef, len(t.members))
	for i, m := range t.members {
		defs[i] = MemberDef{Name: m.Name, Type: m.Type.code, Count: m.Count}
	}
	return defs, nil
}
