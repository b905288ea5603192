package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram        = "sierra/program/v1"
	DomainSpecialization = "sierra/specialization/v1"
	DomainInputs         = "sierra/inputs/v1"
)

// SpecializationKind distinguishes type and libfunc specializations in digests.
type SpecializationKind string

const (
	KindType    SpecializationKind = "type"
	KindLibFunc SpecializationKind = "libfunc"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecializationDigest computes the content-addressed key of a
// specialization request. Equal (kind, id, args) always yield the same
// digest, which makes it a safe memoization key.
func SpecializationDigest(kind SpecializationKind, generic string, args []GenericArg) (string, error) {
	obj := map[string]any{
		"kind":    string(kind),
		"generic": generic,
		"args":    canonicalArgs(args),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SpecializationDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSpecialization, canonical), nil
}

// ProgramDigest computes the content-addressed identity of a program.
// Used to correlate oracle runs with the program that produced them.
func ProgramDigest(p *Program) (string, error) {
	canonical, err := MarshalCanonical(p.canonical())
	if err != nil {
		return "", fmt.Errorf("ProgramDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// InputsDigest computes the identity of a list of input values, each
// given as decimal cell strings.
func InputsDigest(inputs [][]string) (string, error) {
	list := make([]any, len(inputs))
	for i, in := range inputs {
		list[i] = in
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("InputsDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInputs, canonical), nil
}

// MustProgramDigest is like ProgramDigest but panics on error.
// Use only in tests or when the program is known to be well formed.
func MustProgramDigest(p *Program) string {
	d, err := ProgramDigest(p)
	if err != nil {
		panic(err)
	}
	return d
}

func (p *Program) canonical() map[string]any {
	funcs := make([]any, len(p.Funcs))
	for i, f := range p.Funcs {
		params := make([]any, len(f.Params))
		for j, prm := range f.Params {
			params[j] = map[string]any{"id": string(prm.ID), "ty": prm.Ty.canonical()}
		}
		rets := make([]any, len(f.RetTypes))
		for j, r := range f.RetTypes {
			rets[j] = r.canonical()
		}
		funcs[i] = map[string]any{
			"id":        string(f.ID),
			"params":    params,
			"ret_types": rets,
			"entry":     int(f.Entry),
		}
	}
	stmts := make([]any, len(p.Statements))
	for i, s := range p.Statements {
		stmts[i] = s.canonical()
	}
	return map[string]any{"funcs": funcs, "statements": stmts}
}

func (s Statement) canonical() map[string]any {
	switch s.Kind {
	case StmtReturn:
		return map[string]any{"return": varStrings(s.Vars)}
	case StmtLabel:
		return map[string]any{"label": string(s.Label)}
	}
	inv := s.Invocation
	branches := make([]any, len(inv.Branches))
	for i, b := range inv.Branches {
		target := map[string]any{"fallthrough": true}
		switch b.Target.Kind {
		case TargetLabel:
			target = map[string]any{"label": string(b.Target.Label)}
		case TargetStatement:
			target = map[string]any{"statement": int(b.Target.Statement)}
		}
		branches[i] = map[string]any{"target": target, "results": varStrings(b.Results)}
	}
	return map[string]any{
		"libfunc":  string(inv.LibFunc),
		"args":     canonicalArgs(inv.Args),
		"inputs":   varStrings(inv.Inputs),
		"branches": branches,
	}
}

func varStrings(ids []VarID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
