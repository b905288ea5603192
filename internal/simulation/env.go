package simulation

import (
	"fmt"
	"slices"

	"github.com/roach88/sierra/internal/ir"
)

// EditStateError reports an invalid environment access.
type EditStateError struct {
	Kind EditStateKind
	Var  ir.VarID
}

// EditStateKind distinguishes the two ways an environment edit can fail.
type EditStateKind int

const (
	// MissingReference: the variable is not bound (never produced or
	// already consumed).
	MissingReference EditStateKind = iota + 1
	// VariableOverride: the variable is already bound.
	VariableOverride
)

func (e *EditStateError) Error() string {
	if e.Kind == VariableOverride {
		return fmt.Sprintf("variable %q is already bound", e.Var)
	}
	return fmt.Sprintf("variable %q is not bound", e.Var)
}

// Env maps variables to values with move semantics: Take removes the
// binding it reads, Put refuses to overwrite an existing one.
type Env struct {
	vars map[ir.VarID][]MemCell
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[ir.VarID][]MemCell)}
}

// Take removes and returns the value bound to id.
func (e *Env) Take(id ir.VarID) ([]MemCell, error) {
	v, ok := e.vars[id]
	if !ok {
		return nil, &EditStateError{Kind: MissingReference, Var: id}
	}
	delete(e.vars, id)
	return v, nil
}

// Put binds id to v.
func (e *Env) Put(id ir.VarID, v []MemCell) error {
	if _, ok := e.vars[id]; ok {
		return &EditStateError{Kind: VariableOverride, Var: id}
	}
	e.vars[id] = v
	return nil
}

// TakeAll takes ids in order. On failure the environment may be partially
// consumed; callers abandon it.
func (e *Env) TakeAll(ids []ir.VarID) ([][]MemCell, error) {
	out := make([][]MemCell, len(ids))
	for i, id := range ids {
		v, err := e.Take(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// PutAll binds ids[i] to vals[i].
func (e *Env) PutAll(ids []ir.VarID, vals [][]MemCell) error {
	if len(ids) != len(vals) {
		return fmt.Errorf("binding %d variables to %d values", len(ids), len(vals))
	}
	for i, id := range ids {
		if err := e.Put(id, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of bound variables.
func (e *Env) Len() int {
	return len(e.vars)
}

// Bound returns the bound variables, sorted.
func (e *Env) Bound() []ir.VarID {
	ids := make([]ir.VarID, 0, len(e.vars))
	for id := range e.vars {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
