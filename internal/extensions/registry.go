package extensions

import (
	"fmt"
	"sync"

	"github.com/roach88/sierra/internal/ir"
)

// ProgramRegistry binds a Catalog to one program and memoizes every
// specialization it performs.
//
// Memo entries are keyed by the content digest of (kind, id, args), so a
// lookup is indistinguishable from a fresh specialization. The registry is
// safe for concurrent use.
type ProgramRegistry struct {
	catalog *Catalog
	program *ir.Program
	funcs   map[ir.FunctionID]*ir.Function

	mu       sync.Mutex
	types    map[string]*ConcreteType
	libfuncs map[string]ConcreteLibFunc
}

// NewProgramRegistry builds a registry for p. A nil program behaves like a
// program with no functions.
func NewProgramRegistry(c *Catalog, p *ir.Program) (*ProgramRegistry, error) {
	if p == nil {
		p = &ir.Program{}
	}
	r := &ProgramRegistry{
		catalog:  c,
		program:  p,
		funcs:    make(map[ir.FunctionID]*ir.Function, len(p.Funcs)),
		types:    make(map[string]*ConcreteType),
		libfuncs: make(map[string]ConcreteLibFunc),
	}
	for i := range p.Funcs {
		f := &p.Funcs[i]
		if _, dup := r.funcs[f.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate function id %q", f.ID)
		}
		r.funcs[f.ID] = f
	}
	return r, nil
}

// Catalog returns the underlying catalog.
func (r *ProgramRegistry) Catalog() *Catalog { return r.catalog }

// Program returns the program the registry is bound to.
func (r *ProgramRegistry) Program() *ir.Program { return r.program }

// Function implements SpecializationContext.
func (r *ProgramRegistry) Function(id ir.FunctionID) (*ir.Function, bool) {
	f, ok := r.funcs[id]
	return f, ok
}

// Type implements TypeResolver, memoized.
func (r *ProgramRegistry) Type(ref ir.TypeRef) (*ConcreteType, error) {
	key, err := ir.SpecializationDigest(ir.KindType, string(ref.Generic), ref.Args)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	t, ok := r.types[key]
	r.mu.Unlock()
	if ok {
		return t, nil
	}

	// Constructors recurse into Type for their arguments, so the lock is
	// not held while specializing.
	t, err = r.catalog.specializeType(r, ref.Generic, ref.Args)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[key]; ok {
		return existing, nil
	}
	r.types[key] = t
	return t, nil
}

// LibFunc specializes a libfunc, memoized.
func (r *ProgramRegistry) LibFunc(id ir.GenericLibFuncID, args []ir.GenericArg) (ConcreteLibFunc, error) {
	key, err := ir.SpecializationDigest(ir.KindLibFunc, string(id), args)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	lf, ok := r.libfuncs[key]
	r.mu.Unlock()
	if ok {
		return lf, nil
	}

	lf, err = r.catalog.SpecializeLibFunc(r, id, args)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.libfuncs[key]; ok {
		return existing, nil
	}
	r.libfuncs[key] = lf
	return lf, nil
}

// Invocation specializes the libfunc an invocation names.
func (r *ProgramRegistry) Invocation(inv *ir.Invocation) (ConcreteLibFunc, error) {
	return r.LibFunc(inv.LibFunc, inv.Args)
}

// StatementError attributes an error to the statement that caused it.
type StatementError struct {
	Statement ir.StatementIdx
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %s: %v", e.Statement, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// SpecializeProgram specializes every function signature type and every
// invocation of the program, stopping at the first failure. It also checks
// that each invocation's branch count and result arity match the
// libfunc's signature.
func (r *ProgramRegistry) SpecializeProgram() error {
	for _, f := range r.program.Funcs {
		for _, p := range f.Params {
			if _, err := r.Type(p.Ty); err != nil {
				return fmt.Errorf("function %q param %q: %w", f.ID, p.ID, err)
			}
		}
		for i, ret := range f.RetTypes {
			if _, err := r.Type(ret); err != nil {
				return fmt.Errorf("function %q return %d: %w", f.ID, i, err)
			}
		}
	}
	for i, s := range r.program.Statements {
		if s.Kind != ir.StmtInvocation {
			continue
		}
		idx := ir.StatementIdx(i)
		lf, err := r.Invocation(s.Invocation)
		if err != nil {
			return &StatementError{Statement: idx, Err: err}
		}
		if err := CheckArity(s.Invocation, lf.Signature()); err != nil {
			return &StatementError{Statement: idx, Err: err}
		}
	}
	return nil
}

// CheckArity reports whether an invocation's inputs, branch count and
// per-branch results match the libfunc signature.
func CheckArity(inv *ir.Invocation, sig *LibFuncSignature) error {
	if len(inv.Inputs) != len(sig.Params) {
		return fmt.Errorf("%s expects %d inputs, got %d", inv.ConcreteID(), len(sig.Params), len(inv.Inputs))
	}
	if len(inv.Branches) != len(sig.Branches) {
		return fmt.Errorf("%s has %d branches, invocation lists %d", inv.ConcreteID(), len(sig.Branches), len(inv.Branches))
	}
	for j, b := range inv.Branches {
		if len(b.Results) != len(sig.Branches[j].Vars) {
			return fmt.Errorf("%s branch %d produces %d results, invocation binds %d",
				inv.ConcreteID(), j, len(sig.Branches[j].Vars), len(b.Results))
		}
	}
	return nil
}
