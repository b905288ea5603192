package liveness

import (
	"encoding/json"
	"strings"

	"github.com/roach88/sierra/internal/ir"
)

// VarSet is a set of variables that remembers insertion order, so that
// analysis results are reproducible.
type VarSet struct {
	order []ir.VarID
	index map[ir.VarID]int
}

// NewVarSet returns a set holding ids in order; repeated ids are ignored.
func NewVarSet(ids ...ir.VarID) *VarSet {
	s := &VarSet{index: make(map[ir.VarID]int, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was absent.
func (s *VarSet) Add(id ir.VarID) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id is in the set.
func (s *VarSet) Contains(id ir.VarID) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of variables.
func (s *VarSet) Len() int {
	return len(s.order)
}

// Vars returns the variables in insertion order.
func (s *VarSet) Vars() []ir.VarID {
	return append([]ir.VarID(nil), s.order...)
}

// Equal reports whether both sets hold the same variables, in any order.
func (s *VarSet) Equal(o *VarSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, id := range s.order {
		if !o.Contains(id) {
			return false
		}
	}
	return true
}

func (s *VarSet) String() string {
	parts := make([]string, len(s.order))
	for i, id := range s.order {
		parts[i] = string(id)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the set as an ordered array.
func (s *VarSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Vars())
}
