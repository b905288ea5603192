package simulation

import "github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

// Memory holds the heap objects of one run: array segments, boxes and
// dictionaries. Values refer to them through handle cells.
//
// An Array value is two cells (segment handle, length). A Box or a
// dictionary value is one handle cell.
type Memory struct {
	segments [][]MemCell
	boxes    [][]MemCell
	dicts    []*dict
}

type dict struct {
	entries  map[fp.Element][]MemCell
	squashed bool
}

func newMemory() *Memory {
	return &Memory{}
}

func (m *Memory) newSegment() MemCell {
	m.segments = append(m.segments, nil)
	return CellFromUint64(uint64(len(m.segments) - 1))
}

func (m *Memory) segment(h MemCell) ([]MemCell, int, bool) {
	i, ok := h.handle()
	if !ok || i >= len(m.segments) {
		return nil, 0, false
	}
	return m.segments[i], i, true
}

func (m *Memory) newBox(v []MemCell) MemCell {
	m.boxes = append(m.boxes, copyValue(v))
	return CellFromUint64(uint64(len(m.boxes) - 1))
}

func (m *Memory) box(h MemCell) ([]MemCell, bool) {
	i, ok := h.handle()
	if !ok || i >= len(m.boxes) {
		return nil, false
	}
	return copyValue(m.boxes[i]), true
}

func (m *Memory) newDict() MemCell {
	m.dicts = append(m.dicts, &dict{entries: make(map[fp.Element][]MemCell)})
	return CellFromUint64(uint64(len(m.dicts) - 1))
}

// dict resolves a live (not squashed) dictionary handle.
func (m *Memory) dict(h MemCell) (*dict, bool) {
	i, ok := h.handle()
	if !ok || i >= len(m.dicts) || m.dicts[i].squashed {
		return nil, false
	}
	return m.dicts[i], true
}

// squash freezes a dictionary; its handle is reused for the squashed value.
func (m *Memory) squash(h MemCell) (MemCell, bool) {
	d, ok := m.dict(h)
	if !ok {
		return MemCell{}, false
	}
	d.squashed = true
	return h, true
}

func copyValue(v []MemCell) []MemCell {
	return append([]MemCell(nil), v...)
}
