// Package reloc packs everything a scan collected into one contiguous buffer
// and rewrites every cross-reference to its new location.
//
// Layout is fixed: textures, then vertex buffers, then matrices, each in
// discovery order, then display lists in dependency order. A list is emitted
// only once every list it branches into has been emitted, so patched branch
// targets always point at already-placed data.
package reloc

import (
	"errors"
	"fmt"
	"sort"

	"dlopt/gbi"
	"dlopt/resource"
	"dlopt/scan"
)

var (
	ErrCycle   = errors.New("unresolvable display list dependencies")
	ErrMissing = errors.New("reference to an uncollected offset")
)

// Relocate emits the scanner's resources and lists into a fresh buffer and
// returns it together with the display-list remap table.
//
// Rebase is added exactly once to every relocated display-list offset: the
// returned table and the offsets patched into command words carry the same
// rebased value. Resource offsets are rebased the same way inside patched
// words.
func Relocate(sc *scan.Scanner, rebase int) ([]byte, map[int]int, error) {
	var out []byte
	texMap := emit(&out, sc.Textures)
	vtxMap := emit(&out, sc.Vertices)
	mtxMap := emit(&out, sc.Matrices)

	// Kahn's algorithm over the branch graph. deps holds each pending
	// list's unemitted dependencies; dependents is the reverse edge set.
	deps := make(map[int]map[int]bool)
	dependents := make(map[int][]int)
	var ready []int
	for _, off := range sc.Order {
		l := sc.Lists[off]
		if len(l.Deps) == 0 {
			ready = append(ready, off)
			continue
		}
		d := make(map[int]bool, len(l.Deps))
		for target := range l.Deps {
			d[target] = true
			dependents[target] = append(dependents[target], off)
		}
		deps[off] = d
	}

	listMap := make(map[int]int, len(sc.Lists))
	result := make(map[int]int, len(sc.Lists))
	pending := len(sc.Lists)

	for pending > 0 {
		if len(ready) == 0 {
			stuck := make([]int, 0, len(deps))
			for off := range deps {
				stuck = append(stuck, off)
			}
			sort.Ints(stuck)
			return nil, nil, fmt.Errorf("display lists at %#x have unmet branch dependencies: %w",
				stuck, ErrCycle)
		}
		off := popLowest(&ready)

		newOff := len(out)
		listMap[off] = newOff
		result[off] = newOff + rebase

		patched := append([]byte(nil), sc.Lists[off].Data...)
		err := patch(patched, sc.Segment(), rebase, texMap, vtxMap, mtxMap, listMap)
		if err != nil {
			return nil, nil, fmt.Errorf("display list at %#x: %w", off, err)
		}
		out = append(out, patched...)
		pending--

		for _, dep := range dependents[off] {
			d := deps[dep]
			if d == nil {
				continue
			}
			delete(d, off)
			if len(d) == 0 {
				delete(deps, dep)
				ready = append(ready, dep)
			}
		}
	}
	return out, result, nil
}

// emit appends every registry entry to the buffer in insertion order and
// returns the old-offset to new-offset table.
func emit(out *[]byte, reg *resource.Registry) map[int]int {
	m := make(map[int]int, reg.Len())
	reg.Each(func(off int, data []byte) {
		m[off] = len(*out)
		*out = append(*out, data...)
	})
	return m
}

// popLowest removes and returns the smallest offset in the ready list, so
// emission order is deterministic regardless of discovery interleaving.
func popLowest(ready *[]int) int {
	r := *ready
	min := 0
	for i := 1; i < len(r); i++ {
		if r[i] < r[min] {
			min = i
		}
	}
	off := r[min]
	r[min] = r[len(r)-1]
	*ready = r[:len(r)-1]
	return off
}

// patch rewrites the low word of every reference-bearing command in data that
// is tagged with the active segment. A lookup miss means the scanner never
// collected something a command references, which is an internal consistency
// violation.
func patch(data []byte, segment byte, rebase int, tex, vtx, mtx, lists map[int]int) error {
	for i := 0; i+gbi.WordSize <= len(data); i += gbi.WordSize {
		w := data[i : i+gbi.WordSize]

		var table map[int]int
		var kind string
		switch gbi.Opcode(w) {
		case gbi.CmdVertex:
			table, kind = vtx, "vertex buffer"
		case gbi.CmdMatrix:
			table, kind = mtx, "matrix"
		case gbi.CmdTexImage:
			table, kind = tex, "texture"
		case gbi.CmdBranch:
			table, kind = lists, "display list"
		default:
			continue
		}
		if gbi.Segment(w) != segment {
			continue
		}

		old := gbi.Offset(w)
		newOff, ok := table[old]
		if !ok {
			return fmt.Errorf("references %s at %#x which was never collected: %w",
				kind, old, ErrMissing)
		}
		gbi.PutLow(w, gbi.SegmentAddress(segment, newOff+rebase))
	}
	return nil
}
