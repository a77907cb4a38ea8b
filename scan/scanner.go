// Package scan walks display lists in a source blob, discovering every list,
// texture, vertex buffer and matrix reachable from a set of entry offsets.
package scan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"dlopt/gbi"
	"dlopt/resource"
)

// Error classes. Wrapped errors carry the offending byte offset.
var (
	ErrUnaligned  = errors.New("offset not 8-byte aligned")
	ErrOutOfRange = errors.New("extent out of range")
	ErrFormat     = errors.New("texture size pairing mismatch")
	ErrUnsizedTex = errors.New("could not resolve texture size")
)

// DisplayList is one scanned command stream. Data is an owned copy of the
// source bytes; the relocator patches it in place without touching the source
// or any other list. Deps holds the original offsets of same-segment lists it
// branches into.
type DisplayList struct {
	Offset int
	Data   []byte
	Deps   map[int]bool
}

// Scanner accumulates everything reachable from the entry offsets handed to
// Run. Registries and the list table survive the scan and feed relocation.
type Scanner struct {
	src     []byte
	segment byte
	log     *slog.Logger

	Lists    map[int]*DisplayList
	Order    []int // list offsets in discovery order
	Textures *resource.Registry
	Vertices *resource.Registry
	Matrices *resource.Registry
	TexTypes map[int]byte // byte 1 of the load word per texture offset
}

// New creates a scanner over src following references tagged with segment.
func New(src []byte, segment byte, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{
		src:      src,
		segment:  segment,
		log:      logger,
		Lists:    make(map[int]*DisplayList),
		Textures: resource.NewRegistry(),
		Vertices: resource.NewRegistry(),
		Matrices: resource.NewRegistry(),
		TexTypes: make(map[int]byte),
	}
}

// Segment returns the segment selector this scanner follows.
func (s *Scanner) Segment() byte { return s.segment }

// Run scans every entry offset and every branch target discovered from one,
// to a fixed point. Entries are consumed FIFO in the order given; discovered
// branch targets queue in stream order, so the discovery order (and with it
// the final output layout) is deterministic for identical inputs.
//
// All entry offsets are alignment-checked before anything is scanned.
func (s *Scanner) Run(entries []int) error {
	for _, off := range entries {
		if off%gbi.WordSize != 0 {
			return fmt.Errorf("entry offset %#x: %w", off, ErrUnaligned)
		}
	}

	work := append([]int(nil), entries...)
	for len(work) > 0 {
		off := work[0]
		work = work[1:]
		if _, seen := s.Lists[off]; seen {
			continue
		}
		list, targets, err := s.scanList(off)
		if err != nil {
			return err
		}
		s.Lists[off] = list
		s.Order = append(s.Order, off)
		work = append(work, targets...)
	}
	return nil
}

// scanList walks one display list from start to its terminate condition,
// copying every word and recording the resources and branch targets it
// references. Returned targets are in stream order.
func (s *Scanner) scanList(start int) (*DisplayList, []int, error) {
	if start%gbi.WordSize != 0 {
		return nil, nil, fmt.Errorf("display list offset %#x: %w", start, ErrUnaligned)
	}

	list := &DisplayList{Offset: start, Deps: make(map[int]bool)}
	var targets []int

	for pos := start; ; pos += gbi.WordSize {
		if pos < 0 || pos+gbi.WordSize > len(s.src) {
			return nil, nil, fmt.Errorf("display list at %#x runs past end of source at %#x: %w",
				start, pos, ErrOutOfRange)
		}
		w := s.src[pos : pos+gbi.WordSize]
		list.Data = append(list.Data, w...)

		switch gbi.Opcode(w) {
		case gbi.CmdEnd:
			return list, targets, nil

		case gbi.CmdBranch:
			if gbi.Segment(w) == s.segment {
				target := gbi.Offset(w)
				if !list.Deps[target] {
					list.Deps[target] = true
					targets = append(targets, target)
				}
			}
			if w[1] == gbi.BranchNoReturn {
				return list, targets, nil
			}

		case gbi.CmdVertex:
			if gbi.Segment(w) != s.segment {
				break
			}
			off := gbi.Offset(w)
			n := gbi.VertexLength(w)
			if off+n > len(s.src) {
				return nil, nil, fmt.Errorf("vertex buffer at %#x: %d bytes: %w",
					off, n, ErrOutOfRange)
			}
			s.Vertices.Put(off, s.src[off:off+n])

		case gbi.CmdMatrix:
			if gbi.Segment(w) != s.segment {
				break
			}
			off := gbi.Offset(w)
			if s.Matrices.Extent(off) >= gbi.MatrixSize {
				break
			}
			if off+gbi.MatrixSize > len(s.src) {
				return nil, nil, fmt.Errorf("matrix at %#x: %w", off, ErrOutOfRange)
			}
			s.Matrices.Put(off, s.src[off:off+gbi.MatrixSize])

		case gbi.CmdTexImage:
			if gbi.Segment(w) != s.segment {
				break
			}
			if err := s.scanTexture(pos, w); err != nil {
				return nil, nil, err
			}
		}
	}
}

// scanTexture captures the texture referenced by the load word at pos. The
// byte extent depends on a sizing command found by the extent resolver; the
// palette pairing is decided by the opcode of the immediately following word.
func (s *Scanner) scanTexture(pos int, w []byte) error {
	off := gbi.Offset(w)
	size := gbi.TexelSize(w)

	next := pos + gbi.WordSize
	paletted := next < len(s.src) && s.src[next] == gbi.CmdTileSync

	count, err := s.texelCount(next, paletted)
	if err != nil {
		return fmt.Errorf("texture load at %#x: %w", pos, err)
	}
	n := gbi.TexelBytes(size, count)
	if off+n > len(s.src) {
		return fmt.Errorf("texture at %#x: %d bytes: %w", off, n, ErrOutOfRange)
	}
	s.Textures.Put(off, s.src[off:off+n])
	s.TexTypes[off] = w[1]
	return nil
}
