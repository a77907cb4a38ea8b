// Package pipeline ties the stages together: scan the source blob from its
// entry offsets, then relocate everything into a packed output buffer.
package pipeline

import (
	"dlopt/reloc"
	"dlopt/scan"
)

// DefaultSegment is the segment selector optimized when Options.Segment is
// left zero. Segment 0 addresses physical memory and is never optimized.
const DefaultSegment = 0x06

type Options struct {
	Segment byte // segment selector to follow and rewrite; 0 means DefaultSegment
	Rebase  int  // added once to every relocated display-list offset
}

func (o Options) segment() byte {
	if o.Segment == 0 {
		return DefaultSegment
	}
	return o.Segment
}

// Texture is one captured texture, kept for preview dumps. Type is byte 1 of
// the load word (format<<5 | size<<3).
type Texture struct {
	Offset int
	Type   byte
	Data   []byte
}

// Stats summarizes one optimization run for reporting.
type Stats struct {
	Lists         int
	Textures      int
	VertexBuffers int
	Matrices      int

	ListBytes    int
	TextureBytes int
	VertexBytes  int
	MatrixBytes  int

	InputBytes  int
	OutputBytes int
}

// ResourceBytes is the total size of the resource region at the front of the
// output buffer; display lists start right after it.
func (st Stats) ResourceBytes() int {
	return st.TextureBytes + st.VertexBytes + st.MatrixBytes
}

type Result struct {
	Buffer   []byte
	ListMap  map[int]int // original list offset -> relocated offset (rebase applied)
	Stats    Stats
	Textures []Texture
}

// Optimize discovers everything reachable from the entry offsets in src,
// packs it into a minimal buffer and rewrites all cross-references. Any
// format violation, bounds violation or unresolvable dependency fails the
// whole run with no partial output.
func Optimize(src []byte, entries []int, opts Options) (*Result, error) {
	log := Logger()

	s := scan.New(src, opts.segment(), log)
	if err := s.Run(entries); err != nil {
		return nil, err
	}
	log.Info("scan complete",
		"lists", len(s.Lists),
		"textures", s.Textures.Len(),
		"vertexBuffers", s.Vertices.Len(),
		"matrices", s.Matrices.Len())

	buf, listMap, err := reloc.Relocate(s, opts.Rebase)
	if err != nil {
		return nil, err
	}

	res := &Result{Buffer: buf, ListMap: listMap}
	res.Stats = Stats{
		Lists:         len(s.Lists),
		Textures:      s.Textures.Len(),
		VertexBuffers: s.Vertices.Len(),
		Matrices:      s.Matrices.Len(),
		TextureBytes:  s.Textures.TotalBytes(),
		VertexBytes:   s.Vertices.TotalBytes(),
		MatrixBytes:   s.Matrices.TotalBytes(),
		InputBytes:    len(src),
		OutputBytes:   len(buf),
	}
	for _, l := range s.Lists {
		res.Stats.ListBytes += len(l.Data)
	}
	s.Textures.Each(func(off int, data []byte) {
		res.Textures = append(res.Textures, Texture{Offset: off, Type: s.TexTypes[off], Data: data})
	})

	log.Info("relocation complete",
		"inputBytes", len(src),
		"outputBytes", len(buf))
	return res, nil
}
