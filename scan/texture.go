package scan

import (
	"fmt"

	"dlopt/gbi"
)

// texelCount scans forward from the word after a texture load, in 8-byte
// steps, until it finds the sizing command that declares the texture's texel
// count. It reads raw source bytes only; the outer scan cursor is untouched.
//
// A palette-paired load must be sized by a palette command and vice versa;
// any crossed pairing is a format error. Hitting a list end, a
// branch-without-return or another texture load first means no size exists
// for this load, which is fatal at the call site.
func (s *Scanner) texelCount(from int, paletted bool) (int, error) {
	for pos := from; pos+gbi.WordSize <= len(s.src); pos += gbi.WordSize {
		w := s.src[pos : pos+gbi.WordSize]

		switch gbi.Opcode(w) {
		case gbi.CmdLoadTLUT:
			if !paletted {
				return 0, fmt.Errorf("palette size command at %#x for an unpaired load: %w",
					pos, ErrFormat)
			}
			count := gbi.TLUTCount(w)
			if count > 256 {
				return 0, fmt.Errorf("palette size command at %#x declares %d entries: %w",
					pos, count, ErrFormat)
			}
			return count, nil

		case gbi.CmdLoadBlock:
			if paletted {
				return 0, fmt.Errorf("block size command at %#x for a palette-paired load: %w",
					pos, ErrFormat)
			}
			return gbi.BlockCount(w), nil

		case gbi.CmdEnd:
			s.log.Debug("texture size scan hit end of list", "at", pos)
			return 0, fmt.Errorf("list ends at %#x before a size command: %w", pos, ErrUnsizedTex)

		case gbi.CmdBranch:
			if w[1] == gbi.BranchNoReturn {
				s.log.Debug("texture size scan hit branch without return", "at", pos)
				return 0, fmt.Errorf("list branches away at %#x before a size command: %w",
					pos, ErrUnsizedTex)
			}

		case gbi.CmdTexImage:
			s.log.Debug("texture size scan hit next texture load", "at", pos)
			return 0, fmt.Errorf("next texture load at %#x before a size command: %w",
				pos, ErrUnsizedTex)
		}
	}
	return 0, fmt.Errorf("source ends before a size command: %w", ErrUnsizedTex)
}
