// Package gbi models the fixed-width graphics microcode command words that
// display lists are made of. A command word is 8 bytes at an 8-byte-aligned
// offset: byte 0 is the opcode, bytes 4-7 form the big-endian "low word"
// carrying a segment selector in its top byte and a 24-bit segment-relative
// offset in its low bits.
package gbi

import "encoding/binary"

const WordSize = 8

// Command opcodes handled by the optimizer. Everything else passes through
// untouched.
const (
	CmdVertex    = 0x01 // load vertex buffer (16-bit byte length in bytes 1-2)
	CmdMatrix    = 0xDA // load 4x4 transform matrix (fixed 64 bytes)
	CmdBranch    = 0xDE // branch to display list (byte 1 = 0x01: no return)
	CmdEnd       = 0xDF // end of display list
	CmdTexImage  = 0xFD // set texture image pointer
	CmdTileSync  = 0xE8 // tile sync; directly after CmdTexImage it marks a palette load
	CmdLoadTLUT  = 0xF0 // palette size (count in low-word bits 14-23, max 256)
	CmdLoadBlock = 0xF3 // texel count (low-word bits 12-23)
)

// MatrixSize is the byte extent of every matrix load.
const MatrixSize = 64

// BranchNoReturn is the CmdBranch byte-1 flag for a branch that does not
// return, which ends the current list.
const BranchNoReturn = 0x01

// Opcode returns the opcode of the word starting at w[0].
func Opcode(w []byte) byte { return w[0] }

// Low returns the low word: bytes 4-7 interpreted big-endian.
func Low(w []byte) uint32 { return binary.BigEndian.Uint32(w[4:8]) }

// Segment returns the segment selector of the word (byte 4).
func Segment(w []byte) byte { return w[4] }

// Offset returns the segment-relative target offset: the low 24 bits of the
// low word.
func Offset(w []byte) int { return int(Low(w) & 0xFFFFFF) }

// VertexLength returns the payload byte length of a CmdVertex word, encoded
// big-endian in bytes 1-2.
func VertexLength(w []byte) int { return int(w[1])<<8 | int(w[2]) }

// TexelSize returns the size field of a CmdTexImage word. Byte 1 packs
// format<<5 | size<<3.
func TexelSize(w []byte) byte { return (w[1] >> 3) & 0x3 }

// TexelFormat returns the format field of a CmdTexImage word.
func TexelFormat(w []byte) byte { return w[1] >> 5 }

// BitsPerTexel maps a size field to texel width in bits: 4, 8, 16 or 32.
func BitsPerTexel(size byte) int { return 4 << (size & 0x3) }

// TexelBytes returns the byte extent of count texels at the given size field,
// rounding up so an odd count of 4-bit texels still covers its last byte.
func TexelBytes(size byte, count int) int {
	return (BitsPerTexel(size)*count + 7) / 8
}

// TLUTCount returns the palette entry count declared by a CmdLoadTLUT word.
func TLUTCount(w []byte) int { return int((Low(w)&0x00FFF000)>>14) + 1 }

// BlockCount returns the texel count declared by a CmdLoadBlock word.
func BlockCount(w []byte) int { return int((Low(w)&0x00FFF000)>>12) + 1 }

// PutLow overwrites the low word of w in place.
func PutLow(w []byte, low uint32) { binary.BigEndian.PutUint32(w[4:8], low) }

// SegmentAddress builds a low word addressing offset within segment.
func SegmentAddress(segment byte, offset int) uint32 {
	return uint32(segment)<<24 | uint32(offset)&0xFFFFFF
}

// AppendWord appends one 8-byte command word built from a big-endian high and
// low word. Test blobs and synthetic lists are assembled with it.
func AppendWord(dst []byte, high, low uint32) []byte {
	dst = binary.BigEndian.AppendUint32(dst, high)
	return binary.BigEndian.AppendUint32(dst, low)
}
