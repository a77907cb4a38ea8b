package scan

import (
	"bytes"
	"errors"
	"testing"
)

// Texture-load words used below: byte 1 of the high word packs format<<5 |
// size<<3, so 0x10 is a 16-bit texture and 0x40 a 4-bit color-index one.

func TestTextureBlockSized(t *testing.T) {
	list := words(
		0xFD100000, 0x06000100, // 16-bit texels at 0x100
		0xF3000000, uint32(31)<<12, // 32 texels -> 64 bytes
		0xDF000000, 0,
	)
	src := blob(0x140, map[int][]byte{
		0:     list,
		0x100: fill(0x40, 0xCD),
	})

	s := New(src, seg, nil)
	if err := s.Run([]int{0}); err != nil {
		t.Fatal(err)
	}
	if got := s.Textures.Extent(0x100); got != 0x40 {
		t.Errorf("texture extent: got %#x, want 0x40", got)
	}
	s.Textures.Each(func(off int, data []byte) {
		if !bytes.Equal(data, fill(0x40, 0xCD)) {
			t.Errorf("texture bytes at %#x differ from source", off)
		}
	})
	if got := s.TexTypes[0x100]; got != 0x10 {
		t.Errorf("recorded texture type: got %#02x, want 0x10", got)
	}
}

func TestTextureSizeCommandNotAdjacent(t *testing.T) {
	// Unrelated commands may sit between the load and its size command.
	list := words(
		0xFD000000, 0x06000100, // 4-bit texels at 0x100
		0xE7000000, 0, // pipe sync, skipped
		0xF5000000, 0, // tile setup, skipped
		0xF3000000, uint32(31)<<12, // 32 texels -> 16 bytes
		0xDF000000, 0,
	)
	src := blob(0x140, map[int][]byte{0: list})

	s := New(src, seg, nil)
	if err := s.Run([]int{0}); err != nil {
		t.Fatal(err)
	}
	if got := s.Textures.Extent(0x100); got != 16 {
		t.Errorf("4-bit texture extent: got %d, want 16", got)
	}
}

func TestTexturePaletteSized(t *testing.T) {
	list := words(
		0xFD100000, 0x06000100, // palette data at 0x100
		0xE8000000, 0, // tile sync marks the palette pairing
		0xF0000000, uint32(15)<<14, // 16 entries -> 32 bytes
		0xDF000000, 0,
	)
	src := blob(0x140, map[int][]byte{0: list})

	s := New(src, seg, nil)
	if err := s.Run([]int{0}); err != nil {
		t.Fatal(err)
	}
	if got := s.Textures.Extent(0x100); got != 32 {
		t.Errorf("palette extent: got %d, want 32", got)
	}
}

func TestTexturePairingMismatch(t *testing.T) {
	t.Run("paired load with block size", func(t *testing.T) {
		list := words(
			0xFD100000, 0x06000100,
			0xE8000000, 0,
			0xF3000000, uint32(31)<<12,
			0xDF000000, 0,
		)
		s := New(blob(0x140, map[int][]byte{0: list}), seg, nil)
		if !errors.Is(s.Run([]int{0}), ErrFormat) {
			t.Fatal("want ErrFormat for block size after palette pairing")
		}
	})

	t.Run("unpaired load with palette size", func(t *testing.T) {
		list := words(
			0xFD100000, 0x06000100,
			0xF0000000, uint32(15)<<14,
			0xDF000000, 0,
		)
		s := New(blob(0x140, map[int][]byte{0: list}), seg, nil)
		if !errors.Is(s.Run([]int{0}), ErrFormat) {
			t.Fatal("want ErrFormat for palette size without pairing")
		}
	})
}

func TestTexturePaletteTooLarge(t *testing.T) {
	list := words(
		0xFD100000, 0x06000100,
		0xE8000000, 0,
		0xF0000000, uint32(256)<<14, // 257 entries
		0xDF000000, 0,
	)
	s := New(blob(0x1000, map[int][]byte{0: list}), seg, nil)
	if !errors.Is(s.Run([]int{0}), ErrFormat) {
		t.Fatal("want ErrFormat for palette over 256 entries")
	}
}

func TestTextureSizeUnresolved(t *testing.T) {
	cases := []struct {
		name string
		stop []uint32
	}{
		{"end of list", []uint32{0xDF000000, 0}},
		{"branch without return", []uint32{0xDE010000, 0x06000000}},
		{"next texture load", []uint32{0xFD100000, 0x06000100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list := words(append([]uint32{0xFD100000, 0x06000100}, tc.stop...)...)
			s := New(blob(0x140, map[int][]byte{0: list}), seg, nil)
			if !errors.Is(s.Run([]int{0}), ErrUnsizedTex) {
				t.Fatal("want ErrUnsizedTex")
			}
		})
	}
}

func TestTextureOutOfRange(t *testing.T) {
	list := words(
		0xFD100000, 0x06000100, // 64 bytes from 0x100 in a 0x120 buffer
		0xF3000000, uint32(31)<<12,
		0xDF000000, 0,
	)
	s := New(blob(0x120, map[int][]byte{0: list}), seg, nil)
	if !errors.Is(s.Run([]int{0}), ErrOutOfRange) {
		t.Fatal("want ErrOutOfRange for texture extent past end of source")
	}
}

func TestTextureForeignSegmentIgnored(t *testing.T) {
	list := words(
		0xFD100000, 0x04000100, // other segment: no size scan, no capture
		0xDF000000, 0,
	)
	s := New(blob(0x140, map[int][]byte{0: list}), seg, nil)
	if err := s.Run([]int{0}); err != nil {
		t.Fatal(err)
	}
	if got := s.Textures.Len(); got != 0 {
		t.Errorf("textures: got %d, want 0", got)
	}
}
