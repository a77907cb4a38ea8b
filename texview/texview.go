// Package texview renders captured texture bytes into preview images for
// debugging. Previews are a visual aid only: the texel count fixes the pixel
// count, but the width is a square-ish guess since the command stream never
// states one.
package texview

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"dlopt/gbi"
)

// Texture formats, from the upper three bits of the load word's type byte.
const (
	fmtRGBA = 0
	fmtCI   = 2
	fmtIA   = 3
	fmtI    = 4
)

// Decode renders raw texel bytes as an image. typ is byte 1 of the texture
// load word (format<<5 | size<<3). Color-index data is rendered as grayscale
// indices; palette bytes themselves decode as 16-bit color entries.
func Decode(typ byte, data []byte) *image.NRGBA {
	size := (typ >> 3) & 0x3
	count := len(data) * 8 / gbi.BitsPerTexel(size)
	w, h := dimensions(count)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	format := typ >> 5
	for i := 0; i < count; i++ {
		img.SetNRGBA(i%w, i/w, texel(format, size, data, i))
	}
	return img
}

// Preview decodes and upscales with nearest-neighbour so 32x32 textures are
// legible on screen.
func Preview(typ byte, data []byte, scale int) image.Image {
	src := Decode(typ, data)
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// dimensions picks a power-of-two width covering count texels.
func dimensions(count int) (w, h int) {
	if count <= 0 {
		return 1, 1
	}
	w = 1
	for w*w < count {
		w <<= 1
	}
	h = (count + w - 1) / w
	return w, h
}

func texel(format, size byte, data []byte, i int) color.NRGBA {
	switch {
	case format == fmtRGBA && size == 2: // RGBA 5551
		v := uint16(data[i*2])<<8 | uint16(data[i*2+1])
		return color.NRGBA{
			R: expand5(v >> 11),
			G: expand5(v >> 6),
			B: expand5(v >> 1),
			A: uint8(v&1) * 0xFF,
		}
	case format == fmtRGBA && size == 3: // RGBA 8888
		return color.NRGBA{R: data[i*4], G: data[i*4+1], B: data[i*4+2], A: data[i*4+3]}
	case format == fmtIA && size == 0: // IA 3+1
		n := nibble(data, i)
		v := expand3(n >> 1)
		return color.NRGBA{R: v, G: v, B: v, A: uint8(n&1) * 0xFF}
	case format == fmtIA && size == 1: // IA 4+4
		b := data[i]
		v := expand4(b >> 4)
		return color.NRGBA{R: v, G: v, B: v, A: expand4(b & 0xF)}
	case format == fmtIA && size == 2: // IA 8+8
		return color.NRGBA{R: data[i*2], G: data[i*2], B: data[i*2], A: data[i*2+1]}
	case format == fmtI && size == 0:
		v := expand4(nibble(data, i))
		return color.NRGBA{R: v, G: v, B: v, A: v}
	case format == fmtI && size == 1:
		v := data[i]
		return color.NRGBA{R: v, G: v, B: v, A: v}
	case format == fmtCI && size == 0: // indices as grayscale
		v := expand4(nibble(data, i))
		return color.NRGBA{R: v, G: v, B: v, A: 0xFF}
	case format == fmtCI && size == 1:
		v := data[i]
		return color.NRGBA{R: v, G: v, B: v, A: 0xFF}
	}
	// Unknown combination: show raw bytes as grayscale rather than fail.
	v := data[i*gbi.BitsPerTexel(size)/8]
	return color.NRGBA{R: v, G: v, B: v, A: 0xFF}
}

// nibble returns the i-th 4-bit texel, high nibble first.
func nibble(data []byte, i int) byte {
	b := data[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0xF
}

func expand3(v byte) uint8 { return v<<5 | v<<2 | v>>1 }

func expand4(v byte) uint8 { return v<<4 | v }

func expand5(v uint16) uint8 {
	b := uint8(v & 0x1F)
	return b<<3 | b>>2
}
