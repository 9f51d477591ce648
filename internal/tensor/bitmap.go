/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package tensor

import (
	"image"
	"image/color"
)

// Bitmap is a decoded image holding one 0xAARRGGBB value per pixel, row-major.
// Alpha is carried but ignored: At always reports an opaque colour.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint32
}

// NewBitmap allocates a transparent black bitmap.
func NewBitmap(width, height int) *Bitmap {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Bitmap{Width: width, Height: height, Pix: make([]uint32, width*height)}
}

// NewUniform returns a bitmap filled with a single ARGB colour.
func NewUniform(width, height int, argb uint32) *Bitmap {
	b := NewBitmap(width, height)
	for i := range b.Pix {
		b.Pix[i] = argb
	}
	return b
}

// FromImage converts any decoded image into a Bitmap with straight
// (non premultiplied) channels.
func FromImage(img image.Image) *Bitmap {
	bounds := img.Bounds()
	b := NewBitmap(bounds.Dx(), bounds.Dy())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			b.Pix[y*b.Width+x] = ARGB(c.A, c.R, c.G, c.B)
		}
	}
	return b
}

// ARGB packs four 8-bit channels.
func ARGB(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Empty reports whether the bitmap has no pixel to encode.
func (b *Bitmap) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0 || len(b.Pix) < b.Width*b.Height
}

func (b *Bitmap) ColorModel() color.Model {
	return color.RGBAModel
}

func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

func (b *Bitmap) At(x, y int) color.Color {
	if !image.Pt(x, y).In(b.Bounds()) {
		return color.RGBA{}
	}
	v := b.Pix[y*b.Width+x]
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
