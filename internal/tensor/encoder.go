/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package tensor

import (
	"errors"
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

var ErrInvalidImage = errors.New("invalid image")

// Interpolation names the resampling used to stretch the source bitmap to
// the model input size. Both choices are deterministic.
type Interpolation string

const (
	// Nearest picks the closest source pixel, like an unfiltered scaled bitmap.
	Nearest  Interpolation = "nearest"
	Bilinear Interpolation = "bilinear"
)

// ParseInterpolation accepts "nearest", "bilinear" or an empty string (nearest).
func ParseInterpolation(s string) (Interpolation, error) {
	switch Interpolation(s) {
	case "", Nearest:
		return Nearest, nil
	case Bilinear:
		return Bilinear, nil
	}
	return "", fmt.Errorf("unknown interpolation %q", s)
}

// scale stretches img to InputSize x InputSize. Nearest samples the source
// pixel under the centre of each destination pixel, it never blends.
func (i Interpolation) scale(img image.Image) image.Image {
	if i == Bilinear {
		return resize.Resize(InputSize, InputSize, img, resize.Bilinear)
	}
	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Encoder converts bitmaps into model input tensors.
type Encoder struct {
	Interpolation Interpolation
}

// Encode stretches img to InputSize x InputSize without keeping the aspect
// ratio, then writes (c-127.5)/127.5 for the R, G and B channel of every pixel,
// top-to-bottom, left-to-right.
func (e Encoder) Encode(img *Bitmap) (Buffer, error) {
	if img.Empty() {
		return nil, ErrInvalidImage
	}

	var src image.Image = img
	if img.Width != InputSize || img.Height != InputSize {
		src = e.Interpolation.scale(img)
	}
	bounds := src.Bounds()
	if bounds.Dx() != InputSize || bounds.Dy() != InputSize {
		return nil, fmt.Errorf("%w: resized to %dx%d", ErrInvalidImage, bounds.Dx(), bounds.Dy())
	}

	buf := make(Buffer, Len)
	idx := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			buf[idx] = normalize(uint8(r >> 8))
			buf[idx+1] = normalize(uint8(g >> 8))
			buf[idx+2] = normalize(uint8(b >> 8))
			idx += Channels
		}
	}
	return buf, nil
}
