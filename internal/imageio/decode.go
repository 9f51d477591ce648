/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package imageio decodes camera pictures with OpenCV.
package imageio

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"github.com/mpromonet/ishotdog/internal/tensor"
)

var ErrEmpty = errors.New("empty image")

// Decode turns encoded image bytes (JPEG, PNG, ...) into a bitmap.
func Decode(data []byte) (*tensor.Bitmap, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	if img.Empty() {
		return nil, ErrEmpty
	}

	// IMReadColor gives BGR, ToImage expects it and returns RGBA
	decoded, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("cannot convert %dx%d image: %w", img.Cols(), img.Rows(), err)
	}
	return tensor.FromImage(decoded), nil
}

// DecodeFile reads and decodes a picture from disk.
func DecodeFile(path string) (*tensor.Bitmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decoder adapts Decode to the interface used by the HTTP server.
type Decoder struct{}

func (Decoder) Decode(data []byte) (*tensor.Bitmap, error) {
	return Decode(data)
}
