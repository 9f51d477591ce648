/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package tensor turns decoded bitmaps into the NHWC float input of the
// hot dog model.
package tensor

const (
	Batch     = 1
	InputSize = 224
	Channels  = 3

	// Len is the number of floats in a Buffer.
	Len = Batch * InputSize * InputSize * Channels

	ImageMean = 127.5
	ImageStd  = 127.5
)

// Buffer is a 1x224x224x3 tensor, row-major, RGB interleaved.
type Buffer []float32

// Shape returns the NHWC dimensions of a Buffer.
func Shape() []int {
	return []int{Batch, InputSize, InputSize, Channels}
}

func normalize(c uint8) float32 {
	return (float32(c) - ImageMean) / ImageStd
}
