/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package inference

import "math"

// Quantize maps floats to uint8 with q = round(v/scale) + zero, clamped.
// A zero scale falls back to the [-1,1] -> [0,255] mapping of the encoder.
func Quantize(v []float32, scale float64, zero int) []uint8 {
	if scale == 0 {
		scale, zero = 1/127.5, 128
	}
	out := make([]uint8, len(v))
	for i, f := range v {
		q := math.Round(float64(f)/scale) + float64(zero)
		out[i] = uint8(math.Max(0, math.Min(255, q)))
	}
	return out
}

// Dequantize maps uint8 values back with (q - zero) * scale. A zero scale
// means the tensor holds a probability on 0..255.
func Dequantize(q []uint8, scale float64, zero int) []float32 {
	out := make([]float32, len(q))
	for i, v := range q {
		if scale == 0 {
			out[i] = float32(v) / 255
			continue
		}
		out[i] = float32(float64(int(v)-zero) * scale)
	}
	return out
}
