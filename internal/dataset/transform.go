package dataset

// Normalize maps a [0,1] intensity to [-1,1]: (v - 0.5) / 0.5.
func Normalize(v float32) float32 {
	return v*2 - 1
}

// Denormalize is the inverse of Normalize.
func Denormalize(v float32) float32 {
	return (v + 1) / 2
}

// DecodeImage appends the normalized values of raw image bytes to dst.
func DecodeImage(dst []float32, raw []byte) []float32 {
	for _, b := range raw {
		dst = append(dst, Normalize(float32(b)/255))
	}
	return dst
}

// EncodeImage converts normalized values back to bytes, clamping to [0,255].
func EncodeImage(dst []byte, img []float32) []byte {
	for _, v := range img {
		x := Denormalize(v)*255 + 0.5
		switch {
		case x < 0:
			x = 0
		case x > 255:
			x = 255
		}
		dst = append(dst, byte(x))
	}
	return dst
}
