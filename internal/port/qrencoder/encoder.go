// Package qrencoder defines the port for QR image encoding.
package qrencoder

import "image/color"

// Recovery is the error correction level of the encoded symbol.
type Recovery int

const (
	RecoveryLow Recovery = iota
	RecoveryMedium
	RecoveryHigh
	RecoveryHighest
)

// Options controls the rendered image.
type Options struct {
	Size       int // pixels per side
	Margin     int // quiet zone in modules; 0 disables the border
	Foreground color.Color
	Background color.Color
	Recovery   Recovery
}

// Encoder turns text into a PNG image. Implementations must be pure.
type Encoder interface {
	Encode(text string, opts Options) ([]byte, error)
}
