// Package qrcode implements the QR encoder port with skip2/go-qrcode.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	goqr "github.com/skip2/go-qrcode"

	"github.com/Strob0t/MenuForge/internal/port/qrencoder"
)

// Encoder renders QR symbols as PNG. skip2 computes the module matrix; the
// image is drawn here so the quiet zone width follows Options.Margin.
type Encoder struct{}

var _ qrencoder.Encoder = Encoder{}

// New returns an Encoder.
func New() Encoder { return Encoder{} }

var levels = map[qrencoder.Recovery]goqr.RecoveryLevel{
	qrencoder.RecoveryLow:     goqr.Low,
	qrencoder.RecoveryMedium:  goqr.Medium,
	qrencoder.RecoveryHigh:    goqr.High,
	qrencoder.RecoveryHighest: goqr.Highest,
}

// Encode returns PNG bytes encoding text.
func (Encoder) Encode(text string, opts qrencoder.Options) ([]byte, error) {
	if text == "" {
		return nil, errors.New("qr encode: empty text")
	}
	if opts.Margin < 0 {
		return nil, fmt.Errorf("qr encode: negative margin %d", opts.Margin)
	}
	level, ok := levels[opts.Recovery]
	if !ok {
		return nil, fmt.Errorf("qr encode: unknown recovery level %d", opts.Recovery)
	}

	q, err := goqr.New(text, level)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	modules := len(bitmap) + 2*opts.Margin
	scale := opts.Size / modules
	if scale < 1 {
		return nil, fmt.Errorf("qr encode: size %d too small for %d modules", opts.Size, modules)
	}
	side := modules * scale

	fg, bg := opts.Foreground, opts.Background
	if fg == nil {
		fg = color.Black
	}
	if bg == nil {
		bg = color.White
	}
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{bg, fg})
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := (x + opts.Margin) * scale
			y0 := (y + opts.Margin) * scale
			for dy := range scale {
				for dx := range scale {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qr encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseHexColor parses "#RRGGBB" or "#RGB".
func ParseHexColor(s string) (color.Color, error) {
	c := color.RGBA{A: 0xff}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 4:
		_, err = fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = errors.New("want #RRGGBB or #RGB")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// ParseRecovery maps a config name to a recovery level.
func ParseRecovery(s string) (qrencoder.Recovery, error) {
	switch s {
	case "low":
		return qrencoder.RecoveryLow, nil
	case "", "medium":
		return qrencoder.RecoveryMedium, nil
	case "high":
		return qrencoder.RecoveryHigh, nil
	case "highest":
		return qrencoder.RecoveryHighest, nil
	}
	return 0, fmt.Errorf("invalid qr recovery level %q", s)
}
