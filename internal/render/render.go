// Package render turns label payloads into PNG symbols and printable PDF
// labels. Every function is a pure transformation of its inputs.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

var ErrEmptyPayload = errors.New("render: empty payload")

// QROptions control QR symbol geometry.
type QROptions struct {
	Level      qr.ErrorCorrectionLevel
	ModulePx   int
	QuietZones int
}

var (
	// TravelerQROptions favour capacity: low error correction, large modules.
	TravelerQROptions = QROptions{Level: qr.L, ModulePx: 10, QuietZones: 4}
	// StepQROptions favour scannability of small step labels.
	StepQROptions = QROptions{Level: qr.H, ModulePx: 4, QuietZones: 2}
)

// Code128Options control linear barcode geometry.
type Code128Options struct {
	ModulePx  int
	HeightPx  int
	QuietZone int
}

var DefaultCode128Options = Code128Options{ModulePx: 2, HeightPx: 80, QuietZone: 20}

// TravelerQR renders a traveler label QR code.
func TravelerQR(payload string) ([]byte, error) {
	return QR(payload, TravelerQROptions)
}

// StepQR renders a step label QR code.
func StepQR(payload string) ([]byte, error) {
	return QR(payload, StepQROptions)
}

// QR renders payload as a PNG QR code.
func QR(payload string, opts QROptions) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	code, err := qr.Encode(payload, opts.Level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("render: qr encode: %w", err)
	}
	modules := code.Bounds().Dx()
	size := modules * max(opts.ModulePx, 1)
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("render: qr scale: %w", err)
	}
	pad := opts.QuietZones * max(opts.ModulePx, 1)
	return encodePNG(withQuietZone(scaled, pad, pad))
}

// Code128 renders payload as a PNG Code-128 barcode.
func Code128(payload string) ([]byte, error) {
	return Code128With(payload, DefaultCode128Options)
}

func Code128With(payload string, opts Code128Options) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	code, err := code128.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("render: code128 encode: %w", err)
	}
	width := code.Bounds().Dx() * max(opts.ModulePx, 1)
	scaled, err := barcode.Scale(code, width, max(opts.HeightPx, 1))
	if err != nil {
		return nil, fmt.Errorf("render: code128 scale: %w", err)
	}
	return encodePNG(withQuietZone(scaled, opts.QuietZone, opts.QuietZone/2))
}

func withQuietZone(src image.Image, padX, padY int) image.Image {
	if padX <= 0 && padY <= 0 {
		return src
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()+2*padX, b.Dy()+2*padY))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(padX, padY, padX+b.Dx(), padY+b.Dy()), src, b.Min, draw.Src)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: png encode: %w", err)
	}
	return buf.Bytes(), nil
}
