// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package image565 implements an image type storing 16 bits per pixel in the
// RGB565 format used by most SPI TFT controllers.
//
// Pixels are stored big-endian, exactly as the controller expects them on the
// wire, so a row of Pix can be sent to the panel without conversion.
package image565

import (
	"image"
	"image/color"
	"image/draw"
)

// Color is a 16 bit RGB565 color: 5 bits red, 6 bits green, 5 bits blue.
type Color uint16

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	// Replicate the high bits in the low bits so that full intensity maps to
	// 0xFFFF.
	r = (r5<<11 | r5<<6 | r5<<1) | r5>>4
	g = (g6<<10 | g6<<4) | g6>>2
	b = (b5<<11 | b5<<6 | b5<<1) | b5>>4
	return r, g, b, 0xFFFF
}

// From returns the closest RGB565 value to c. The alpha channel is ignored.
func From(c color.Color) Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return Color((r>>11)<<11 | (g>>10)<<5 | b>>11)
}

// RGB returns the RGB565 value for 8 bit channels.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// Model is the color model for RGB565.
var Model = color.ModelFunc(convert)

func convert(c color.Color) color.Color {
	return From(c)
}

// Image is an in-memory image whose At method returns Color values.
type Image struct {
	// Pix holds the pixels as big-endian 16 bit words. The pixel at (x, y)
	// starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*2].
	Pix []byte
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	Rect   image.Rectangle
}

// NewImage returns a new Image with the given bounds, filled with black.
func NewImage(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]byte, 2*r.Dx()*r.Dy()),
		Stride: 2 * r.Dx(),
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y), or 0 when outside the bounds.
func (i *Image) RGB565At(x, y int) Color {
	if !(image.Point{x, y}.In(i.Rect)) {
		return 0
	}
	o := i.PixOffset(x, y)
	return Color(uint16(i.Pix[o])<<8 | uint16(i.Pix[o+1]))
}

// Opaque always returns true, RGB565 has no alpha channel.
func (i *Image) Opaque() bool {
	return true
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetRGB565(x, y, From(c))
}

// SetRGB565 sets the pixel at (x, y). Points outside the bounds are ignored.
func (i *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	o := i.PixOffset(x, y)
	i.Pix[o] = byte(c >> 8)
	i.Pix[o+1] = byte(c)
}

// Fill sets every pixel within Rect to c.
func (i *Image) Fill(c Color) {
	hi, lo := byte(c>>8), byte(c)
	for y := i.Rect.Min.Y; y < i.Rect.Max.Y; y++ {
		row := i.Row(y, i.Rect.Min.X, i.Rect.Max.X)
		for o := 0; o+1 < len(row); o += 2 {
			row[o] = hi
			row[o+1] = lo
		}
	}
}

// SubImage returns an image representing the portion of i visible through r.
// The returned value shares pixels with the original image.
func (i *Image) SubImage(r image.Rectangle) *Image {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return &Image{}
	}
	o := i.PixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:    i.Pix[o:],
		Stride: i.Stride,
		Rect:   r,
	}
}

// Row returns the bytes of row y between columns x0 (inclusive) and x1
// (exclusive).
func (i *Image) Row(y, x0, x1 int) []byte {
	return i.Pix[i.PixOffset(x0, y):i.PixOffset(x1, y)]
}

var _ draw.Image = &Image{}
