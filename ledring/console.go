// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledring

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Console is a 1D display.Drawer emulating a LED ring on the terminal with
// ANSI 256 colors.
type Console struct {
	w       io.Writer
	palette *ansi256.Palette
	pixels  []color.NRGBA
	buf     bytes.Buffer
}

// NewConsole returns a Console of count LEDs printing to stdout.
func NewConsole(count int) *Console {
	return &Console{
		w:       colorable.NewColorableStdout(),
		palette: ansi256.Default,
		pixels:  make([]color.NRGBA, count),
	}
}

func (c *Console) String() string {
	return "LEDConsole"
}

// Halt resets the terminal colors.
func (c *Console) Halt() error {
	_, err := io.WriteString(c.w, "\n\033[0m")
	return err
}

// ColorModel implements display.Drawer.
func (c *Console) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (c *Console) Bounds() image.Rectangle {
	return image.Rect(0, 0, len(c.pixels), 1)
}

// Draw implements display.Drawer.
func (c *Console) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	clipped := r.Intersect(c.Bounds())
	sp = sp.Add(clipped.Min.Sub(r.Min))
	for x := clipped.Min.X; x < clipped.Max.X; x++ {
		c.pixels[x] = color.NRGBAModel.Convert(src.At(sp.X+x-clipped.Min.X, sp.Y)).(color.NRGBA)
	}
	return c.refresh()
}

func (c *Console) refresh() error {
	c.buf.Reset()
	_, _ = c.buf.WriteString("\r\033[0m")
	for _, p := range c.pixels {
		p.A = 255
		_, _ = c.buf.WriteString(c.palette.Block(p))
	}
	_, _ = c.buf.WriteString("\033[0m ")
	_, err := c.buf.WriteTo(c.w)
	return err
}

var _ display.Drawer = &Console{}
