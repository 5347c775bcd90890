// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mirror serves a copy of the panel framebuffer over HTTP.
//
// A Mirror is a display.Drawer. Put it behind Tee next to the real panel to
// watch the UI from a browser, or use it alone to develop on a host without
// the hardware. Clients receive a multipart/x-mixed-replace stream ("MJPEG")
// updated on every change, or a single image with "?once=1".
package mirror

import (
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"sync"

	"periph.io/x/conn/v3/display"
)

// Options configures a Mirror.
type Options struct {
	// Format is the default image format, overridable per request with
	// "?format=png" or "?format=jpeg".
	Format Format
	// Round masks out the corners outside the inscribed circle, as seen on
	// a round panel.
	Round bool
	// JPEGQuality is in 1..100. 0 uses 90.
	JPEGQuality int
}

// Mirror is an in-memory framebuffer served over HTTP.
type Mirror struct {
	opts Options
	mask image.Image

	mu      sync.Mutex
	buffer  *image.RGBA
	clients map[*client]struct{}
	encoded map[Format][]byte
}

// New returns a w x h Mirror.
func New(w, h int, opts *Options) *Mirror {
	m := &Mirror{
		buffer:  image.NewRGBA(image.Rect(0, 0, w, h)),
		clients: map[*client]struct{}{},
		encoded: map[Format][]byte{},
	}
	if opts != nil {
		m.opts = *opts
	}
	if m.opts.JPEGQuality <= 0 || m.opts.JPEGQuality > 100 {
		m.opts.JPEGQuality = 90
	}
	if m.opts.Round {
		m.mask = &circle{r: m.buffer.Bounds()}
	}
	// Start opaque black instead of transparent.
	draw.Draw(m.buffer, m.buffer.Bounds(), image.Black, image.Point{}, draw.Src)
	return m
}

func (m *Mirror) String() string {
	return "Mirror"
}

// Halt ends all the streams.
func (m *Mirror) Halt() error {
	m.mu.Lock()
	for c := range m.clients {
		c.stop()
	}
	m.mu.Unlock()
	return nil
}

// ColorModel implements display.Drawer.
func (m *Mirror) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (m *Mirror) Bounds() image.Rectangle {
	return m.buffer.Bounds()
}

// Draw implements display.Drawer.
func (m *Mirror) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mask == nil {
		draw.Draw(m.buffer, r, src, sp, draw.Src)
	} else {
		// Corners keep the initial opaque black.
		draw.DrawMask(m.buffer, r, src, sp, m.mask, r.Min, draw.Over)
	}
	m.encoded = map[Format][]byte{}
	for c := range m.clients {
		c.notify()
	}
	return nil
}

// Snapshot returns a copy of the framebuffer.
func (m *Mirror) Snapshot() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	img := image.NewRGBA(m.buffer.Rect)
	copy(img.Pix, m.buffer.Pix)
	return img
}

// circle is an alpha mask of the circle inscribed in r.
type circle struct {
	r image.Rectangle
}

func (c *circle) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circle) Bounds() image.Rectangle {
	return c.r
}

func (c *circle) At(x, y int) color.Color {
	// Work in doubled coordinates to test pixel centers.
	cx, cy := c.r.Min.X+c.r.Max.X, c.r.Min.Y+c.r.Max.Y
	dx, dy := 2*x+1-cx, 2*y+1-cy
	d := c.r.Dx()
	if c.r.Dy() < d {
		d = c.r.Dy()
	}
	if dx*dx+dy*dy <= d*d {
		return color.Opaque
	}
	return color.Transparent
}

var _ display.Drawer = (*Mirror)(nil)
var _ http.Handler = (*Mirror)(nil)
