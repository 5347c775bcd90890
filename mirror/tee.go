// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mirror

import (
	"image"
	"image/color"
	"strings"

	"periph.io/x/conn/v3/display"
)

type tee []display.Drawer

// Tee returns a display.Drawer duplicating every Draw to all of drawers.
// Bounds and ColorModel are the ones of the first drawer.
func Tee(drawers ...display.Drawer) display.Drawer {
	if len(drawers) == 1 {
		return drawers[0]
	}
	return tee(drawers)
}

func (t tee) String() string {
	s := make([]string, len(t))
	for i, d := range t {
		s[i] = d.String()
	}
	return "Tee(" + strings.Join(s, ", ") + ")"
}

// Halt halts all the drawers and returns the first error.
func (t tee) Halt() error {
	var first error
	for _, d := range t {
		if err := d.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) ColorModel() color.Model {
	return t[0].ColorModel()
}

func (t tee) Bounds() image.Rectangle {
	return t[0].Bounds()
}

// Draw draws to every drawer, even when one fails, and returns the first
// error.
func (t tee) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	var first error
	for _, d := range t {
		if err := d.Draw(r, src, sp); err != nil && first == nil {
			first = err
		}
	}
	return first
}
