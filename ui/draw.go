// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fogleman/gg"
)

// cover draws a circular cover of diameter size centered at cx, cy.
//
// opacity is in 0..1 and blends the image into the container background.
// Without an image, the first letter of label is drawn instead.
func cover(dc *gg.Context, cx, cy, size float64, img image.Image, label string, opacity float64) {
	r := size / 2
	dc.SetColor(BGSecondary)
	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	if img != nil {
		dc.Push()
		dc.DrawCircle(cx, cy, r)
		dc.Clip()
		dc.DrawImageAnchored(img, int(cx), int(cy), 0.5, 0.5)
		if opacity < 1 {
			c := BGSecondary
			c.A = uint8((1 - opacity) * 255)
			dc.SetColor(c)
			dc.DrawCircle(cx, cy, r)
			dc.Fill()
		}
		dc.Pop()
		return
	}
	if ch, _ := utf8.DecodeRuneInString(label); ch != utf8.RuneError {
		c := TextSecondary
		c.A = uint8(opacity * 255)
		dc.SetFontFace(Face(FontXLarge))
		dc.SetColor(c)
		dc.DrawStringAnchored(strings.ToUpper(string(ch)), cx, cy, 0.5, 0.35)
	}
}

// ring strokes a circle outline.
func ring(dc *gg.Context, cx, cy, r, width float64, c color.Color) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()
}

// ellipsize shortens s with "..." until it fits in width with the current
// font face.
func ellipsize(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		t := string(runes[:n]) + "..."
		if w, _ := dc.MeasureString(t); w <= width {
			return t
		}
	}
	return "..."
}

// clock formats d as mm:ss.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// progress returns the completion of an animation started at start lasting
// d, in 0..1. A zero start is a finished animation.
func progress(start, now time.Time, d time.Duration) float64 {
	if start.IsZero() || d <= 0 {
		return 1
	}
	p := float64(now.Sub(start)) / float64(d)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
