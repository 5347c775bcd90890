// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ui

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Theme colors.
var (
	BGPrimary     = color.NRGBA{0x1A, 0x1A, 0x2E, 0xFF}
	BGSecondary   = color.NRGBA{0x16, 0x21, 0x3E, 0xFF}
	Accent        = color.NRGBA{0x1D, 0xB9, 0x54, 0xFF}
	TextPrimary   = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	TextSecondary = color.NRGBA{0xB3, 0xB3, 0xB3, 0xFF}
	Highlight     = color.NRGBA{0xFF, 0xD7, 0x00, 0xFF}
	ErrorColor    = color.NRGBA{0xFF, 0x44, 0x44, 0xFF}
)

// Cover sizes in pixels.
const (
	CoverLarge  = 120
	CoverMedium = 100
	CoverSmall  = 60
)

// Animation durations.
const (
	AnimFast   = 100 * time.Millisecond
	AnimNormal = 150 * time.Millisecond
	AnimSlow   = 300 * time.Millisecond
)

// Font sizes in pixels.
const (
	FontSmall  = 14
	FontMedium = 18
	FontLarge  = 24
	FontXLarge = 32
)

var (
	fontOnce sync.Once
	regular  *truetype.Font
	fontErr  error

	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// Face returns the Go Regular face at size pixels. Faces are cached and are
// not safe for concurrent drawing.
func Face(size float64) font.Face {
	fontOnce.Do(func() {
		regular, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		// goregular.TTF is embedded and known good.
		panic(fmt.Sprintf("ui: parsing Go Regular: %v", fontErr))
	}
	facesMu.Lock()
	defer facesMu.Unlock()
	f, ok := faces[size]
	if !ok {
		f = truetype.NewFace(regular, &truetype.Options{Size: size, Hinting: font.HintingFull})
		faces[size] = f
	}
	return f
}
