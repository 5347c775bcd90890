// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledring animates a ring of RGB LEDs to mirror the player state.
//
// The ring is any 1D display.Drawer, for example an APA-102 or WS2812
// strip driver, or the Console emulator in this package.
package ledring

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
)

// Mode is the animation shown by the ring.
type Mode int

// Animation modes.
const (
	Off Mode = iota
	Idle
	Playing
	Paused
	// Volume lights a share of the ring proportional to the value.
	Volume
	Error
	// Progress fills the ring clockwise with the playback position.
	Progress
)

const modeName = "OffIdlePlayingPausedVolumeErrorProgress"

var modeIndex = [...]uint8{0, 3, 7, 14, 20, 26, 31, 39}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeIndex)-1 {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeName[modeIndex[m]:modeIndex[m+1]]
}

var (
	accent    = color.NRGBA{0x1D, 0xB9, 0x54, 0xFF}
	highlight = color.NRGBA{0xFF, 0xD7, 0x00, 0xFF}
	errorRed  = color.NRGBA{0xFF, 0x44, 0x44, 0xFF}
	idleBlue  = color.NRGBA{0x16, 0x21, 0x3E, 0xFF}
	black     = color.NRGBA{0, 0, 0, 0xFF}
)

const (
	pulsePeriod = 2 * time.Second
	blinkPeriod = 500 * time.Millisecond
)

// Ring drives the LEDs.
//
// It is safe for concurrent use.
type Ring struct {
	d display.Drawer
	n int

	mu    sync.Mutex
	mode  Mode
	value int
	frame *image.NRGBA
}

// New returns a Ring drawing on d. The number of LEDs is the width of d.
func New(d display.Drawer) *Ring {
	n := d.Bounds().Dx()
	return &Ring{d: d, n: n, frame: image.NewNRGBA(image.Rect(0, 0, n, 1))}
}

func (r *Ring) String() string {
	return fmt.Sprintf("ledring.Ring{%s, %d}", r.d, r.n)
}

// Len returns the number of LEDs.
func (r *Ring) Len() int {
	return r.n
}

// SetMode selects the animation. value is a percentage used by Volume and
// Progress and is clamped to 0..100.
func (r *Ring) SetMode(m Mode, value int) {
	if value < 0 {
		value = 0
	} else if value > 100 {
		value = 100
	}
	r.mu.Lock()
	r.mode = m
	r.value = value
	r.mu.Unlock()
}

// Mode returns the current mode and value.
func (r *Ring) Mode() (Mode, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode, r.value
}

// Render computes the frame at now and draws it.
func (r *Ring) Render(now time.Time) error {
	r.mu.Lock()
	r.compute(now)
	err := r.d.Draw(r.frame.Bounds(), r.frame, image.Point{})
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ledring: %w", err)
	}
	return nil
}

// Halt turns all the LEDs off.
func (r *Ring) Halt() error {
	r.SetMode(Off, 0)
	return r.Render(time.Time{})
}

// Frame returns a copy of the frame for the current mode at now.
func (r *Ring) Frame(now time.Time) []color.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compute(now)
	out := make([]color.NRGBA, r.n)
	for i := range out {
		out[i] = r.frame.NRGBAAt(i, 0)
	}
	return out
}

func (r *Ring) compute(now time.Time) {
	switch r.mode {
	case Idle:
		r.fill(idleBlue)
	case Playing:
		// Raised cosine between 20% and 100% brightness.
		phase := float64(now.UnixNano()%int64(pulsePeriod)) / float64(pulsePeriod)
		level := 0.6 - 0.4*math.Cos(2*math.Pi*phase)
		r.fill(scale(accent, level))
	case Paused:
		r.fill(scale(accent, 0.25))
	case Volume:
		r.gauge(highlight, r.value)
	case Error:
		if (now.UnixNano()/int64(blinkPeriod/2))%2 == 0 {
			r.fill(errorRed)
		} else {
			r.fill(black)
		}
	case Progress:
		r.gauge(accent, r.value)
	default:
		r.fill(black)
	}
}

func (r *Ring) fill(c color.NRGBA) {
	for i := 0; i < r.n; i++ {
		r.frame.SetNRGBA(i, 0, c)
	}
}

// gauge lights pct percent of the ring. The LED at the boundary is
// partially lit.
func (r *Ring) gauge(c color.NRGBA, pct int) {
	lit := pct * r.n * 256 / 100
	for i := 0; i < r.n; i++ {
		switch v := lit - i*256; {
		case v >= 256:
			r.frame.SetNRGBA(i, 0, c)
		case v > 0:
			r.frame.SetNRGBA(i, 0, scale(c, float64(v)/256))
		default:
			r.frame.SetNRGBA(i, 0, black)
		}
	}
}

func scale(c color.NRGBA, f float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(c.R)*f + 0.5),
		G: uint8(float64(c.G)*f + 0.5),
		B: uint8(float64(c.B)*f + 0.5),
		A: 0xFF,
	}
}
