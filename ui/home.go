// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ui

import (
	"image"
	"time"

	"github.com/fogleman/gg"

	"github.com/nanopod/player/massistant"
)

// maxDots is the number of page indicator dots on the home screen.
const maxDots = 7

// homeScreen browses the playlists one cover at a time.
type homeScreen struct {
	playlists []massistant.Playlist
	loaded    bool
	index     int
	// fadeStart is when the cover last changed.
	fadeStart time.Time
}

func (h *homeScreen) setPlaylists(p []massistant.Playlist) {
	h.playlists = p
	h.loaded = true
	h.index = 0
}

// rotate moves the selection by dir, wrapping around both ends. It reports
// whether the selection changed.
func (h *homeScreen) rotate(dir int, now time.Time) bool {
	n := len(h.playlists)
	if n == 0 {
		return false
	}
	i := h.index + dir
	if i < 0 {
		i = n - 1
	} else if i >= n {
		i = 0
	}
	if i == h.index {
		return false
	}
	h.index = i
	h.fadeStart = now
	return true
}

func (h *homeScreen) selected() (massistant.Playlist, bool) {
	if len(h.playlists) == 0 {
		return massistant.Playlist{}, false
	}
	return h.playlists[h.index], true
}

func (h *homeScreen) animating(now time.Time) bool {
	return progress(h.fadeStart, now, AnimFast) < 1
}

// activeDot maps the selection to one of the indicator dots.
func (h *homeScreen) activeDot() int {
	n := len(h.playlists)
	if n <= maxDots {
		return h.index
	}
	return h.index * maxDots / n
}

func (h *homeScreen) draw(dc *gg.Context, now time.Time, art func(url string, size int) image.Image) {
	w, ht := float64(dc.Width()), float64(dc.Height())
	cx, cy := w/2, ht/2
	dc.SetColor(BGPrimary)
	dc.Clear()

	p, ok := h.selected()
	var img image.Image
	if ok && p.ImageURL != "" {
		img = art(p.ImageURL, CoverLarge)
	}
	// The cover dips to 40% opacity and recovers when the selection changes.
	opacity := 0.4 + 0.6*progress(h.fadeStart, now, AnimFast)
	cover(dc, cx, cy-30, CoverLarge, img, p.Name, opacity)
	ring(dc, cx, cy-30, CoverLarge/2-1, 2, Accent)

	title := "Loading..."
	if ok {
		title = p.Name
	} else if h.loaded {
		title = "No playlists"
	}
	dc.SetFontFace(Face(FontLarge))
	dc.SetColor(TextPrimary)
	dc.DrawStringWrapped(title, cx, cy+60, 0.5, 0.5, 200, 1.1, gg.AlignCenter)

	n := len(h.playlists)
	if n > maxDots {
		n = maxDots
	}
	const pitch = 14.0
	x0 := cx - pitch*float64(n-1)/2
	active := h.activeDot()
	for i := 0; i < n; i++ {
		if i == active {
			dc.SetColor(Accent)
		} else {
			dc.SetColor(TextSecondary)
		}
		dc.DrawCircle(x0+pitch*float64(i), ht-20-5, 4)
		dc.Fill()
	}
}
