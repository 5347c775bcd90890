// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ui

import (
	"time"

	"github.com/fogleman/gg"

	"github.com/nanopod/player/massistant"
)

const (
	rollerRows   = 4
	rollerWidth  = 200
	rollerHeight = 140
)

// seriesScreen lists the tracks of the selected playlist in a roller.
type seriesScreen struct {
	title  string
	tracks []massistant.Track
	loaded bool
	index  int

	// Roller scroll animation from the previous index.
	from       int
	scrollFrom time.Time
}

func (s *seriesScreen) setTitle(t string) {
	if t == "" {
		t = "Episodes"
	}
	s.title = t
}

// reset empties the list while new tracks load.
func (s *seriesScreen) reset(title string) {
	s.setTitle(title)
	s.tracks = nil
	s.loaded = false
	s.index = 0
	s.scrollFrom = time.Time{}
}

func (s *seriesScreen) setTracks(t []massistant.Track) {
	s.tracks = t
	s.loaded = true
	s.index = 0
	s.scrollFrom = time.Time{}
}

// rotate moves the selection by dir without wrapping. It reports whether
// the selection changed.
func (s *seriesScreen) rotate(dir int, now time.Time) bool {
	i := s.index + dir
	if len(s.tracks) == 0 || i < 0 || i >= len(s.tracks) {
		return false
	}
	s.from = s.index
	s.index = i
	s.scrollFrom = now
	return true
}

func (s *seriesScreen) selected() (massistant.Track, bool) {
	if len(s.tracks) == 0 {
		return massistant.Track{}, false
	}
	return s.tracks[s.index], true
}

func (s *seriesScreen) animating(now time.Time) bool {
	return progress(s.scrollFrom, now, AnimNormal) < 1
}

func (s *seriesScreen) draw(dc *gg.Context, now time.Time) {
	w, h := float64(dc.Width()), float64(dc.Height())
	cx, cy := w/2, h/2
	dc.SetColor(BGPrimary)
	dc.Clear()

	title := s.title
	if title == "" {
		title = "Episodes"
	}
	dc.SetFontFace(Face(FontMedium))
	dc.SetColor(Accent)
	dc.DrawStringAnchored(ellipsize(dc, title, 180), cx, 15, 0.5, 1)

	dc.SetColor(TextSecondary)
	dc.DrawRectangle(cx-90, 45, 180, 2)
	dc.Fill()

	top := cy + 20 - rollerHeight/2
	rowH := float64(rollerHeight) / rollerRows
	mid := cy + 20
	// Selection band.
	dc.SetColor(BGSecondary)
	dc.DrawRoundedRectangle(cx-rollerWidth/2, mid-rowH/2, rollerWidth, rowH, 6)
	dc.Fill()

	if len(s.tracks) == 0 {
		msg := "Loading..."
		if s.loaded {
			msg = "No episodes"
		}
		dc.SetColor(TextSecondary)
		dc.DrawStringAnchored(msg, cx, mid, 0.5, 0.35)
		return
	}

	// pos is the fractional index shown in the selection band.
	p := progress(s.scrollFrom, now, AnimNormal)
	pos := float64(s.from) + (float64(s.index)-float64(s.from))*p

	dc.Push()
	dc.DrawRectangle(cx-rollerWidth/2, top, rollerWidth, rollerHeight)
	dc.Clip()
	for i, t := range s.tracks {
		y := mid + (float64(i)-pos)*rowH
		if y < top-rowH || y > top+rollerHeight+rowH {
			continue
		}
		if i == s.index {
			dc.SetColor(TextPrimary)
		} else {
			dc.SetColor(TextSecondary)
		}
		dc.DrawStringAnchored(ellipsize(dc, t.Name, rollerWidth-10), cx, y, 0.5, 0.35)
	}
	dc.Pop()
}
