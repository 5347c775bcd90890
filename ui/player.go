// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ui

import (
	"image"
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/nanopod/player/massistant"
)

const (
	volumeStep = 5
	// volumeHold keeps the local volume over polled states after a change.
	volumeHold = 2 * time.Second

	arcSize    = 230
	arcWidth   = 8
	arcStart   = 135
	arcSweep   = 270
	titleWidth = 180
	barWidth   = 160
	barHeight  = 6
	// marqueeSpeed is the circular title scroll speed in pixels per second.
	marqueeSpeed = 40
	marqueeGap   = 40
)

// playerScreen shows the current track with volume and progress.
type playerScreen struct {
	playing  bool
	hasTrack bool
	volume   int
	title    string
	imageURL string
	progress int
	position time.Duration

	volumeAt    time.Time
	titleChange time.Time
}

func newPlayerScreen() playerScreen {
	return playerScreen{title: "No track", volume: massistant.DefaultVolume}
}

// rotate changes the volume by one step in direction dir and returns the
// new volume.
func (p *playerScreen) rotate(dir int, now time.Time) int {
	v := p.volume + dir*volumeStep
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	p.volume = v
	p.volumeAt = now
	return v
}

// toggle flips the play state and returns the new one.
func (p *playerScreen) toggle() bool {
	p.playing = !p.playing
	return p.playing
}

func (p *playerScreen) update(s *massistant.PlayerState, now time.Time) {
	p.playing = s.Playing
	if p.volumeAt.IsZero() || now.Sub(p.volumeAt) >= volumeHold {
		p.volume = s.Volume
	}
	p.hasTrack = s.Track.URI != "" || s.Track.Name != ""
	title := s.Track.Name
	if title == "" {
		title = "No track"
	}
	if title != p.title {
		p.title = title
		p.titleChange = now
	}
	p.imageURL = s.Track.ImageURL
	if s.Duration > 0 {
		p.progress = s.Progress()
	}
	p.position = s.Position
}

func (p *playerScreen) draw(dc *gg.Context, now time.Time, art func(url string, size int) image.Image) {
	w, h := float64(dc.Width()), float64(dc.Height())
	cx, cy := w/2, h/2
	dc.SetColor(BGPrimary)
	dc.Clear()

	// Volume arc.
	r := float64(arcSize-arcWidth) / 2
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineWidth(arcWidth)
	dc.SetColor(BGSecondary)
	dc.DrawArc(cx, cy, r, gg.Radians(arcStart), gg.Radians(arcStart+arcSweep))
	dc.Stroke()
	if p.volume > 0 {
		dc.SetColor(Accent)
		dc.DrawArc(cx, cy, r, gg.Radians(arcStart), gg.Radians(arcStart+float64(arcSweep*p.volume)/100))
		dc.Stroke()
	}
	dc.SetLineCap(gg.LineCapButt)

	var img image.Image
	if p.imageURL != "" {
		img = art(p.imageURL, CoverMedium)
	}
	cover(dc, cx, cy-25, CoverMedium, img, "", 1)
	playIcon(dc, cx, cy-25, p.playing)

	p.drawTitle(dc, cx, cy+55, now)

	x0, y0 := cx-barWidth/2, cy+80-barHeight/2
	dc.SetColor(BGSecondary)
	dc.DrawRoundedRectangle(x0, y0, barWidth, barHeight, barHeight/2)
	dc.Fill()
	if p.progress > 0 {
		dc.SetColor(Accent)
		dc.DrawRoundedRectangle(x0, y0, float64(barWidth*p.progress)/100, barHeight, barHeight/2)
		dc.Fill()
	}

	dc.SetFontFace(Face(FontSmall))
	dc.SetColor(TextSecondary)
	dc.DrawStringAnchored(clock(p.position), cx, cy+95, 0.5, 0.35)
}

// drawTitle draws the track name, scrolling it circularly when it does not
// fit.
func (p *playerScreen) drawTitle(dc *gg.Context, cx, cy float64, now time.Time) {
	dc.SetFontFace(Face(FontMedium))
	dc.SetColor(TextPrimary)
	tw, _ := dc.MeasureString(p.title)
	if tw <= titleWidth {
		dc.DrawStringAnchored(p.title, cx, cy, 0.5, 0.35)
		return
	}
	period := tw + marqueeGap
	off := math.Mod(now.Sub(p.titleChange).Seconds()*marqueeSpeed, period)
	x := cx - titleWidth/2 - off
	dc.Push()
	dc.DrawRectangle(cx-titleWidth/2, cy-FontMedium, titleWidth, 2*FontMedium)
	dc.Clip()
	dc.DrawStringAnchored(p.title, x, cy, 0, 0.35)
	dc.DrawStringAnchored(p.title, x+period, cy, 0, 0.35)
	dc.Pop()
}

func (p *playerScreen) scrolling(dc *gg.Context) bool {
	dc.SetFontFace(Face(FontMedium))
	tw, _ := dc.MeasureString(p.title)
	return tw > titleWidth
}

// playIcon draws the pause bars while playing and the play triangle
// otherwise.
func playIcon(dc *gg.Context, cx, cy float64, playing bool) {
	dc.SetColor(TextPrimary)
	if playing {
		dc.DrawRectangle(cx-11, cy-13, 8, 26)
		dc.DrawRectangle(cx+3, cy-13, 8, 26)
	} else {
		dc.MoveTo(cx-9, cy-14)
		dc.LineTo(cx+14, cy)
		dc.LineTo(cx-9, cy+14)
		dc.ClosePath()
	}
	dc.Fill()
}
