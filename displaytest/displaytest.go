// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package displaytest draws a diagnostic screen to check the panel and the
// rotary encoder wiring.
package displaytest

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/display"

	"github.com/nanopod/player/rotary"
	"github.com/nanopod/player/ui"
)

var hint = color.NRGBA{0x66, 0x66, 0x66, 0xFF}

// Stats counts the inputs received since start.
type Stats struct {
	// Position is the net number of detents, clockwise positive.
	Position int
	Clicks   int
	Double   int
}

func (s Stats) String() string {
	return fmt.Sprintf("pos %d  clicks %d  double %d", s.Position, s.Clicks, s.Double)
}

// Add counts ev.
func (s *Stats) Add(ev rotary.Event) {
	switch ev.Kind {
	case rotary.Rotate:
		s.Position += ev.Dir
	case rotary.Click:
		s.Clicks++
	case rotary.DoubleClick:
		s.Double++
	}
}

// Render draws the diagnostic screen at the size of r. The counters are
// shown once any input was received.
func Render(r image.Rectangle, s Stats) image.Image {
	dc := gg.NewContext(r.Dx(), r.Dy())
	cx, cy := float64(r.Dx())/2, float64(r.Dy())/2
	dc.SetColor(ui.BGPrimary)
	dc.Clear()

	dc.SetColor(ui.BGSecondary)
	dc.DrawCircle(cx, cy, 110)
	dc.Fill()
	dc.SetColor(ui.Accent)
	dc.SetLineWidth(3)
	dc.DrawCircle(cx, cy, 110-1.5)
	dc.Stroke()

	dc.SetFontFace(ui.Face(ui.FontLarge))
	dc.SetColor(ui.TextSecondary)
	dc.DrawStringAnchored("Hello", cx, cy-30, 0.5, 0.35)

	dc.SetFontFace(ui.Face(ui.FontXLarge))
	dc.SetColor(ui.Accent)
	dc.DrawStringAnchored("NanoPod", cx, cy+10, 0.5, 0.35)

	dc.SetFontFace(ui.Face(ui.FontSmall))
	dc.SetColor(hint)
	dc.DrawStringAnchored("Turn & Click to test", cx, cy+60, 0.5, 0.35)
	if s != (Stats{}) {
		dc.SetColor(ui.TextPrimary)
		dc.DrawStringAnchored(s.String(), cx, cy+80, 0.5, 0.35)
	}
	return dc.Image()
}

// Run draws the diagnostic screen on d and redraws it with updated counters
// for every event until ctx is done. It returns ctx.Err(), or the first draw
// error.
func Run(ctx context.Context, d display.Drawer, events <-chan rotary.Event, l *log.Logger) error {
	var s Stats
	draw := func() error {
		if err := d.Draw(d.Bounds(), Render(d.Bounds(), s), image.Point{}); err != nil {
			return fmt.Errorf("displaytest: %w", err)
		}
		return nil
	}
	if err := draw(); err != nil {
		return err
	}
	l.Printf("hello screen drawn on %s", d)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			s.Add(ev)
			l.Printf("%s: %s", ev, s)
			if err := draw(); err != nil {
				return err
			}
		}
	}
}
