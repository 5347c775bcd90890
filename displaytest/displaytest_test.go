// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package displaytest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/nanopod/player/rotary"
	"github.com/nanopod/player/ui"
)

type recorder struct {
	frames []image.Image
	err    error
}

func (r *recorder) String() string          { return "recorder" }
func (r *recorder) Halt() error             { return nil }
func (r *recorder) ColorModel() color.Model { return color.RGBAModel }
func (r *recorder) Bounds() image.Rectangle { return image.Rect(0, 0, 240, 240) }
func (r *recorder) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	r.frames = append(r.frames, src)
	return r.err
}

func at(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRender(t *testing.T) {
	img := Render(image.Rect(0, 0, 240, 240), Stats{})
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 240 {
		t.Fatalf("bounds = %v", b)
	}
	bg := ui.BGPrimary
	if got := at(img, 2, 2); got != (color.RGBA{bg.R, bg.G, bg.B, 255}) {
		t.Errorf("corner = %v", got)
	}
	a := ui.Accent
	if got := at(img, 120, 11); got != (color.RGBA{a.R, a.G, a.B, 255}) {
		t.Errorf("border = %v", got)
	}
	s := ui.BGSecondary
	if got := at(img, 120, 40); got != (color.RGBA{s.R, s.G, s.B, 255}) {
		t.Errorf("circle = %v", got)
	}
}

func TestStats(t *testing.T) {
	var s Stats
	for _, ev := range []rotary.Event{
		{Kind: rotary.Rotate, Dir: 1},
		{Kind: rotary.Rotate, Dir: 1},
		{Kind: rotary.Rotate, Dir: -1},
		{Kind: rotary.Click},
		{Kind: rotary.DoubleClick},
		{Kind: rotary.Press},
	} {
		s.Add(ev)
	}
	if want := (Stats{Position: 1, Clicks: 1, Double: 1}); s != want {
		t.Errorf("Stats = %+v, want %+v", s, want)
	}
	if got := s.String(); got != "pos 1  clicks 1  double 1" {
		t.Errorf("String() = %q", got)
	}
}

func TestRun(t *testing.T) {
	r := &recorder{}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	events := make(chan rotary.Event)
	done := make(chan error)
	go func() { done <- Run(ctx, r, events, log.New(ioutil.Discard, "", 0)) }()
	events <- rotary.Event{Kind: rotary.Rotate, Dir: 1}
	events <- rotary.Event{Kind: rotary.Click}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run() = %v", err)
	}
	if len(r.frames) < 2 {
		t.Fatalf("%d frames drawn, want at least 2", len(r.frames))
	}
}

func TestRunDrawError(t *testing.T) {
	r := &recorder{err: errors.New("spi")}
	err := Run(context.Background(), r, nil, log.New(ioutil.Discard, "", 0))
	if err == nil || !errors.Is(err, r.err) {
		t.Fatalf("Run() = %v", err)
	}
}
