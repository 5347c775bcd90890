// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ledring

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"
)

func newTestRing(n int) (*Ring, *bytes.Buffer) {
	var buf bytes.Buffer
	c := NewConsole(n)
	c.w = &buf
	return New(c), &buf
}

func repeat(c color.NRGBA, n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func TestModeString(t *testing.T) {
	data := []struct {
		m    Mode
		want string
	}{
		{Off, "Off"},
		{Idle, "Idle"},
		{Playing, "Playing"},
		{Paused, "Paused"},
		{Volume, "Volume"},
		{Error, "Error"},
		{Progress, "Progress"},
		{Mode(42), "Mode(42)"},
	}
	for _, line := range data {
		if s := line.m.String(); s != line.want {
			t.Errorf("%d.String() = %q, want %q", int(line.m), s, line.want)
		}
	}
}

func TestFrames(t *testing.T) {
	epoch := time.Unix(0, 0)
	r, _ := newTestRing(10)
	data := []struct {
		name  string
		mode  Mode
		value int
		now   time.Time
		want  []color.NRGBA
	}{
		{"off", Off, 0, epoch, repeat(black, 10)},
		{"idle", Idle, 0, epoch, repeat(idleBlue, 10)},
		{"paused", Paused, 0, epoch, repeat(color.NRGBA{7, 46, 21, 255}, 10)},
		{"playing dim", Playing, 0, epoch, repeat(color.NRGBA{6, 37, 17, 255}, 10)},
		{"playing bright", Playing, 0, epoch.Add(time.Second), repeat(accent, 10)},
		{"error on", Error, 0, epoch, repeat(errorRed, 10)},
		{"error off", Error, 0, epoch.Add(250 * time.Millisecond), repeat(black, 10)},
		{"volume clamped", Volume, 150, epoch, repeat(highlight, 10)},
		{"volume zero", Volume, -5, epoch, repeat(black, 10)},
		{
			"progress partial", Progress, 25, epoch,
			append(append(repeat(accent, 2), color.NRGBA{0x0F, 0x5D, 0x2A, 255}), repeat(black, 7)...),
		},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			r.SetMode(line.mode, line.value)
			if diff := cmp.Diff(r.Frame(line.now), line.want); diff != "" {
				t.Errorf("Frame() (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRender(t *testing.T) {
	r, buf := newTestRing(4)
	if r.Len() != 4 {
		t.Fatalf("Len() = %d", r.Len())
	}
	r.SetMode(Volume, 50)
	if m, v := r.Mode(); m != Volume || v != 50 {
		t.Fatalf("Mode() = %s, %d", m, v)
	}
	if err := r.Render(time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	p := ansi256.Default
	want := "\r\033[0m" + p.Block(highlight) + p.Block(highlight) + p.Block(black) + p.Block(black) + "\033[0m "
	if got := buf.String(); got != want {
		t.Errorf("Render() wrote %q, want %q", got, want)
	}

	buf.Reset()
	if err := r.Halt(); err != nil {
		t.Fatal(err)
	}
	if m, _ := r.Mode(); m != Off {
		t.Errorf("Halt() left mode %s", m)
	}
	if strings.Contains(buf.String(), p.Block(highlight)) {
		t.Errorf("Halt() did not clear the ring: %q", buf.String())
	}
}

func TestConsoleDrawClipped(t *testing.T) {
	c := NewConsole(4)
	c.w = &bytes.Buffer{}
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		src.SetNRGBA(x, 0, color.NRGBA{R: uint8(x + 1), A: 255})
	}
	if err := c.Draw(image.Rect(-2, 0, 2, 1), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want := []color.NRGBA{{R: 3, A: 255}, {R: 4, A: 255}, {}, {}}
	if diff := cmp.Diff(c.pixels, want); diff != "" {
		t.Errorf("Draw() (-got +want):\n%s", diff)
	}
}
