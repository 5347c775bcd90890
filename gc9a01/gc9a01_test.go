// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nanopod/player/gc9a01/image565"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

func init() {
	sleep = func(time.Duration) {}
}

type testDev struct {
	*Dev
	bus *spitest.Record
	dc  *gpiotest.Pin
	rst *gpiotest.Pin
	bl  *gpiotest.Pin
}

func newTestDev(t *testing.T, w, h int) *testDev {
	t.Helper()
	td := &testDev{
		bus: &spitest.Record{},
		dc:  &gpiotest.Pin{N: "DC"},
		rst: &gpiotest.Pin{N: "RST"},
		bl:  &gpiotest.Pin{N: "BL"},
	}
	opts := DefaultOpts
	opts.Width = w
	opts.Height = h
	d, err := New(td.bus, td.dc, nil, td.rst, td.bl, &opts)
	if err != nil {
		t.Fatal(err)
	}
	td.Dev = d
	return td
}

func writes(ops []conntest.IO) [][]byte {
	var out [][]byte
	for _, op := range ops {
		out = append(out, op.W)
	}
	return out
}

func TestNewInvalid(t *testing.T) {
	opts := DefaultOpts
	if _, err := New(&spitest.Record{}, nil, nil, nil, nil, &opts); err == nil {
		t.Fatal("expected error without dc pin")
	}
	opts.Width = 300
	if _, err := New(&spitest.Record{}, &gpiotest.Pin{N: "DC"}, nil, nil, nil, &opts); err == nil {
		t.Fatal("expected error for oversized panel")
	}
}

func TestInit(t *testing.T) {
	d := newTestDev(t, 4, 4)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if d.rst.L != gpio.High {
		t.Errorf("reset line left %s", d.rst.L)
	}
	ops := writes(d.bus.Ops)
	if len(ops) == 0 || ops[0][0] != interRegisterEnable2 {
		t.Fatalf("unexpected first op: %v", ops)
	}
	// The init is followed by a full black frame.
	want := [][]byte{
		{columnAddressSet}, {0, 0, 0, 3},
		{rowAddressSet}, {0, 0, 0, 3},
		{memoryWrite}, make([]byte, 4*4*2),
	}
	tail := ops[len(ops)-len(want):]
	if diff := cmp.Diff(tail, want); diff != "" {
		t.Errorf("Init() frame (-got +want):\n%s", diff)
	}
}

func TestDrawSendsChangedWindow(t *testing.T) {
	d := newTestDev(t, 8, 8)
	if err := d.Fill(color.Black); err != nil {
		t.Fatal(err)
	}
	d.bus.Ops = nil

	red := &image.Uniform{color.RGBA{R: 0xFF, A: 0xFF}}
	if err := d.Draw(image.Rect(2, 3, 4, 5), red, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{
		{columnAddressSet}, {0, 2, 0, 3},
		{rowAddressSet}, {0, 3, 0, 4},
		{memoryWrite}, bytes.Repeat([]byte{0xF8, 0x00}, 4),
	}
	if diff := cmp.Diff(writes(d.bus.Ops), want); diff != "" {
		t.Errorf("Draw() (-got +want):\n%s", diff)
	}

	// Same content again, nothing to send.
	d.bus.Ops = nil
	if err := d.Draw(d.Bounds(), d.next, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if len(d.bus.Ops) != 0 {
		t.Errorf("Draw() of an identical frame sent %d ops", len(d.bus.Ops))
	}
}

func TestDrawFullRows(t *testing.T) {
	d := newTestDev(t, 4, 4)
	if err := d.Fill(color.Black); err != nil {
		t.Fatal(err)
	}
	d.bus.Ops = nil

	if err := d.Draw(image.Rect(0, 1, 4, 2), image.White, image.Point{}); err != nil {
		t.Fatal(err)
	}
	ops := writes(d.bus.Ops)
	if len(ops) != 6 {
		t.Fatalf("Draw() sent %d ops, want 6", len(ops))
	}
	if diff := cmp.Diff(ops[5], bytes.Repeat([]byte{0xFF}, 8)); diff != "" {
		t.Errorf("Draw() pixels (-got +want):\n%s", diff)
	}
}

func TestDrawOffscreenOrigin(t *testing.T) {
	d := newTestDev(t, 4, 4)
	if err := d.Fill(color.Black); err != nil {
		t.Fatal(err)
	}
	// Column x of src holds x+1.
	src := image565.NewImage(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGB565(x, y, image565.Color(x+1)<<11)
		}
	}
	if err := d.Draw(image.Rect(-2, 0, 2, 4), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := image565.Color(0)
			if x < 2 {
				want = src.RGB565At(x+2, y)
			}
			if got := d.buffer.RGB565At(x, y); got != want {
				t.Errorf("(%d, %d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}

func TestDrawChunked(t *testing.T) {
	d := newTestDev(t, 16, 16)
	d.maxTxSize = 64
	if err := d.Fill(color.White); err != nil {
		t.Fatal(err)
	}
	ops := writes(d.bus.Ops)
	// 5 window ops then 16*16*2/64 data chunks.
	if len(ops) != 5+8 {
		t.Fatalf("Fill() sent %d ops, want %d", len(ops), 5+8)
	}
	for _, op := range ops[5:] {
		if len(op) != 64 {
			t.Fatalf("chunk of %d bytes", len(op))
		}
	}
}

func TestHaltWakes(t *testing.T) {
	d := newTestDev(t, 4, 4)
	if err := d.Fill(color.Black); err != nil {
		t.Fatal(err)
	}
	if err := d.SetBrightness(255); err != nil {
		t.Fatal(err)
	}
	d.bus.Ops = nil
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if d.bl.L != gpio.Low {
		t.Errorf("backlight left on after Halt()")
	}
	if diff := cmp.Diff(writes(d.bus.Ops), [][]byte{{displayOff}, {sleepIn}}); diff != "" {
		t.Errorf("Halt() (-got +want):\n%s", diff)
	}

	d.bus.Ops = nil
	if err := d.Draw(image.Rect(0, 0, 1, 1), image.White, image.Point{}); err != nil {
		t.Fatal(err)
	}
	ops := writes(d.bus.Ops)
	if ops[0][0] != sleepOut || ops[1][0] != displayOn {
		t.Errorf("Draw() after Halt() did not wake the panel: %v", ops[:2])
	}
	if d.bl.L != gpio.High {
		t.Errorf("backlight not restored")
	}
}

func TestSetBrightness(t *testing.T) {
	d := newTestDev(t, 4, 4)
	if err := d.SetBrightness(0); err != nil {
		t.Fatal(err)
	}
	if d.bl.L != gpio.Low {
		t.Errorf("SetBrightness(0) level %s", d.bl.L)
	}
	if err := d.SetBrightness(255); err != nil {
		t.Fatal(err)
	}
	if d.bl.L != gpio.High || d.Brightness() != 255 {
		t.Errorf("SetBrightness(255) level %s", d.bl.L)
	}

	d.Dev.bl = nil
	if err := d.SetBrightness(128); err == nil {
		t.Error("expected error without backlight pin")
	}
}

func TestSetRotation(t *testing.T) {
	d := newTestDev(t, 8, 4)
	if got := d.Bounds(); got != image.Rect(0, 0, 8, 4) {
		t.Fatalf("Bounds() = %v", got)
	}
	if err := d.SetRotation(Rotate90); err != nil {
		t.Fatal(err)
	}
	if got := d.Bounds(); got != image.Rect(0, 0, 4, 8) {
		t.Fatalf("Bounds() after rotation = %v", got)
	}
	if diff := cmp.Diff(writes(d.bus.Ops), [][]byte{{memoryAccessControl}, {madctlMV | madctlBGR}}); diff != "" {
		t.Errorf("SetRotation() (-got +want):\n%s", diff)
	}
	// A rotation forces a full repaint.
	d.bus.Ops = nil
	if err := d.Fill(color.Black); err != nil {
		t.Fatal(err)
	}
	if got := len(writes(d.bus.Ops)); got != 6 {
		t.Errorf("Fill() after rotation sent %d ops, want 6", got)
	}
}
