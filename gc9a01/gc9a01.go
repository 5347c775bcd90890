// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/nanopod/player/gc9a01/image565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Commands
const (
	sleepIn                byte = 0x10
	sleepOut               byte = 0x11
	displayInversionOff    byte = 0x20
	displayInversionOn     byte = 0x21
	displayOff             byte = 0x28
	displayOn              byte = 0x29
	columnAddressSet       byte = 0x2A
	rowAddressSet          byte = 0x2B
	memoryWrite            byte = 0x2C
	tearingEffectOn        byte = 0x35
	memoryAccessControl    byte = 0x36
	pixelFormatSet         byte = 0x3A
	displayFunctionControl byte = 0xB6
	powerControl2          byte = 0xC3
	powerControl3          byte = 0xC4
	powerControl4          byte = 0xC9
	frameRate              byte = 0xE8
	setGamma1              byte = 0xF0
	setGamma2              byte = 0xF1
	setGamma3              byte = 0xF2
	setGamma4              byte = 0xF3
	interRegisterEnable1   byte = 0xFE
	interRegisterEnable2   byte = 0xEF
)

const (
	madctlMY  byte = 0x80
	madctlMX  byte = 0x40
	madctlMV  byte = 0x20
	madctlBGR byte = 0x08

	pixelFormat16bit byte = 0x05
)

// Rotation of the panel content, clockwise.
type Rotation uint8

// Possible rotations.
const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Opts defines the panel configuration.
type Opts struct {
	Width  int
	Height int
	// Speed is the SPI clock. The controller accepts up to 80MHz for writes
	// but long wires may need less.
	Speed physic.Frequency
	// Invert enables display inversion. Most GC9A01 modules need it to show
	// correct colors.
	Invert bool
	// RGB selects RGB subpixel order instead of the usual BGR.
	RGB      bool
	Rotation Rotation
	// BacklightFreq is the PWM frequency used for intermediate brightness.
	BacklightFreq physic.Frequency
}

// DefaultOpts is the configuration of the common 1.28" 240×240 module.
var DefaultOpts = Opts{
	Width:         240,
	Height:        240,
	Speed:         80 * physic.MegaHertz,
	Invert:        true,
	BacklightFreq: 20 * physic.KiloHertz,
}

// defaultMaxTxSize is used when the SPI connection does not report a limit.
// It matches the default spidev buffer size on Linux.
const defaultMaxTxSize = 4096

// sleep is replaced in tests.
var sleep = time.Sleep

// Dev is an open handle to the display controller.
type Dev struct {
	c conn.Conn

	dc  gpio.PinOut
	cs  gpio.PinOut
	rst gpio.PinOut
	bl  gpio.PinOut

	opts Opts
	rect image.Rectangle

	// buffer mirrors the panel memory.
	buffer *image565.Image
	// next is the frame being composed. It is lazily initialized on the first
	// Draw().
	next *image565.Image
	// full forces the next flush to send the whole frame.
	full bool

	maxTxSize  int
	halted     bool
	brightness uint8
}

// New returns a Dev object that communicates over SPI to a GC9A01 display
// controller.
//
// Use nil for cs when the SPI port drives chip select itself. Use nil for bl
// when the backlight is hard wired.
//
// The display must be initialized with Init() before drawing.
func New(p spi.Port, dc, cs, rst, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("gc9a01: a data/command pin is required")
	}
	o := *opts
	if o.Width == 0 {
		o.Width = DefaultOpts.Width
	}
	if o.Height == 0 {
		o.Height = DefaultOpts.Height
	}
	if o.Speed == 0 {
		o.Speed = DefaultOpts.Speed
	}
	if o.BacklightFreq == 0 {
		o.BacklightFreq = DefaultOpts.BacklightFreq
	}
	if o.Width <= 0 || o.Width > 240 || o.Height <= 0 || o.Height > 240 {
		return nil, fmt.Errorf("gc9a01: invalid size %dx%d", o.Width, o.Height)
	}

	c, err := p.Connect(o.Speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("gc9a01: %w", err)
	}

	d := &Dev{
		c:         c,
		dc:        dc,
		cs:        cs,
		rst:       rst,
		bl:        bl,
		opts:      o,
		maxTxSize: defaultMaxTxSize,
	}
	if l, ok := c.(conn.Limits); ok {
		if s := l.MaxTxSize(); s > 0 {
			d.maxTxSize = s
		}
	}
	d.setRect()
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dev) setRect() {
	w, h := d.opts.Width, d.opts.Height
	if d.opts.Rotation&1 == 1 {
		w, h = h, w
	}
	d.rect = image.Rect(0, 0, w, h)
	d.buffer = image565.NewImage(d.rect)
	d.next = nil
	d.full = true
}

func (d *Dev) String() string {
	return fmt.Sprintf("gc9a01.Dev{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// Init resets the controller, runs the register setup and clears the panel
// to black.
func (d *Dev) Init() error {
	if err := d.reset(); err != nil {
		return err
	}
	eh := errorHandler{d: d}
	initDisplay(&eh, &d.opts)
	if eh.err != nil {
		return fmt.Errorf("gc9a01: init: %w", eh.err)
	}
	d.halted = false
	return d.Fill(color.Black)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// Only the pixels that differ from what the panel shows are transferred. It
// draws synchronously, once this function returns the display is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if r.Intersect(d.rect).Empty() {
		return nil
	}
	d.prepareNext()
	// draw clips r and shifts sp accordingly.
	draw.Src.Draw(d.next, r, src, sp)
	return d.flush()
}

// Fill paints the whole panel with c.
func (d *Dev) Fill(c color.Color) error {
	d.prepareNext()
	d.next.Fill(image565.From(c))
	return d.flush()
}

func (d *Dev) prepareNext() {
	if d.next == nil {
		d.next = image565.NewImage(d.rect)
		copy(d.next.Pix, d.buffer.Pix)
	}
}

// SetRotation changes the orientation of the content. The next Draw()
// repaints the whole panel.
func (d *Dev) SetRotation(r Rotation) error {
	eh := errorHandler{d: d}
	eh.sendCommand(memoryAccessControl)
	eh.sendData([]byte{madctl(r, d.opts.RGB)})
	if eh.err != nil {
		return eh.err
	}
	d.opts.Rotation = r & 3
	d.setRect()
	return nil
}

// Invert toggles display inversion.
func (d *Dev) Invert(on bool) error {
	if on {
		return d.sendCommand(displayInversionOn)
	}
	return d.sendCommand(displayInversionOff)
}

// SetBrightness sets the backlight level. 0 turns it off and 255 fully on,
// intermediate values use PWM on the backlight pin.
func (d *Dev) SetBrightness(level uint8) error {
	if d.bl == nil {
		return errors.New("gc9a01: no backlight pin")
	}
	var err error
	switch level {
	case 0:
		err = d.bl.Out(gpio.Low)
	case 255:
		err = d.bl.Out(gpio.High)
	default:
		duty := gpio.Duty(int64(gpio.DutyMax) * int64(level) / 255)
		err = d.bl.PWM(duty, d.opts.BacklightFreq)
	}
	if err != nil {
		return fmt.Errorf("gc9a01: backlight: %w", err)
	}
	d.brightness = level
	return nil
}

// Brightness returns the last backlight level set.
func (d *Dev) Brightness() uint8 {
	return d.brightness
}

// Halt turns off the display and puts the controller to sleep.
//
// Drawing afterward transparently wakes the display up.
func (d *Dev) Halt() error {
	eh := errorHandler{d: d}
	eh.sendCommand(displayOff)
	eh.sendCommand(sleepIn)
	if eh.err != nil {
		return eh.err
	}
	d.halted = true
	if d.bl != nil {
		return d.bl.Out(gpio.Low)
	}
	return nil
}

func (d *Dev) wake() error {
	eh := errorHandler{d: d}
	eh.sendCommand(sleepOut)
	sleep(120 * time.Millisecond)
	eh.sendCommand(displayOn)
	if eh.err != nil {
		return eh.err
	}
	d.halted = false
	if d.bl != nil && d.brightness != 0 {
		return d.SetBrightness(d.brightness)
	}
	return nil
}

// changedRect returns the smallest rectangle covering the pixels that differ
// between the panel and the next frame.
func (d *Dev) changedRect() image.Rectangle {
	if d.full {
		return d.rect
	}
	w, h := d.rect.Dx(), d.rect.Dy()
	stride := d.buffer.Stride
	top, bottom := 0, h
	for ; top < bottom; top++ {
		if !bytes.Equal(d.buffer.Pix[top*stride:(top+1)*stride], d.next.Pix[top*stride:(top+1)*stride]) {
			break
		}
	}
	for ; bottom > top; bottom-- {
		if !bytes.Equal(d.buffer.Pix[(bottom-1)*stride:bottom*stride], d.next.Pix[(bottom-1)*stride:bottom*stride]) {
			break
		}
	}
	if top == bottom {
		return image.Rectangle{}
	}
	left, right := 0, w
	for ; left < right; left++ {
		if d.columnDiffers(left, top, bottom) {
			break
		}
	}
	for ; right > left; right-- {
		if d.columnDiffers(right-1, top, bottom) {
			break
		}
	}
	return image.Rect(left, top, right, bottom)
}

func (d *Dev) columnDiffers(x, top, bottom int) bool {
	for y := top; y < bottom; y++ {
		o := d.buffer.PixOffset(x, y)
		if d.buffer.Pix[o] != d.next.Pix[o] || d.buffer.Pix[o+1] != d.next.Pix[o+1] {
			return true
		}
	}
	return false
}

// flush sends the changed part of next to the panel.
func (d *Dev) flush() error {
	r := d.changedRect()
	if r.Empty() {
		return nil
	}
	if d.halted {
		if err := d.wake(); err != nil {
			return err
		}
	}

	eh := errorHandler{d: d}
	setWindow(&eh, r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1)
	if r.Min.X == 0 && r.Max.X == d.rect.Max.X {
		// Full rows are contiguous in memory.
		eh.sendData(d.next.Pix[d.next.PixOffset(0, r.Min.Y):d.next.PixOffset(0, r.Max.Y)])
	} else {
		rowLen := 2 * r.Dx()
		buf := make([]byte, 0, rowLen*r.Dy())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			buf = append(buf, d.next.Row(y, r.Min.X, r.Max.X)...)
		}
		eh.sendData(buf)
	}
	if eh.err != nil {
		// The panel content is unknown now.
		d.full = true
		return fmt.Errorf("gc9a01: draw: %w", eh.err)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(d.buffer.Row(y, r.Min.X, r.Max.X), d.next.Row(y, r.Min.X, r.Max.X))
	}
	d.full = false
	return nil
}

func (d *Dev) sendCommand(cmd byte) error {
	eh := errorHandler{d: d}
	eh.sendCommand(cmd)
	return eh.err
}

// reset toggles the hardware reset line.
func (d *Dev) reset() error {
	if d.rst == nil {
		return nil
	}
	eh := errorHandler{d: d}

	eh.rstOut(gpio.High)
	sleep(10 * time.Millisecond)
	eh.rstOut(gpio.Low)
	sleep(10 * time.Millisecond)
	eh.rstOut(gpio.High)
	sleep(120 * time.Millisecond)

	return eh.err
}

var _ display.Drawer = &Dev{}
