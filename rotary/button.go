// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rotary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ButtonOpts configures a Button.
type ButtonOpts struct {
	// Debounce ignores edges closer than this to the previous accepted one.
	Debounce time.Duration
	// DoubleClick is the window in which a second click makes a DoubleClick.
	DoubleClick time.Duration
	// LongPress is the hold time after which a release is not a click.
	LongPress time.Duration
	// ActiveHigh is set when the pressed button reads High. The default is a
	// button to ground with the internal pull up.
	ActiveHigh bool
}

// DefaultButtonOpts is the recommended configuration.
var DefaultButtonOpts = ButtonOpts{
	Debounce:    5 * time.Millisecond,
	DoubleClick: 300 * time.Millisecond,
	LongPress:   2 * time.Second,
}

// Button decodes clicks on a push button.
type Button struct {
	p    gpio.PinIn
	opts ButtonOpts
	g    gesture
}

// NewButton configures p as an input with edge detection.
func NewButton(p gpio.PinIn, opts *ButtonOpts) (*Button, error) {
	if p == nil {
		return nil, errors.New("rotary: button pin is required")
	}
	o := DefaultButtonOpts
	if opts != nil {
		o = *opts
	}
	pull := gpio.PullUp
	if o.ActiveHigh {
		pull = gpio.PullDown
	}
	if err := p.In(pull, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("rotary: %s: %w", p, err)
	}
	b := &Button{p: p, opts: o}
	b.g.opts = &b.opts
	b.g.pressed = b.isPressed()
	return b, nil
}

func (b *Button) String() string {
	return fmt.Sprintf("rotary.Button{%s}", b.p)
}

func (b *Button) isPressed() bool {
	return b.p.Read() == gpio.Level(b.opts.ActiveHigh)
}

// Run decodes the button until ctx is done and sends Press, Release, Click
// and DoubleClick events to out. It returns ctx.Err().
func (b *Button) Run(ctx context.Context, out chan<- Event) error {
	for ctx.Err() == nil {
		kinds, now := b.poll()
		for _, k := range kinds {
			select {
			case out <- Event{Kind: k, At: now}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return ctx.Err()
}

// poll waits for an edge, the end of the double click window or
// edgeTimeout, whichever comes first.
func (b *Button) poll() ([]Kind, time.Time) {
	timeout := edgeTimeout
	if d, ok := b.g.deadline(); ok {
		if w := time.Until(d); w < timeout {
			timeout = w
		}
	}
	edge := timeout > 0 && b.p.WaitForEdge(timeout)
	now := time.Now()
	if edge {
		return b.g.edge(b.isPressed(), now), now
	}
	return b.g.tick(now), now
}

// gesture is the button state machine, independent of the pin.
type gesture struct {
	opts *ButtonOpts

	pressed   bool
	lastEdge  time.Time
	pressedAt time.Time
	// clickAt is set while a single click waits for a possible second one.
	clickAt time.Time
}

func (g *gesture) deadline() (time.Time, bool) {
	if g.clickAt.IsZero() {
		return time.Time{}, false
	}
	return g.clickAt.Add(g.opts.DoubleClick), true
}

// edge processes a pin edge with the pressed level read after it.
func (g *gesture) edge(pressed bool, now time.Time) []Kind {
	out := g.tick(now)
	if pressed == g.pressed || (!g.lastEdge.IsZero() && now.Sub(g.lastEdge) < g.opts.Debounce) {
		return out
	}
	g.pressed = pressed
	g.lastEdge = now
	if pressed {
		g.pressedAt = now
		return append(out, Press)
	}
	out = append(out, Release)
	if g.opts.LongPress > 0 && now.Sub(g.pressedAt) >= g.opts.LongPress {
		g.clickAt = time.Time{}
		return out
	}
	if !g.clickAt.IsZero() {
		g.clickAt = time.Time{}
		return append(out, DoubleClick)
	}
	if g.opts.DoubleClick <= 0 {
		return append(out, Click)
	}
	g.clickAt = now
	return out
}

// tick emits the pending Click once the double click window expired.
func (g *gesture) tick(now time.Time) []Kind {
	if d, ok := g.deadline(); ok && !now.Before(d) {
		g.clickAt = time.Time{}
		return []Kind{Click}
	}
	return nil
}
