// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rotary decodes a quadrature rotary encoder with a push button.
//
// Both the encoder and the button are read through GPIO edge detection. The
// decoded gestures are sent as Event values on a channel.
package rotary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Kind is the type of an input Event.
type Kind int

// Input event kinds.
const (
	Rotate Kind = iota
	Press
	Release
	Click
	DoubleClick
)

const kindName = "RotatePressReleaseClickDoubleClick"

var kindIndex = [...]uint8{0, 6, 11, 18, 23, 34}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindIndex)-1 {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindName[kindIndex[k]:kindIndex[k+1]]
}

// Event is one decoded input gesture.
type Event struct {
	Kind Kind
	// Dir is +1 for a clockwise detent and -1 for counter clockwise. Only set
	// for Rotate.
	Dir int
	At  time.Time
}

func (e Event) String() string {
	if e.Kind == Rotate {
		return fmt.Sprintf("Rotate(%+d)", e.Dir)
	}
	return e.Kind.String()
}

// edgeTimeout bounds WaitForEdge so Run notices context cancellation.
const edgeTimeout = 100 * time.Millisecond

// transitions maps prev<<2|cur Gray code states to a step. Invalid double
// transitions count as 0.
var transitions = [16]int8{0, -1, 1, 0, 1, 0, 0, -1, -1, 0, 0, 1, 0, 1, -1, 0}

// StepsPerDetent is the number of quadrature transitions per mechanical
// detent of common encoders.
const StepsPerDetent = 4

// Decoder is the quadrature state machine.
//
// The state is A<<1|B. Clockwise rotation has A leading B.
type Decoder struct {
	state uint8
	acc   int8
}

// Reset sets the current pin levels without emitting a step.
func (d *Decoder) Reset(a, b gpio.Level) {
	d.state = levels(a, b)
	d.acc = 0
}

// Update feeds the current pin levels and returns +1 or -1 when a full
// detent completed, 0 otherwise.
func (d *Decoder) Update(a, b gpio.Level) int {
	s := levels(a, b)
	d.acc += transitions[d.state<<2|s]
	d.state = s
	switch {
	case d.acc >= StepsPerDetent:
		d.acc = 0
		return 1
	case d.acc <= -StepsPerDetent:
		d.acc = 0
		return -1
	}
	return 0
}

func levels(a, b gpio.Level) uint8 {
	var s uint8
	if a {
		s |= 2
	}
	if b {
		s |= 1
	}
	return s
}

// Encoder reads a quadrature encoder on two GPIO pins.
type Encoder struct {
	a, b gpio.PinIn

	mu      sync.Mutex
	dec     Decoder
	samples int
}

// NewEncoder configures a and b as pulled up inputs with edge detection on
// both edges.
func NewEncoder(a, b gpio.PinIn) (*Encoder, error) {
	if a == nil || b == nil {
		return nil, errors.New("rotary: encoder pins are required")
	}
	for _, p := range []gpio.PinIn{a, b} {
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("rotary: %s: %w", p, err)
		}
	}
	e := &Encoder{a: a, b: b}
	e.dec.Reset(a.Read(), b.Read())
	return e, nil
}

func (e *Encoder) String() string {
	return fmt.Sprintf("rotary.Encoder{%s, %s}", e.a, e.b)
}

// Run decodes rotation until ctx is done and sends one Rotate event per
// detent to out. It returns ctx.Err().
func (e *Encoder) Run(ctx context.Context, out chan<- Event) error {
	var wg sync.WaitGroup
	for _, p := range []gpio.PinIn{e.a, e.b} {
		wg.Add(1)
		go func(p gpio.PinIn) {
			defer wg.Done()
			for ctx.Err() == nil {
				if p.WaitForEdge(edgeTimeout) {
					e.sample(ctx, out)
				}
			}
		}(p)
	}
	wg.Wait()
	return ctx.Err()
}

func (e *Encoder) sample(ctx context.Context, out chan<- Event) {
	e.mu.Lock()
	dir := e.dec.Update(e.a.Read(), e.b.Read())
	e.samples++
	e.mu.Unlock()
	if dir == 0 {
		return
	}
	select {
	case out <- Event{Kind: Rotate, Dir: dir, At: time.Now()}:
	case <-ctx.Done():
	}
}
