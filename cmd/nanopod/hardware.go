// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nanopod/player/config"
	"github.com/nanopod/player/gc9a01"
	"github.com/nanopod/player/rotary"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

type panel struct {
	port spi.PortCloser
	dev  *gc9a01.Dev
}

func (p *panel) Close() error {
	return p.port.Close()
}

func pinByNumber(path string, n int) (gpio.PinIO, error) {
	p := gpioreg.ByName(config.PinName(n))
	if p == nil {
		return nil, fmt.Errorf("%s: no GPIO%d on this host", path, n)
	}
	return p, nil
}

// openDisplay connects and initializes the panel, then turns the backlight
// on.
func openDisplay(cfg *config.Display) (*panel, error) {
	dc, err := pinByNumber("display.dc_pin", *cfg.DCPin)
	if err != nil {
		return nil, err
	}
	cs, err := pinByNumber("display.cs_pin", *cfg.CSPin)
	if err != nil {
		return nil, err
	}
	rst, err := pinByNumber("display.reset_pin", *cfg.ResetPin)
	if err != nil {
		return nil, err
	}
	var bl gpio.PinOut
	if cfg.BacklightPin != nil {
		if bl, err = pinByNumber("display.backlight_pin", *cfg.BacklightPin); err != nil {
			return nil, err
		}
	}
	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, err
	}
	opts := gc9a01.DefaultOpts
	opts.Speed = physic.Frequency(cfg.Speed)
	opts.Invert = cfg.Invert
	opts.Rotation = gc9a01.Rotation(cfg.Rotation)
	dev, err := gc9a01.New(port, dc, cs, rst, bl, &opts)
	if err == nil {
		err = dev.Init()
	}
	if err == nil && bl != nil {
		err = dev.SetBrightness(255)
	}
	if err != nil {
		port.Close()
		return nil, err
	}
	return &panel{port: port, dev: dev}, nil
}

// startInput runs the encoder and its button, sending their events to out.
func startInput(ctx context.Context, g *errgroup.Group, cfg *config.Input, longPress time.Duration, out chan<- rotary.Event) error {
	a, err := pinByNumber("input.a_pin", *cfg.APin)
	if err != nil {
		return err
	}
	b, err := pinByNumber("input.b_pin", *cfg.BPin)
	if err != nil {
		return err
	}
	btn, err := pinByNumber("input.button_pin", *cfg.ButtonPin)
	if err != nil {
		return err
	}
	enc, err := rotary.NewEncoder(a, b)
	if err != nil {
		return err
	}
	opts := rotary.DefaultButtonOpts
	opts.Debounce = cfg.Debounce
	opts.DoubleClick = cfg.DoubleClick
	opts.LongPress = longPress
	button, err := rotary.NewButton(btn, &opts)
	if err != nil {
		return err
	}
	g.Go(func() error {
		return enc.Run(ctx, out)
	})
	g.Go(func() error {
		return button.Run(ctx, out)
	})
	return nil
}
