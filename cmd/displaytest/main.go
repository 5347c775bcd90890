// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// displaytest draws the diagnostic screen on a GC9A01 panel and counts
// encoder turns and clicks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nanopod/player/displaytest"
	"github.com/nanopod/player/gc9a01"
	"github.com/nanopod/player/rotary"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("invalid pin %q", name)
	}
	return p, nil
}

func mainImpl() error {
	spiID := flag.String("spi", "", "SPI port to use")
	dcName := flag.String("dc", "GPIO25", "data/command pin")
	csName := flag.String("cs", "", "chip select pin, empty when driven by the SPI port")
	rstName := flag.String("rst", "GPIO27", "reset pin")
	blName := flag.String("bl", "GPIO18", "backlight pin, empty if none")
	aName := flag.String("a", "", "encoder A pin, empty if none")
	bName := flag.String("b", "", "encoder B pin")
	btnName := flag.String("button", "", "encoder button pin")
	rotation := flag.Int("rotation", 0, "rotation in quarter turns, 0..3")
	opts := gc9a01.DefaultOpts
	flag.Var(&opts.Speed, "speed", "SPI clock")
	flag.BoolVar(&opts.Invert, "invert", opts.Invert, "invert colors")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *rotation < 0 || *rotation > 3 {
		return errors.New("-rotation must be in 0..3")
	}
	opts.Rotation = gc9a01.Rotation(*rotation)
	log.SetFlags(log.Lmicroseconds)

	if _, err := host.Init(); err != nil {
		return err
	}
	dc, err := pin(*dcName)
	if err != nil {
		return err
	}
	rst, err := pin(*rstName)
	if err != nil {
		return err
	}
	var cs, bl gpio.PinOut
	if *csName != "" {
		if cs, err = pin(*csName); err != nil {
			return err
		}
	}
	if *blName != "" {
		if bl, err = pin(*blName); err != nil {
			return err
		}
	}
	p, err := spireg.Open(*spiID)
	if err != nil {
		return err
	}
	defer p.Close()
	dev, err := gc9a01.New(p, dc, cs, rst, bl, &opts)
	if err != nil {
		return err
	}
	if err := dev.Init(); err != nil {
		return err
	}
	if bl != nil {
		if err := dev.SetBrightness(255); err != nil {
			return err
		}
	}
	defer dev.Halt()

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	events := make(chan rotary.Event, 16)
	if *aName != "" {
		a, err := pin(*aName)
		if err != nil {
			return err
		}
		b, err := pin(*bName)
		if err != nil {
			return err
		}
		enc, err := rotary.NewEncoder(a, b)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc.Run(ctx, events)
		}()
	}
	if *btnName != "" {
		p, err := pin(*btnName)
		if err != nil {
			return err
		}
		btn, err := rotary.NewButton(p, nil)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			btn.Run(ctx, events)
		}()
	}

	err = displaytest.Run(ctx, dev, events, log.New(os.Stderr, "displaytest: ", log.Lmicroseconds))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "displaytest: %s.\n", err)
		os.Exit(1)
	}
}
