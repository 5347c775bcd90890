// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01_test

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	"github.com/nanopod/player/gc9a01"
	"github.com/nanopod/player/gc9a01/image565"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use spireg SPI port registry to find the first available SPI bus.
	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	dc := gpioreg.ByName("GPIO25")
	rst := gpioreg.ByName("GPIO27")
	bl := gpioreg.ByName("GPIO18")
	dev, err := gc9a01.New(p, dc, nil, rst, bl, &gc9a01.DefaultOpts)
	if err != nil {
		log.Fatalf("failed to open display: %v", err)
	}
	if err := dev.Init(); err != nil {
		log.Fatalf("failed to initialize display: %v", err)
	}
	if err := dev.SetBrightness(255); err != nil {
		log.Fatal(err)
	}

	// Draw a green disc in the middle of the panel.
	img := image565.NewImage(dev.Bounds())
	green := image565.RGB(0x1D, 0xB9, 0x54)
	c := dev.Bounds().Max.Div(2)
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			dx, dy := x-c.X, y-c.Y
			if dx*dx+dy*dy < 80*80 {
				img.SetRGB565(x, y, green)
			}
		}
	}
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		log.Fatal(err)
	}

	// Partial updates only send the modified area.
	draw.Draw(img, image.Rect(110, 110, 130, 130), &image.Uniform{color.White}, image.Point{}, draw.Src)
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		log.Fatal(err)
	}
}
