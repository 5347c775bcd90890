// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gc9a01 controls GC9A01 based round TFT displays over SPI.
//
// The GC9A01 drives 240×240 RGB panels, usually sold as 1.28" round modules.
// It is used in 4-wire SPI mode: SCLK, MOSI, chip select, data/command and
// reset, plus an optional backlight line.
//
// The driver keeps a shadow copy of the panel memory in RGB565. Each Draw
// only transfers the smallest rectangle that changed since the previous one,
// which keeps animations at a usable frame rate on a shared SPI bus.
//
// Datasheet:
// https://www.buydisplay.com/download/ic/GC9A01A.pdf
package gc9a01
