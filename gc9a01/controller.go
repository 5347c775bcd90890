// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	delay(ms int)
}

// initSequence is the vendor register setup. The inter register enable
// commands (0xFE, 0xEF) unlock the undocumented registers that follow.
var initSequence = []struct {
	cmd  byte
	data []byte
}{
	{interRegisterEnable2, nil},
	{0xEB, []byte{0x14}},
	{interRegisterEnable1, nil},
	{interRegisterEnable2, nil},
	{0xEB, []byte{0x14}},
	{0x84, []byte{0x40}},
	{0x85, []byte{0xFF}},
	{0x86, []byte{0xFF}},
	{0x87, []byte{0xFF}},
	{0x88, []byte{0x0A}},
	{0x89, []byte{0x21}},
	{0x8A, []byte{0x00}},
	{0x8B, []byte{0x80}},
	{0x8C, []byte{0x01}},
	{0x8D, []byte{0x01}},
	{0x8E, []byte{0xFF}},
	{0x8F, []byte{0xFF}},
	{displayFunctionControl, []byte{0x00, 0x20}},
	{0x90, []byte{0x08, 0x08, 0x08, 0x08}},
	{0xBD, []byte{0x06}},
	{0xBC, []byte{0x00}},
	{0xFF, []byte{0x60, 0x01, 0x04}},
	{powerControl2, []byte{0x13}},
	{powerControl3, []byte{0x13}},
	{powerControl4, []byte{0x22}},
	{0xBE, []byte{0x11}},
	{0xE1, []byte{0x10, 0x0E}},
	{0xDF, []byte{0x21, 0x0C, 0x02}},
	{setGamma1, []byte{0x45, 0x09, 0x08, 0x08, 0x26, 0x2A}},
	{setGamma2, []byte{0x43, 0x70, 0x72, 0x36, 0x37, 0x6F}},
	{setGamma3, []byte{0x45, 0x09, 0x08, 0x08, 0x26, 0x2A}},
	{setGamma4, []byte{0x43, 0x70, 0x72, 0x36, 0x37, 0x6F}},
	{0xED, []byte{0x1B, 0x0B}},
	{0xAE, []byte{0x77}},
	{0xCD, []byte{0x63}},
	{0x70, []byte{0x07, 0x07, 0x04, 0x0E, 0x0F, 0x09, 0x07, 0x08, 0x03}},
	{frameRate, []byte{0x34}},
	{0x62, []byte{0x18, 0x0D, 0x71, 0xED, 0x70, 0x70, 0x18, 0x0F, 0x71, 0xEF, 0x70, 0x70}},
	{0x63, []byte{0x18, 0x11, 0x71, 0xF1, 0x70, 0x70, 0x18, 0x13, 0x71, 0xF3, 0x70, 0x70}},
	{0x64, []byte{0x28, 0x29, 0xF1, 0x01, 0xF1, 0x00, 0x07}},
	{0x66, []byte{0x3C, 0x00, 0xCD, 0x67, 0x45, 0x45, 0x10, 0x00, 0x00, 0x00}},
	{0x67, []byte{0x00, 0x3C, 0x00, 0x00, 0x00, 0x01, 0x54, 0x10, 0x32, 0x98}},
	{0x74, []byte{0x10, 0x85, 0x80, 0x00, 0x00, 0x4E, 0x00}},
	{0x98, []byte{0x3E, 0x07}},
	{tearingEffectOn, nil},
}

func initDisplay(ctrl controller, opts *Opts) {
	for _, s := range initSequence {
		ctrl.sendCommand(s.cmd)
		if s.data != nil {
			ctrl.sendData(s.data)
		}
	}

	ctrl.sendCommand(memoryAccessControl)
	ctrl.sendData([]byte{madctl(opts.Rotation, opts.RGB)})

	ctrl.sendCommand(pixelFormatSet)
	ctrl.sendData([]byte{pixelFormat16bit})

	if opts.Invert {
		ctrl.sendCommand(displayInversionOn)
	} else {
		ctrl.sendCommand(displayInversionOff)
	}

	ctrl.sendCommand(sleepOut)
	ctrl.delay(120)
	ctrl.sendCommand(displayOn)
	ctrl.delay(20)
}

// setWindow selects the panel memory area written by the next memoryWrite.
// Bounds are inclusive.
func setWindow(ctrl controller, x0, y0, x1, y1 int) {
	ctrl.sendCommand(columnAddressSet)
	ctrl.sendData([]byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)})
	ctrl.sendCommand(rowAddressSet)
	ctrl.sendData([]byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)})
	ctrl.sendCommand(memoryWrite)
}

func madctl(r Rotation, rgb bool) byte {
	var v byte
	switch r & 3 {
	case Rotate0:
		v = madctlMX
	case Rotate90:
		v = madctlMV
	case Rotate180:
		v = madctlMY
	case Rotate270:
		v = madctlMX | madctlMY | madctlMV
	}
	if !rgb {
		v |= madctlBGR
	}
	return v
}
