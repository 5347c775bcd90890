// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ui

import "fmt"

// Screen identifies one of the UI screens.
type Screen int

// Screens, in navigation order.
const (
	Home Screen = iota
	Series
	Player
)

func (s Screen) String() string {
	switch s {
	case Home:
		return "Home"
	case Series:
		return "Series"
	case Player:
		return "Player"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// InputEvent is a user input gesture.
type InputEvent int

// Input events.
const (
	RotateCW InputEvent = iota
	RotateCCW
	Click
	DoubleClick
	LongPress
	ButtonPress
	ButtonRelease
)

const inputName = "RotateCWRotateCCWClickDoubleClickLongPressButtonPressButtonRelease"

var inputIndex = [...]uint8{0, 8, 17, 22, 33, 42, 53, 66}

func (e InputEvent) String() string {
	if e < 0 || int(e) >= len(inputIndex)-1 {
		return fmt.Sprintf("InputEvent(%d)", int(e))
	}
	return inputName[inputIndex[e]:inputIndex[e+1]]
}
