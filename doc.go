// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package player is a container for the NanoPod packages.
//
// NanoPod is a small music player remote: a 240x240 round GC9A01 panel and
// a rotary encoder with a push button browse the playlists of a Music
// Assistant server and control one of its players.
//
// The device binary is cmd/nanopod. cmd/displaytest checks the panel and the
// encoder wiring.
package player
