// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package massistant is a client for the Music Assistant server API.
//
// It covers what a small playback remote needs: browsing library playlists
// and their tracks, starting playback of a media URI and controlling one
// player (play, pause, stop, volume). Player state is obtained either by
// polling the REST API or by listening to the server websocket event stream.
//
// The REST API lives under http://host:port/api, 8095 being the server's
// default port.
package massistant
