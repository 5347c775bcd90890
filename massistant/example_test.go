// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package massistant_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nanopod/player/massistant"
)

func Example() {
	c := massistant.New("music.local", massistant.DefaultPort, "kids_room")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	playlists, err := c.Playlists(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(playlists) == 0 {
		return
	}
	tracks, err := c.PlaylistTracks(ctx, playlists[0].ID)
	if err != nil {
		log.Fatal(err)
	}
	if len(tracks) != 0 {
		if err := c.PlayMedia(ctx, tracks[0].URI); err != nil {
			log.Fatal(err)
		}
	}
	_ = c.Watch(ctx, true, massistant.DefaultPollInterval, func(s massistant.PlayerState) {
		fmt.Printf("%s: %s %d%%\n", s.PlayerName, s.Track.Name, s.Progress())
	})
}
