// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package massistant

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Playlist is a library playlist.
type Playlist struct {
	ID         string
	Name       string
	ImageURL   string
	TrackCount int
}

// Track is one playable item of a playlist.
type Track struct {
	ID        string
	URI       string
	Name      string
	AlbumName string
	ImageURL  string
	Duration  time.Duration
}

// DefaultVolume is assumed until the server reports the player volume.
const DefaultVolume = 50

// PlayerState is a snapshot of the controlled player.
type PlayerState struct {
	PlayerID   string
	PlayerName string
	Playing    bool
	// Volume is in the 0..100 range.
	Volume   int
	Position time.Duration
	Duration time.Duration
	Track    Track
}

// Progress returns the playback position in percent, 0 when the duration is
// unknown.
func (s *PlayerState) Progress() int {
	if s.Duration <= 0 {
		return 0
	}
	p := int(s.Position * 100 / s.Duration)
	if p > 100 {
		return 100
	}
	return p
}

// id decodes identifiers the server sends either as strings or numbers.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = id(n.String())
	return nil
}

type imageRef struct {
	URL string `json:"url"`
}

func (r *imageRef) url() string {
	if r == nil {
		return ""
	}
	return r.URL
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

type playlistItem struct {
	ItemID     id        `json:"item_id"`
	Name       string    `json:"name"`
	Image      *imageRef `json:"image"`
	TrackCount int       `json:"track_count"`
}

func (p *playlistItem) playlist() Playlist {
	return Playlist{
		ID:         string(p.ItemID),
		Name:       p.Name,
		ImageURL:   p.Image.url(),
		TrackCount: p.TrackCount,
	}
}

type trackItem struct {
	ItemID   id        `json:"item_id"`
	URI      string    `json:"uri"`
	Name     string    `json:"name"`
	Duration float64   `json:"duration"`
	Image    *imageRef `json:"image"`
	Album    *struct {
		Name string `json:"name"`
	} `json:"album"`
}

func (t *trackItem) track() Track {
	tr := Track{
		ID:       string(t.ItemID),
		URI:      t.URI,
		Name:     t.Name,
		ImageURL: t.Image.url(),
		Duration: seconds(t.Duration),
	}
	if t.Album != nil {
		tr.AlbumName = t.Album.Name
	}
	return tr
}

type mediaItem struct {
	URI      string    `json:"uri"`
	Name     string    `json:"name"`
	Duration float64   `json:"duration"`
	Image    *imageRef `json:"image"`
}

type playerPayload struct {
	PlayerID     string     `json:"player_id"`
	Name         string     `json:"name"`
	DisplayName  string     `json:"display_name"`
	State        string     `json:"state"`
	VolumeLevel  *float64   `json:"volume_level"`
	ElapsedTime  *float64   `json:"elapsed_time"`
	CurrentMedia *mediaItem `json:"current_media"`
}

func (p *playerPayload) state(playerID string) PlayerState {
	s := PlayerState{
		PlayerID:   playerID,
		PlayerName: p.DisplayName,
		Playing:    p.State == "playing",
		Volume:     DefaultVolume,
	}
	if p.VolumeLevel != nil {
		s.Volume = int(math.Round(*p.VolumeLevel))
	}
	if s.PlayerName == "" {
		s.PlayerName = p.Name
	}
	if p.ElapsedTime != nil {
		s.Position = seconds(*p.ElapsedTime)
	}
	if m := p.CurrentMedia; m != nil {
		s.Track.URI = m.URI
		s.Track.Name = m.Name
		s.Track.ImageURL = m.Image.url()
		s.Track.Duration = seconds(m.Duration)
		s.Duration = s.Track.Duration
	}
	return s
}
