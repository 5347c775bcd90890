// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package massistant

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type request struct {
	method string
	path   string
	body   string
}

type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []request
	routes   map[string]func(w http.ResponseWriter)
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	s := &fakeServer{routes: map[string]func(w http.ResponseWriter){}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, request{r.Method, r.URL.EscapedPath(), string(b)})
		h, ok := s.routes[r.Method+" "+r.URL.EscapedPath()]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) handle(route string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = func(w http.ResponseWriter) {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func (s *fakeServer) client(opts ...Option) *Client {
	opts = append([]Option{WithBaseURL(s.URL), WithLogger(log.New(ioutil.Discard, "", 0))}, opts...)
	return New("unused", DefaultPort, "player 1", opts...)
}

func TestNew(t *testing.T) {
	c := New("ma.local", DefaultPort, "kitchen")
	if got, want := c.BaseURL(), "http://ma.local:8095/api"; got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
	if got, want := c.ws, "ws://ma.local:8095/ws"; got != want {
		t.Errorf("websocket URL = %q, want %q", got, want)
	}
	c = New("::1", 9000, "kitchen")
	if got, want := c.BaseURL(), "http://[::1]:9000/api"; got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
}

func TestPlaylists(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/library/playlists", 200, `[
		{"item_id": "12", "name": "Bedtime", "image": {"url": "http://img/1.jpg"}},
		{"item_id": 13, "name": "Road trip", "image": null, "track_count": 4},
		{"item_id": "14", "name": "Empty"}
	]`)

	got, err := s.client().Playlists(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []Playlist{
		{ID: "12", Name: "Bedtime", ImageURL: "http://img/1.jpg"},
		{ID: "13", Name: "Road trip", TrackCount: 4},
		{ID: "14", Name: "Empty"},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Playlists() (-got +want):\n%s", diff)
	}
}

func TestPlaylistTracks(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/library/playlists/a%2Fb/tracks", 200, `[
		{"item_id": "1", "uri": "library://track/1", "name": "Chapter 1", "duration": 61,
		 "image": {"url": "/img/1"}, "album": {"name": "Book"}},
		{"item_id": "2", "uri": "library://track/2", "name": "Chapter 2", "duration": 12.5}
	]`)

	got, err := s.client().PlaylistTracks(context.Background(), "a/b")
	if err != nil {
		t.Fatal(err)
	}
	want := []Track{
		{ID: "1", URI: "library://track/1", Name: "Chapter 1", AlbumName: "Book", ImageURL: "/img/1", Duration: 61 * time.Second},
		{ID: "2", URI: "library://track/2", Name: "Chapter 2", Duration: 12500 * time.Millisecond},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("PlaylistTracks() (-got +want):\n%s", diff)
	}
}

func TestGetErrors(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/library/playlists", 500, `oops`)
	s.handle("GET /api/players/player%201", 200, `{not json`)
	c := s.client()

	_, err := c.Playlists(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 500 || se.Method != "GET" {
		t.Fatalf("Playlists() error = %v, want StatusError 500", err)
	}

	st, err := c.PlayerState(context.Background())
	if err == nil {
		t.Fatal("PlayerState() expected decode error")
	}
	if st.PlayerID != "player 1" {
		t.Errorf("PlayerState() on error should still carry the player id, got %q", st.PlayerID)
	}
}

func TestPlayerState(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/players/player%201", 200, `{
		"player_id": "player 1", "display_name": "Kids room", "state": "playing",
		"volume_level": 35, "elapsed_time": 42.4,
		"current_media": {"uri": "library://track/1", "name": "Chapter 1", "duration": 300, "image": {"url": "http://img/c.jpg"}}
	}`)

	got, err := s.client().PlayerState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := PlayerState{
		PlayerID:   "player 1",
		PlayerName: "Kids room",
		Playing:    true,
		Volume:     35,
		Position:   42400 * time.Millisecond,
		Duration:   300 * time.Second,
		Track:      Track{URI: "library://track/1", Name: "Chapter 1", ImageURL: "http://img/c.jpg", Duration: 300 * time.Second},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("PlayerState() (-got +want):\n%s", diff)
	}
	if p := got.Progress(); p != 14 {
		t.Errorf("Progress() = %d, want 14", p)
	}
}

func TestPlayerStateIdle(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/players/player%201", 200, `{"name": "Kids", "state": "idle", "volume_level": 50, "current_media": null}`)

	got, err := s.client().PlayerState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := PlayerState{PlayerID: "player 1", PlayerName: "Kids", Volume: 50}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("PlayerState() (-got +want):\n%s", diff)
	}
	if got.Progress() != 0 {
		t.Errorf("Progress() without duration = %d", got.Progress())
	}
}

func TestPlayerStateNoVolume(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/players/player%201", 200, `{"name": "Kids", "state": "paused"}`)

	got, err := s.client().PlayerState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Volume != DefaultVolume {
		t.Errorf("Volume = %d, want %d", got.Volume, DefaultVolume)
	}
}

func TestCommands(t *testing.T) {
	s := newFakeServer(t)
	for _, verb := range []string{"play_media", "play", "pause", "stop"} {
		s.handle("POST /api/players/player%201/"+verb, 200, "")
	}
	s.handle("POST /api/players/player%201/volume_set", 204, "")
	c := s.client()
	ctx := context.Background()

	for _, f := range []func() error{
		func() error { return c.PlayMedia(ctx, `library://track/"1"`) },
		func() error { return c.Play(ctx) },
		func() error { return c.Pause(ctx) },
		func() error { return c.Stop(ctx) },
		func() error { return c.SetVolume(ctx, 40) },
		func() error { return c.SetVolume(ctx, 140) },
		func() error { return c.SetVolume(ctx, -3) },
	} {
		if err := f(); err != nil {
			t.Fatal(err)
		}
	}

	want := []request{
		{"POST", "/api/players/player%201/play_media", `{"media":{"uri":"library://track/\"1\""}}`},
		{"POST", "/api/players/player%201/play", ""},
		{"POST", "/api/players/player%201/pause", ""},
		{"POST", "/api/players/player%201/stop", ""},
		{"POST", "/api/players/player%201/volume_set", `{"volume_level":40}`},
		{"POST", "/api/players/player%201/volume_set", `{"volume_level":100}`},
		{"POST", "/api/players/player%201/volume_set", `{"volume_level":0}`},
	}
	if diff := cmp.Diff(s.requests, want, cmp.AllowUnexported(request{})); diff != "" {
		t.Errorf("requests (-got +want):\n%s", diff)
	}
}

func TestPostError(t *testing.T) {
	s := newFakeServer(t)
	err := s.client().Stop(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 404 || se.Endpoint != "/players/player%201/stop" {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestLoadPlaylists(t *testing.T) {
	s := newFakeServer(t)
	s.handle("GET /api/library/playlists", 200, `[{"item_id": "1", "name": "A"}]`)
	s.handle("GET /api/library/playlists/1/tracks", 200, `[{"item_id": "t", "uri": "u", "name": "T"}]`)
	c := s.client()

	var playlists []Playlist
	if err := c.LoadPlaylists(context.Background(), func(p []Playlist) { playlists = p }); err != nil {
		t.Fatal(err)
	}
	if len(playlists) != 1 || playlists[0].Name != "A" {
		t.Errorf("LoadPlaylists() delivered %v", playlists)
	}
	var tracks []Track
	if err := c.LoadPlaylistTracks(context.Background(), "1", func(tr []Track) { tracks = tr }); err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || tracks[0].URI != "u" {
		t.Errorf("LoadPlaylistTracks() delivered %v", tracks)
	}
	called := false
	if err := c.LoadPlaylistTracks(context.Background(), "missing", func([]Track) { called = true }); err == nil || called {
		t.Errorf("LoadPlaylistTracks() on missing playlist: err=%v called=%t", err, called)
	}
}
