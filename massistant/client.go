// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package massistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the Music Assistant server default port.
const DefaultPort = 8095

// DefaultTimeout bounds every HTTP request made by a Client.
const DefaultTimeout = 5 * time.Second

// StatusError is returned when the server answers with an unexpected HTTP
// status code.
type StatusError struct {
	Method   string
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("massistant: %s %s failed: code %d", e.Method, e.Endpoint, e.Code)
}

// Client talks to one Music Assistant server on behalf of one player.
//
// A Client is safe for concurrent use.
type Client struct {
	base     string
	ws       string
	playerID string
	hc       *http.Client
	log      *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.hc = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger used for background operations.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithBaseURL points the client at a server root URL such as
// "http://127.0.0.1:8095" instead of building it from host and port.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.setRoot(strings.TrimSuffix(u, "/"))
	}
}

// New returns a Client for the player playerID of the server at host:port.
func New(host string, port int, playerID string, opts ...Option) *Client {
	c := &Client{
		playerID: playerID,
		hc:       &http.Client{Timeout: DefaultTimeout},
		log:      log.New(os.Stderr, "massistant: ", log.LstdFlags),
	}
	c.setRoot("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) setRoot(root string) {
	c.base = root + "/api"
	c.ws = "ws" + strings.TrimPrefix(root, "http") + "/ws"
}

func (c *Client) String() string {
	return fmt.Sprintf("massistant.Client{%s, %s}", c.base, c.playerID)
}

// BaseURL returns the API root, for example "http://host:8095/api".
func (c *Client) BaseURL() string {
	return c.base
}

// PlayerID returns the controlled player.
func (c *Client) PlayerID() string {
	return c.playerID
}

func (c *Client) get(ctx context.Context, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("massistant: GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: http.MethodGet, Endpoint: endpoint, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("massistant: GET %s: decoding response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("massistant: POST %s: %w", endpoint, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &StatusError{Method: http.MethodPost, Endpoint: endpoint, Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) playerEndpoint(verb string) string {
	e := "/players/" + url.PathEscape(c.playerID)
	if verb != "" {
		e += "/" + verb
	}
	return e
}

// Playlists returns the library playlists.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var items []playlistItem
	if err := c.get(ctx, "/library/playlists", &items); err != nil {
		return nil, err
	}
	out := make([]Playlist, 0, len(items))
	for i := range items {
		out = append(out, items[i].playlist())
	}
	return out, nil
}

// PlaylistTracks returns the tracks of the playlist id, in playlist order.
func (c *Client) PlaylistTracks(ctx context.Context, id string) ([]Track, error) {
	var items []trackItem
	if err := c.get(ctx, "/library/playlists/"+url.PathEscape(id)+"/tracks", &items); err != nil {
		return nil, err
	}
	out := make([]Track, 0, len(items))
	for i := range items {
		out = append(out, items[i].track())
	}
	return out, nil
}

// PlayMedia starts playback of uri on the player.
func (c *Client) PlayMedia(ctx context.Context, uri string) error {
	var body struct {
		Media struct {
			URI string `json:"uri"`
		} `json:"media"`
	}
	body.Media.URI = uri
	return c.post(ctx, c.playerEndpoint("play_media"), &body)
}

// Play resumes playback.
func (c *Client) Play(ctx context.Context) error {
	return c.post(ctx, c.playerEndpoint("play"), nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.post(ctx, c.playerEndpoint("pause"), nil)
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, c.playerEndpoint("stop"), nil)
}

// SetVolume sets the player volume, clamped to 0..100.
func (c *Client) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}
	body := struct {
		VolumeLevel int `json:"volume_level"`
	}{volume}
	return c.post(ctx, c.playerEndpoint("volume_set"), &body)
}

// PlayerState returns the current state of the player.
func (c *Client) PlayerState(ctx context.Context) (PlayerState, error) {
	var p playerPayload
	if err := c.get(ctx, c.playerEndpoint(""), &p); err != nil {
		return PlayerState{PlayerID: c.playerID}, err
	}
	return p.state(c.playerID), nil
}

// LoadPlaylists fetches the playlists and hands them to fn.
func (c *Client) LoadPlaylists(ctx context.Context, fn func([]Playlist)) error {
	p, err := c.Playlists(ctx)
	if err != nil {
		return err
	}
	c.log.Printf("loaded %d playlists", len(p))
	fn(p)
	return nil
}

// LoadPlaylistTracks fetches the tracks of playlist id and hands them to fn.
func (c *Client) LoadPlaylistTracks(ctx context.Context, id string, fn func([]Track)) error {
	t, err := c.PlaylistTracks(ctx, id)
	if err != nil {
		return err
	}
	c.log.Printf("loaded %d tracks", len(t))
	fn(t)
	return nil
}
