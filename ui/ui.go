// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ui implements the round screen user interface of the player.
//
// Three screens are navigated with a rotary encoder: Home browses the
// playlists, Series lists the tracks of a playlist and Player controls
// playback. A single goroutine, Run, owns the UI state. Input events and
// server data are posted to it and it renders frames to a display.Drawer.
package ui

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"
	"time"

	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/display"

	"github.com/nanopod/player/ledring"
	"github.com/nanopod/player/massistant"
)

// Backend is the player control API used by the UI.
type Backend interface {
	PlaylistTracks(ctx context.Context, id string) ([]massistant.Track, error)
	PlayMedia(ctx context.Context, uri string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	SetVolume(ctx context.Context, volume int) error
}

// Covers fetches artwork scaled to size x size pixels.
type Covers interface {
	FetchSize(ctx context.Context, url string, size int) (image.Image, error)
}

// LEDs is an optional feedback ring.
type LEDs interface {
	SetMode(m ledring.Mode, value int)
	Render(now time.Time) error
}

// Opts configures the UI.
type Opts struct {
	// LongPress is how long the button must be held for a LongPress.
	LongPress time.Duration
	// FrameRate is the number of ticks per second.
	FrameRate int
	Covers    Covers
	LEDs      LEDs
	Logger    *log.Logger
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{
	LongPress: 2 * time.Second,
	FrameRate: 30,
}

// How long the ring shows the volume after a change, and an API error.
const (
	volumeLEDTime = 1500 * time.Millisecond
	errorLEDTime  = 3 * time.Second
)

type artKey struct {
	url  string
	size int
}

type transition struct {
	from    Screen
	forward bool
	start   time.Time
}

// UI is the user interface controller.
type UI struct {
	d    display.Drawer
	api  Backend
	opts Opts
	log  *log.Logger

	queue chan func()
	done  chan struct{}
	ctx   context.Context
	// dispatch runs f on the UI goroutine and async runs f in the
	// background. Both are replaced by tests.
	dispatch func(f func())
	async    func(f func())
	now      func() time.Time

	// Owned by the UI goroutine.
	current    Screen
	previous   Screen
	trans      transition
	home       homeScreen
	series     seriesScreen
	player     playerScreen
	playlist   int
	track      int
	loading    string
	pressed    bool
	pressedAt  time.Time
	art        map[artKey]image.Image
	artPending map[artKey]bool
	ledMode    ledring.Mode
	ledValue   int
	ledUntil   time.Time
	dirty      bool

	canvas [2]*gg.Context
	frame  *image.RGBA
}

// New returns a UI rendering on d and controlling playback through api.
func New(d display.Drawer, api Backend, opts *Opts) *UI {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.LongPress <= 0 {
		o.LongPress = DefaultOpts.LongPress
	}
	if o.FrameRate <= 0 {
		o.FrameRate = DefaultOpts.FrameRate
	}
	l := o.Logger
	if l == nil {
		l = log.New(os.Stderr, "ui: ", log.LstdFlags)
	}
	b := d.Bounds()
	u := &UI{
		d:          d,
		api:        api,
		opts:       o,
		log:        l,
		queue:      make(chan func(), 16),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		now:        time.Now,
		player:     newPlayerScreen(),
		art:        map[artKey]image.Image{},
		artPending: map[artKey]bool{},
		dirty:      true,
		frame:      image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())),
	}
	u.canvas[0] = gg.NewContext(b.Dx(), b.Dy())
	u.canvas[1] = gg.NewContext(b.Dx(), b.Dy())
	u.series.setTitle("")
	u.dispatch = u.post
	u.async = func(f func()) { go f() }
	return u
}

func (u *UI) String() string {
	return fmt.Sprintf("ui.UI{%s}", u.d)
}

func (u *UI) post(f func()) {
	select {
	case u.queue <- f:
	case <-u.done:
	}
}

// Run owns the UI until ctx is done. It handles posted events, checks for
// long presses and renders frames. It returns ctx.Err().
func (u *UI) Run(ctx context.Context) error {
	u.ctx = ctx
	defer close(u.done)
	t := time.NewTicker(time.Second / time.Duration(u.opts.FrameRate))
	defer t.Stop()
	u.log.Printf("running at %d fps", u.opts.FrameRate)
	u.frameTick(u.now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-u.queue:
			f()
		case <-t.C:
			u.frameTick(u.now())
		}
	}
}

func (u *UI) frameTick(now time.Time) {
	u.tick(now)
	if u.needsFrame(now) {
		if err := u.render(now); err != nil {
			u.log.Printf("draw: %v", err)
		}
	}
	if u.opts.LEDs != nil {
		if err := u.opts.LEDs.Render(now); err != nil {
			u.log.Printf("leds: %v", err)
		}
	}
}

// Input posts a user input event.
func (u *UI) Input(ev InputEvent) {
	u.dispatch(func() { u.handle(ev, u.now()) })
}

// OnRotate posts one rotation step, clockwise when direction is positive.
func (u *UI) OnRotate(direction int) {
	if direction > 0 {
		u.Input(RotateCW)
	} else if direction < 0 {
		u.Input(RotateCCW)
	}
}

// NavigateTo posts a navigation to screen s.
func (u *UI) NavigateTo(s Screen) {
	u.dispatch(func() { u.navigate(s, u.now()) })
}

// GoBack posts a navigation to the previous screen.
func (u *UI) GoBack() {
	u.dispatch(func() { u.navigate(u.previous, u.now()) })
}

// SetPlaylists posts the playlists shown on the home screen.
func (u *UI) SetPlaylists(p []massistant.Playlist) {
	u.dispatch(func() {
		u.home.setPlaylists(p)
		u.playlist = 0
		u.dirty = true
		u.log.Printf("%d playlists", len(p))
	})
}

// SetTracks posts the tracks shown on the series screen.
func (u *UI) SetTracks(t []massistant.Track) {
	u.dispatch(func() {
		u.loading = ""
		u.series.setTracks(t)
		u.track = 0
		u.dirty = true
	})
}

// UpdatePlayerState posts a new player state.
func (u *UI) UpdatePlayerState(s massistant.PlayerState) {
	u.dispatch(func() { u.updateState(&s, u.now()) })
}

// SetLEDMode posts a LED ring mode. It does nothing without a ring.
func (u *UI) SetLEDMode(m ledring.Mode, value int) {
	u.dispatch(func() { u.setLEDMode(m, value) })
}

func (u *UI) setLEDMode(m ledring.Mode, value int) {
	u.ledMode, u.ledValue = m, value
	if u.opts.LEDs != nil {
		u.opts.LEDs.SetMode(m, value)
	}
}

// flash shows mode m on the ring for d, then returns to the playback mode.
func (u *UI) flash(m ledring.Mode, value int, d time.Duration, now time.Time) {
	u.setLEDMode(m, value)
	u.ledUntil = now.Add(d)
}

func (u *UI) handle(ev InputEvent, now time.Time) {
	switch ev {
	case RotateCW:
		u.rotate(1, now)
	case RotateCCW:
		u.rotate(-1, now)
	case Click:
		u.click(now)
	case DoubleClick:
		u.doubleClick(now)
	case LongPress:
		u.longPress(now)
	case ButtonPress:
		u.pressed = true
		u.pressedAt = now
	case ButtonRelease:
		u.pressed = false
	}
}

func (u *UI) rotate(dir int, now time.Time) {
	switch u.current {
	case Home:
		if u.home.rotate(dir, now) {
			u.playlist = u.home.index
			u.dirty = true
		}
	case Series:
		if u.series.rotate(dir, now) {
			u.track = u.series.index
			u.dirty = true
		}
	case Player:
		v := u.player.rotate(dir, now)
		u.dirty = true
		u.flash(ledring.Volume, v, volumeLEDTime, now)
		u.command("volume", func(ctx context.Context) error { return u.api.SetVolume(ctx, v) })
	}
}

func (u *UI) click(now time.Time) {
	switch u.current {
	case Home:
		p, ok := u.home.selected()
		if !ok {
			return
		}
		u.playlist = u.home.index
		u.series.reset(p.Name)
		u.navigate(Series, now)
		id := p.ID
		u.loading = id
		u.async(func() {
			t, err := u.api.PlaylistTracks(u.ctx, id)
			if err != nil {
				u.log.Printf("tracks of %s: %v", id, err)
			}
			u.dispatch(func() {
				if u.loading != id {
					return
				}
				u.loading = ""
				u.series.setTracks(t)
				u.track = 0
				u.dirty = true
				if err != nil {
					u.flash(ledring.Error, 0, errorLEDTime, u.now())
				}
			})
		})
	case Series:
		t, ok := u.series.selected()
		if !ok {
			return
		}
		u.track = u.series.index
		u.navigate(Player, now)
		uri := t.URI
		u.command("play "+uri, func(ctx context.Context) error { return u.api.PlayMedia(ctx, uri) })
	case Player:
		u.dirty = true
		if u.player.toggle() {
			u.setLEDMode(ledring.Playing, 0)
			u.command("play", u.api.Play)
		} else {
			u.setLEDMode(ledring.Paused, 0)
			u.command("pause", u.api.Pause)
		}
	}
}

func (u *UI) doubleClick(now time.Time) {
	switch u.current {
	case Series:
		u.navigate(Home, now)
	case Player:
		u.navigate(Series, now)
	}
}

func (u *UI) longPress(now time.Time) {
	if u.current != Player {
		return
	}
	u.command("stop", u.api.Stop)
	u.setLEDMode(ledring.Idle, 0)
	u.navigate(Home, now)
}

// command runs an API call in the background. Failures are logged and shown
// on the LED ring.
func (u *UI) command(name string, f func(ctx context.Context) error) {
	u.async(func() {
		if err := f(u.ctx); err != nil {
			u.log.Printf("%s: %v", name, err)
			u.dispatch(func() { u.flash(ledring.Error, 0, errorLEDTime, u.now()) })
		}
	})
}

// navigate switches to screen s with a slide animation. It does nothing when
// s is already shown.
func (u *UI) navigate(s Screen, now time.Time) {
	if s == u.current {
		return
	}
	forward := true
	switch s {
	case Home:
		forward = false
	case Series:
		forward = u.current == Home
	}
	u.log.Printf("navigate %s -> %s", u.current, s)
	u.trans = transition{from: u.current, forward: forward, start: now}
	u.previous = u.current
	u.current = s
	u.dirty = true
}

func (u *UI) updateState(s *massistant.PlayerState, now time.Time) {
	u.player.update(s, now)
	u.dirty = true
	if now.Before(u.ledUntil) {
		return
	}
	u.playbackLED()
}

// playbackLED sets the ring mode matching the player state.
func (u *UI) playbackLED() {
	switch {
	case u.player.playing:
		u.setLEDMode(ledring.Playing, 0)
	case u.player.hasTrack:
		u.setLEDMode(ledring.Paused, 0)
	default:
		u.setLEDMode(ledring.Idle, 0)
	}
}

// tick runs the time based logic: long press detection and LED timeouts.
func (u *UI) tick(now time.Time) {
	if u.pressed && now.Sub(u.pressedAt) >= u.opts.LongPress {
		u.pressed = false
		u.handle(LongPress, now)
	}
	if !u.ledUntil.IsZero() && !now.Before(u.ledUntil) {
		u.ledUntil = time.Time{}
		u.playbackLED()
	}
}

// cover returns the cached artwork for url, requesting it in the background
// when missing.
func (u *UI) cover(url string, size int) image.Image {
	k := artKey{url, size}
	if img, ok := u.art[k]; ok {
		return img
	}
	if u.opts.Covers == nil || u.artPending[k] {
		return nil
	}
	u.artPending[k] = true
	u.async(func() {
		img, err := u.opts.Covers.FetchSize(u.ctx, url, size)
		if err != nil {
			u.log.Printf("cover: %v", err)
		}
		u.dispatch(func() {
			delete(u.artPending, k)
			if img != nil {
				u.art[k] = img
				u.dirty = true
			}
		})
	})
	return nil
}

func (u *UI) needsFrame(now time.Time) bool {
	if u.dirty || progress(u.trans.start, now, AnimNormal) < 1 {
		return true
	}
	switch u.current {
	case Home:
		return u.home.animating(now)
	case Series:
		return u.series.animating(now)
	case Player:
		return u.player.scrolling(u.canvas[0])
	}
	return false
}

func (u *UI) drawScreen(dc *gg.Context, s Screen, now time.Time) {
	switch s {
	case Home:
		u.home.draw(dc, now, u.cover)
	case Series:
		u.series.draw(dc, now)
	case Player:
		u.player.draw(dc, now, u.cover)
	}
}

// Frame renders the UI at now.
func (u *UI) Frame(now time.Time) image.Image {
	u.drawScreen(u.canvas[0], u.current, now)
	p := progress(u.trans.start, now, AnimNormal)
	if p >= 1 {
		return u.canvas[0].Image()
	}
	u.drawScreen(u.canvas[1], u.trans.from, now)
	// Going forward the new screen enters from the right and pushes the old
	// one out on the left. Going back is the mirror image.
	w := u.frame.Bounds().Dx()
	x := int(float64(w) * (1 - p))
	old := x - w
	if !u.trans.forward {
		x, old = -x, w-x
	}
	blit(u.frame, u.canvas[0].Image(), x)
	blit(u.frame, u.canvas[1].Image(), old)
	return u.frame
}

// blit copies src into dst shifted horizontally by x.
func blit(dst *image.RGBA, src image.Image, x int) {
	r := dst.Bounds().Intersect(src.Bounds().Add(image.Pt(x, 0)))
	draw.Draw(dst, r, src, r.Min.Sub(image.Pt(x, 0)), draw.Src)
}

func (u *UI) render(now time.Time) error {
	img := u.Frame(now)
	u.dirty = false
	return u.d.Draw(u.d.Bounds(), img, image.Point{})
}
