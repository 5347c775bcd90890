// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// nanopod runs the player: a round GC9A01 panel with a rotary encoder
// controlling one Music Assistant player.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nanopod/player/config"
	"github.com/nanopod/player/coverart"
	"github.com/nanopod/player/displaytest"
	"github.com/nanopod/player/ledring"
	"github.com/nanopod/player/massistant"
	"github.com/nanopod/player/mirror"
	"github.com/nanopod/player/rotary"
	"github.com/nanopod/player/ui"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/display"
	"periph.io/x/host/v3"
)

// playlistRetry is the delay between attempts to load the playlists while the
// server is unreachable.
const playlistRetry = 5 * time.Second

func mainImpl() error {
	path := flag.String("config", "nanopod.yaml", "configuration file")
	verbose := flag.Bool("v", false, "trace input events")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	log.SetFlags(log.Lmicroseconds)
	debug := log.New(io.Discard, "input: ", log.Lmicroseconds)
	if *verbose {
		debug.SetOutput(os.Stderr)
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// Display first, the UI needs its bounds.
	panel, err := openDisplay(&cfg.Display)
	if err != nil {
		return err
	}
	defer panel.Close()
	var d display.Drawer = panel.dev
	if cfg.Mirror != nil {
		m, err := startMirror(ctx, g, cfg.Mirror, d)
		if err != nil {
			return err
		}
		d = mirror.Tee(d, m)
	}

	var events chan rotary.Event
	if cfg.Input != nil {
		events = make(chan rotary.Event, 16)
		if err := startInput(ctx, g, cfg.Input, cfg.UI.LongPress, events); err != nil {
			return err
		}
	}

	if cfg.DisplayTest != nil {
		g.Go(func() error {
			return displaytest.Run(ctx, d, events, log.New(os.Stderr, "displaytest: ", log.Lmicroseconds))
		})
		return wait(g, d)
	}

	api := massistant.New(cfg.API.Host, cfg.API.Port, cfg.API.PlayerID,
		massistant.WithTimeout(cfg.API.Timeout),
		massistant.WithLogger(log.New(os.Stderr, "massistant: ", log.Lmicroseconds)))
	covers, err := coverart.New(nil, strings.TrimSuffix(api.BaseURL(), "/api"), ui.CoverLarge)
	if err != nil {
		return err
	}
	opts := ui.Opts{
		LongPress: cfg.UI.LongPress,
		FrameRate: cfg.UI.FrameRate,
		Covers:    covers,
		Logger:    log.New(os.Stderr, "ui: ", log.Lmicroseconds),
	}
	if cfg.UI.LEDsID != "" {
		if cfg.LEDs.Console {
			ring := ledring.New(ledring.NewConsole(cfg.LEDs.Count))
			defer ring.Halt()
			opts.LEDs = ring
		} else {
			log.Printf("%s: no LED output configured, set console to true", cfg.LEDs.ID)
		}
	}
	u := ui.New(d, api, &opts)
	log.Printf("%s on %s for %s", u, d, api)

	g.Go(func() error {
		return u.Run(ctx)
	})
	if events != nil {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-events:
					debug.Print(ev)
					forward(u, ev)
				}
			}
		})
	}
	// The API starts last, once the UI is ready to receive its data.
	g.Go(func() error {
		for {
			err := api.LoadPlaylists(ctx, u.SetPlaylists)
			if err == nil || ctx.Err() != nil {
				return nil
			}
			log.Printf("playlists: %v; retrying in %s", err, playlistRetry)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(playlistRetry):
			}
		}
	})
	g.Go(func() error {
		err := api.Watch(ctx, cfg.API.Events, cfg.API.PollInterval, u.UpdatePlayerState)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	return wait(g, d)
}

// forward translates decoded input into UI events.
func forward(u *ui.UI, ev rotary.Event) {
	switch ev.Kind {
	case rotary.Rotate:
		u.OnRotate(ev.Dir)
	case rotary.Press:
		u.Input(ui.ButtonPress)
	case rotary.Release:
		u.Input(ui.ButtonRelease)
	case rotary.Click:
		u.Input(ui.Click)
	case rotary.DoubleClick:
		u.Input(ui.DoubleClick)
	}
}

// wait returns the first failure of the group and blanks the display.
func wait(g *errgroup.Group, d display.Drawer) error {
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if herr := d.Halt(); err == nil {
		err = herr
	}
	return err
}

func startMirror(ctx context.Context, g *errgroup.Group, cfg *config.Mirror, d display.Drawer) (*mirror.Mirror, error) {
	opts := mirror.Options{Round: true}
	if cfg.Format != "" {
		f, err := mirror.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}
	b := d.Bounds()
	m := mirror.New(b.Dx(), b.Dy(), &opts)
	s := &http.Server{Addr: cfg.Listen, Handler: m}
	g.Go(func() error {
		<-ctx.Done()
		m.Halt()
		return s.Close()
	})
	g.Go(func() error {
		log.Printf("mirror on http://%s/", cfg.Listen)
		if err := s.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("mirror: %w", err)
		}
		return nil
	})
	return m, nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "nanopod: %s.\n", err)
		os.Exit(1)
	}
}
