// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package massistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultPollInterval is how often Poll fetches the player state.
const DefaultPollInterval = time.Second

// resubscribeAfter is how long Watch polls before retrying the event stream.
var resubscribeAfter = 30 * time.Second

// Poll fetches the player state every interval until ctx is done and calls fn
// each time it differs from the previously delivered state. The first state
// is fetched immediately.
//
// Fetch errors are logged and polling continues. It returns ctx.Err().
func (c *Client) Poll(ctx context.Context, interval time.Duration, fn func(PlayerState)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	var last PlayerState
	delivered := false
	for {
		s, err := c.PlayerState(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Printf("player state: %v", err)
		} else if !delivered || s != last {
			last, delivered = s, true
			fn(s)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

type event struct {
	Event    string          `json:"event"`
	ObjectID string          `json:"object_id"`
	Data     json.RawMessage `json:"data"`
}

// Subscribe listens to the server websocket and calls fn for every update of
// the player. It blocks until ctx is done or the connection fails.
func (c *Client) Subscribe(ctx context.Context, fn func(PlayerState)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.ws, nil)
	if err != nil {
		return fmt.Errorf("massistant: dial %s: %w", c.ws, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("massistant: event stream: %w", err)
		}
		if ev.Event != "player_updated" || ev.ObjectID != c.playerID {
			continue
		}
		var p playerPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.log.Printf("player_updated: %v", err)
			continue
		}
		fn(p.state(c.playerID))
	}
}

// Watch delivers player state updates to fn until ctx is done.
//
// With events enabled it uses the websocket stream and falls back to polling
// at interval while the stream is unavailable, retrying it periodically.
// Without events it only polls.
func (c *Client) Watch(ctx context.Context, events bool, interval time.Duration, fn func(PlayerState)) error {
	if !events {
		return c.Poll(ctx, interval, fn)
	}
	for {
		// Subscribers only see changes, start from a known state.
		if s, err := c.PlayerState(ctx); err == nil {
			fn(s)
		}
		err := c.Subscribe(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Printf("%v; polling for %s", err, resubscribeAfter)
		pctx, cancel := context.WithTimeout(ctx, resubscribeAfter)
		err = c.Poll(pctx, interval, fn)
		cancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
}
