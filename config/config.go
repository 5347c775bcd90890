// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the device configuration from a YAML file.
//
// A configuration declares components (the API client, the display, the UI,
// and optionally the LED ring, the input and the mirror) under their own
// section. Components refer to each other by ID:
//
//	api:
//	  host: music.local
//	  player_id: nanopod
//	display:
//	  cs_pin: 8
//	  dc_pin: 25
//	  reset_pin: 27
//	ui:
//	  display_id: display
//	  api_id: api
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nanopod/player/mirror"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

// Config is the whole device configuration.
type Config struct {
	API     API     `yaml:"api"`
	Display Display `yaml:"display"`
	UI      UI      `yaml:"ui"`
	LEDs    *LEDs   `yaml:"leds"`
	Input   *Input  `yaml:"input"`
	Mirror  *Mirror `yaml:"mirror"`
	// DisplayTest, when present, runs the panel diagnostic instead of the UI.
	DisplayTest *DisplayTest `yaml:"display_test"`
}

// API configures the Music Assistant client.
type API struct {
	ID       string `yaml:"id"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	PlayerID string `yaml:"player_id"`
	// PollInterval is the player state refresh period.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Events enables the websocket event stream, falling back to polling.
	Events  bool          `yaml:"events"`
	Timeout time.Duration `yaml:"timeout"`
}

// Display configures the GC9A01 panel.
type Display struct {
	ID string `yaml:"id"`
	// SPI is the port name. Empty selects the first port.
	SPI          string    `yaml:"spi"`
	CSPin        *int      `yaml:"cs_pin"`
	DCPin        *int      `yaml:"dc_pin"`
	ResetPin     *int      `yaml:"reset_pin"`
	BacklightPin *int      `yaml:"backlight_pin"`
	Speed        Frequency `yaml:"speed"`
	Invert       bool      `yaml:"invert"`
	Rotation     int       `yaml:"rotation"`
}

// UI configures the screens.
type UI struct {
	ID        string        `yaml:"id"`
	DisplayID string        `yaml:"display_id"`
	APIID     string        `yaml:"api_id"`
	LEDsID    string        `yaml:"leds_id"`
	LongPress time.Duration `yaml:"long_press"`
	FrameRate int           `yaml:"frame_rate"`
}

// LEDs configures the feedback ring.
type LEDs struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
	// Console renders the ring on the terminal.
	Console bool `yaml:"console"`
}

// Input configures the rotary encoder and its push button.
type Input struct {
	APin        *int          `yaml:"a_pin"`
	BPin        *int          `yaml:"b_pin"`
	ButtonPin   *int          `yaml:"button_pin"`
	DoubleClick time.Duration `yaml:"double_click"`
	Debounce    time.Duration `yaml:"debounce"`
}

// Mirror configures the HTTP mirror of the panel.
type Mirror struct {
	Listen string `yaml:"listen"`
	// Format is "png" or "jpeg".
	Format string `yaml:"format"`
}

// DisplayTest configures the diagnostic screen.
type DisplayTest struct {
	ID string `yaml:"id"`
}

// Frequency is a physic.Frequency read from a string like "40MHz".
type Frequency physic.Frequency

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Frequency) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	var p physic.Frequency
	if err := p.Set(s); err != nil {
		return err
	}
	*f = Frequency(p)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (f Frequency) MarshalYAML() (interface{}, error) {
	return physic.Frequency(f).String(), nil
}

// Default is the configuration used for absent keys.
var Default = Config{
	API: API{
		ID:           "api",
		Port:         8095,
		PollInterval: time.Second,
		Timeout:      5 * time.Second,
	},
	Display: Display{
		ID:     "display",
		Speed:  Frequency(80 * physic.MegaHertz),
		Invert: true,
	},
	UI: UI{
		ID:        "ui",
		LongPress: 2 * time.Second,
		FrameRate: 30,
	},
}

// Section defaults, applied when the section is present.
var (
	defaultLEDs        = LEDs{ID: "leds", Count: 12}
	defaultInput       = Input{DoubleClick: 300 * time.Millisecond, Debounce: 5 * time.Millisecond}
	defaultDisplayTest = DisplayTest{ID: "display_test"}
)

const minPollInterval = 100 * time.Millisecond

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return c, nil
}

// Parse decodes and validates a configuration.
//
// Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	c := Default
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config: empty configuration")
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) setDefaults() {
	if c.LEDs != nil {
		if c.LEDs.ID == "" {
			c.LEDs.ID = defaultLEDs.ID
		}
		if c.LEDs.Count == 0 {
			c.LEDs.Count = defaultLEDs.Count
		}
	}
	if c.Input != nil {
		if c.Input.DoubleClick == 0 {
			c.Input.DoubleClick = defaultInput.DoubleClick
		}
		if c.Input.Debounce == 0 {
			c.Input.Debounce = defaultInput.Debounce
		}
	}
	if c.DisplayTest != nil && c.DisplayTest.ID == "" {
		c.DisplayTest.ID = defaultDisplayTest.ID
	}
}

// FieldError is a validation failure of one key.
type FieldError struct {
	// Path is the dotted key path, e.g. "api.host".
	Path string
	Msg  string
}

func (e *FieldError) Error() string {
	return "config: " + e.Path + ": " + e.Msg
}

// Validate checks required keys, ranges and references between components.
//
// All failures are reported, joined in a single error.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, format string, args ...interface{}) {
		errs = append(errs, &FieldError{Path: path, Msg: fmt.Sprintf(format, args...)})
	}

	if c.API.Host == "" {
		fail("api.host", "required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		fail("api.port", "%d is not in 1..65535", c.API.Port)
	}
	if c.API.PlayerID == "" {
		fail("api.player_id", "required")
	}
	if c.API.PollInterval < minPollInterval {
		fail("api.poll_interval", "%s is below %s", c.API.PollInterval, minPollInterval)
	}
	if c.API.Timeout <= 0 {
		fail("api.timeout", "must be positive")
	}

	checkPin(fail, "display.cs_pin", c.Display.CSPin, true)
	checkPin(fail, "display.dc_pin", c.Display.DCPin, true)
	checkPin(fail, "display.reset_pin", c.Display.ResetPin, true)
	checkPin(fail, "display.backlight_pin", c.Display.BacklightPin, false)
	if c.Display.Speed <= 0 {
		fail("display.speed", "must be positive")
	}
	if c.Display.Rotation < 0 || c.Display.Rotation > 3 {
		fail("display.rotation", "%d is not in 0..3", c.Display.Rotation)
	}

	if c.UI.LongPress <= 0 {
		fail("ui.long_press", "must be positive")
	}
	if c.UI.FrameRate < 1 || c.UI.FrameRate > 60 {
		fail("ui.frame_rate", "%d is not in 1..60", c.UI.FrameRate)
	}

	if c.LEDs != nil && c.LEDs.Count < 1 {
		fail("leds.count", "must be positive")
	}
	if c.Input != nil {
		checkPin(fail, "input.a_pin", c.Input.APin, true)
		checkPin(fail, "input.b_pin", c.Input.BPin, true)
		checkPin(fail, "input.button_pin", c.Input.ButtonPin, true)
		if c.Input.DoubleClick < 0 {
			fail("input.double_click", "must not be negative")
		}
		if c.Input.Debounce < 0 {
			fail("input.debounce", "must not be negative")
		}
	}
	if c.Mirror != nil {
		if c.Mirror.Listen == "" {
			fail("mirror.listen", "required")
		}
		if c.Mirror.Format != "" {
			if _, err := mirror.ParseFormat(c.Mirror.Format); err != nil {
				fail("mirror.format", "%v", err)
			}
		}
	}

	// IDs and references.
	kinds := map[string]string{}
	declare := func(path, id, kind string) {
		if id == "" {
			fail(path, "required")
			return
		}
		if prev, ok := kinds[id]; ok {
			fail(path, "duplicate id %q, already used by %s", id, prev)
			return
		}
		kinds[id] = kind
	}
	declare("api.id", c.API.ID, "api")
	declare("display.id", c.Display.ID, "display")
	declare("ui.id", c.UI.ID, "ui")
	if c.LEDs != nil {
		declare("leds.id", c.LEDs.ID, "leds")
	}
	if c.DisplayTest != nil {
		declare("display_test.id", c.DisplayTest.ID, "display_test")
	}
	ref := func(path, id, kind string, required bool) {
		if id == "" {
			if required {
				fail(path, "required")
			}
			return
		}
		got, ok := kinds[id]
		if !ok {
			fail(path, "%q names no declared component", id)
			return
		}
		if got != kind {
			fail(path, "%q is a %s, not a %s", id, got, kind)
		}
	}
	ref("ui.display_id", c.UI.DisplayID, "display", true)
	ref("ui.api_id", c.UI.APIID, "api", true)
	ref("ui.leds_id", c.UI.LEDsID, "leds", false)

	return errors.Join(errs...)
}

func checkPin(fail func(string, string, ...interface{}), path string, p *int, required bool) {
	if p == nil {
		if required {
			fail(path, "required")
		}
		return
	}
	if *p < 0 {
		fail(path, "%d is not a GPIO number", *p)
	}
}

// PinName returns the periph pin name of GPIO number n.
func PinName(n int) string {
	return fmt.Sprintf("GPIO%d", n)
}
