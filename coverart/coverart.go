// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package coverart fetches playlist and track artwork and scales it for the
// panel.
//
// Images are center cropped to a square, resized and kept in a small LRU
// cache keyed by URL and size.
package coverart

import (
	"context"
	"errors"
	"fmt"
	"image"
	// Register the decoders used by Music Assistant artwork.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/webp"
)

// DefaultCacheSize is the number of images kept by a Fetcher.
const DefaultCacheSize = 16

// maxBody bounds the size of a downloaded image.
const maxBody = 8 << 20

// Fetcher downloads and scales artwork.
//
// It is safe for concurrent use.
type Fetcher struct {
	hc    *http.Client
	base  *url.URL
	size  int
	cache *lru.Cache[key, image.Image]
}

type key struct {
	url  string
	size int
}

// New returns a Fetcher that resolves relative URLs against base and scales
// images to size x size pixels.
//
// A nil client uses http.DefaultClient.
func New(client *http.Client, base string, size int) (*Fetcher, error) {
	if size <= 0 {
		return nil, errors.New("coverart: size must be positive")
	}
	b, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("coverart: invalid base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	c, err := lru.New[key, image.Image](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("coverart: %w", err)
	}
	return &Fetcher{hc: client, base: b, size: size, cache: c}, nil
}

// SetCacheSize changes the number of cached images. Excess entries are
// evicted.
func (f *Fetcher) SetCacheSize(n int) {
	if n < 1 {
		n = 1
	}
	f.cache.Resize(n)
}

// Len returns the number of cached images.
func (f *Fetcher) Len() int {
	return f.cache.Len()
}

// Fetch returns the image at u scaled to the Fetcher size.
func (f *Fetcher) Fetch(ctx context.Context, u string) (image.Image, error) {
	return f.FetchSize(ctx, u, f.size)
}

// FetchSize returns the image at u scaled to size x size pixels.
func (f *Fetcher) FetchSize(ctx context.Context, u string, size int) (image.Image, error) {
	if u == "" {
		return nil, errors.New("coverart: empty URL")
	}
	ref, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("coverart: invalid URL %q: %w", u, err)
	}
	abs := f.base.ResolveReference(ref).String()
	k := key{abs, size}
	if img, ok := f.cache.Get(k); ok {
		return img, nil
	}
	src, err := f.download(ctx, abs)
	if err != nil {
		return nil, err
	}
	img := imaging.Fill(src, size, size, imaging.Center, imaging.Lanczos)
	f.cache.Add(k, img)
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, u string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coverart: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coverart: GET %s: code %d", u, resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("coverart: decoding %s: %w", u, err)
	}
	return img, nil
}
