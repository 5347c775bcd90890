// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package coverart

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func newServer(t *testing.T, hits *int32) *httptest.Server {
	red := pngBytes(t, 300, 200, color.NRGBA{255, 0, 0, 255})
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(red)
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestNew(t *testing.T) {
	if _, err := New(nil, "http://x", 0); err == nil {
		t.Fatal("New() with size 0 should fail")
	}
	if _, err := New(nil, "::bad", 10); err == nil {
		t.Fatal("New() with invalid base should fail")
	}
}

func TestFetch(t *testing.T) {
	var hits int32
	s := newServer(t, &hits)
	f, err := New(s.Client(), s.URL+"/api/", 100)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	img, err := f.Fetch(ctx, "/img/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("Fetch() bounds = %v, want 100x100", b)
	}
	r, g, bl, _ := img.At(50, 50).RGBA()
	if r>>8 < 250 || g>>8 > 5 || bl>>8 > 5 {
		t.Errorf("Fetch() center pixel = %v, want red", img.At(50, 50))
	}

	// Absolute URL to the same resource hits the cache.
	if _, err := f.Fetch(ctx, s.URL+"/img/a.png"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hit %d times, want 1", atomic.LoadInt32(&hits))
	}
	if _, err := f.FetchSize(ctx, "/img/a.png", 60); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 2 || f.Len() != 2 {
		t.Errorf("hits=%d len=%d, want 2 and 2", atomic.LoadInt32(&hits), f.Len())
	}
}

func TestFetchErrors(t *testing.T) {
	var hits int32
	s := newServer(t, &hits)
	f, err := New(s.Client(), s.URL, 10)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, u := range []string{"", "/bad", "/missing"} {
		if _, err := f.Fetch(ctx, u); err == nil {
			t.Errorf("Fetch(%q) should fail", u)
		}
	}
	if f.Len() != 0 {
		t.Errorf("failures were cached")
	}
}

func TestEviction(t *testing.T) {
	var hits int32
	s := newServer(t, &hits)
	f, err := New(s.Client(), s.URL, 8)
	if err != nil {
		t.Fatal(err)
	}
	f.SetCacheSize(2)
	ctx := context.Background()
	for _, u := range []string{"/img/1", "/img/2", "/img/1", "/img/3", "/img/1", "/img/2"} {
		if _, err := f.Fetch(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	// 1, 2, (1 cached), 3 evicts 2, (1 cached), 2 evicts 3.
	if atomic.LoadInt32(&hits) != 4 {
		t.Errorf("server hit %d times, want 4", atomic.LoadInt32(&hits))
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}

	// Shrinking keeps the most recently used image.
	f.SetCacheSize(0)
	if f.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", f.Len())
	}
	if _, err := f.Fetch(ctx, "/img/2"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 4 {
		t.Errorf("server hit %d times, want 4", atomic.LoadInt32(&hits))
	}
}
