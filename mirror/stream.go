// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mirror

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/textproto"
	"strconv"
)

type client struct {
	refresh chan struct{}
	done    chan struct{}
}

func newClient() *client {
	return &client{refresh: make(chan struct{}, 1), done: make(chan struct{}, 1)}
}

func (c *client) notify() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func (c *client) stop() {
	select {
	case c.done <- struct{}{}:
	default:
	}
}

// frame returns the framebuffer encoded as f, cached until the next Draw.
func (m *Mirror) frame(f Format) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.encoded[f]; ok {
		return b, nil
	}
	b, err := encode(m.buffer, f, m.opts.JPEGQuality)
	if err != nil {
		return nil, err
	}
	m.encoded[f] = b
	return b, nil
}

// ServeHTTP streams the framebuffer to GET requests.
func (m *Mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f := m.opts.Format
	q := r.URL.Query()
	if s := q.Get("format"); s != "" {
		var err error
		if f, err = ParseFormat(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if q.Get("once") != "" {
		b, err := m.frame(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", f.mimeType())
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		_, _ = w.Write(b)
		return
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": pw.boundary}))
	c := newClient()
	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
	}()

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", f.mimeType())
	for {
		b, err := m.frame(f)
		if err != nil {
			log.Printf("mirror: encoding %s: %v", f, err)
			return
		}
		// Write errors mean the client went away.
		if err := pw.writePart(h, b); err != nil {
			return
		}
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// partWriter writes an endless MIME multipart body. mime/multipart.Writer
// only emits a part's closing boundary when the next part starts, which
// delays every frame by one.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
}

func newPartWriter(w io.Writer) *partWriter {
	var b [30]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return &partWriter{w: w, boundary: fmt.Sprintf("%x", b[:])}
}

func (p *partWriter) writePart(h textproto.MIMEHeader, body []byte) error {
	h.Set("Content-Length", strconv.Itoa(len(body)))
	var buf bytes.Buffer
	if !p.started {
		fmt.Fprintf(&buf, "--%s\r\n", p.boundary)
		p.started = true
	}
	for k, vs := range h {
		for _, v := range vs {
			fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
		}
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", p.boundary)
	_, err := buf.WriteTo(p.w)
	return err
}
