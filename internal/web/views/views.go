// Package views renders the HTML served by the web package. Components are
// plain templ.Component values so handlers render them the same way as
// generated templates.
package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// IndexData fills the upload page.
type IndexData struct {
	MaxFileSize     string
	Extensions      []string
	InsightsEnabled bool
}

// Stat is one labelled value in a result card.
type Stat struct {
	Label string
	Value string
}

// Result is a finished run as shown to HTMX clients.
type Result struct {
	Title       string
	Grade       string
	Stats       []Stat
	DownloadURL string
	Notes       []Stat
}

// htmlWriter stops at the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// IndexPage is the upload form for /preprocess and /analyze.
func IndexPage(d IndexData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>sheetprep</title>`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4" crossorigin="anonymous"></script>`)
		h.raw(`</head><body><main class="container">`)
		h.raw(`<h1>sheetprep</h1><p>Upload a spreadsheet to clean it and score its quality.</p>`)

		h.raw(`<form hx-post="/preprocess" hx-encoding="multipart/form-data" hx-target="#result">`)
		h.raw(`<input type="file" name="file" required accept="`)
		h.text(strings.Join(d.Extensions, ","))
		h.raw(`"> <button type="submit">Clean</button>`)
		if d.InsightsEnabled {
			h.raw(` <button type="submit" hx-post="/analyze">Clean and analyze</button>`)
		}
		h.raw(`</form><p class="hint">Accepted: `)
		h.text(strings.Join(d.Extensions, ", "))
		h.raw(` up to `)
		h.text(d.MaxFileSize)
		h.raw(`.</p><div id="result"></div></main></body></html>`)
		return h.err
	})
}

// ResultCard renders a finished run.
func ResultCard(res Result) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="result"><h2>`)
		h.text(res.Title)
		if res.Grade != "" {
			h.raw(` <span class="grade">`)
			h.text(res.Grade)
			h.raw(`</span>`)
		}
		h.raw(`</h2>`)
		writeStats(h, res.Stats)
		if res.DownloadURL != "" {
			h.raw(`<a class="download" href="`)
			h.text(res.DownloadURL)
			h.raw(`">Download cleaned workbook</a>`)
		}
		for _, n := range res.Notes {
			h.raw(`<h3>`)
			h.text(n.Label)
			h.raw(`</h3><p>`)
			h.text(n.Value)
			h.raw(`</p>`)
		}
		h.raw(`</section>`)
		return h.err
	})
}

func writeStats(h *htmlWriter, stats []Stat) {
	if len(stats) == 0 {
		return
	}
	h.raw(`<dl>`)
	for _, s := range stats {
		h.raw(`<dt>`)
		h.text(s.Label)
		h.raw(`</dt><dd>`)
		h.text(s.Value)
		h.raw(`</dd>`)
	}
	h.raw(`</dl>`)
}

// ErrorAlert is the HTMX error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="alert alert-error" role="alert"><p>`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		h.rawf(`<small>Error code: %s</small></div>`, templ.EscapeString(code))
		return h.err
	})
}
