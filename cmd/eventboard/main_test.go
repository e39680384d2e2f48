package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventboard/internal/board"
	"eventboard/internal/config"
	"eventboard/internal/lifecycle"
	"eventboard/internal/render"
	"eventboard/internal/source"
	"eventboard/internal/web"
)

func TestLocalURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8080": "http://127.0.0.1:8080",
		":8080":          "http://127.0.0.1:8080",
		"0.0.0.0:9000":   "http://127.0.0.1:9000",
		"[::]:9000":      "http://127.0.0.1:9000",
		"example.org:80": "http://example.org:80",
		"not-an-address": "http://not-an-address",
	}
	for in, want := range tests {
		assert.Equal(t, want, localURL(in), in)
	}
}

func TestRunOnce_PrintsRenderedIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	doc := `{"events":[{"name":"Town Hall","start":"2099-01-01T18:00:00","location":"Civic Centre"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	pages, err := web.Pages()
	require.NoError(t, err)

	b := board.New(board.Options{
		Loader:   source.NewLoader(source.Options{Source: path}),
		Renderer: &render.Renderer{Normalizer: lifecycle.Normalizer{Location: time.UTC}},
		Pages:    pages,
	})

	var out bytes.Buffer
	require.NoError(t, runOnce(context.Background(), b, &out))

	html := out.String()
	assert.Contains(t, html, "Town Hall")
	assert.Contains(t, html, "Civic Centre")
	assert.Contains(t, html, render.EmptyPastMessage)
	assert.Contains(t, html, `data-ready="true"`)
	assert.Equal(t, 0, b.Scheduler().Active())
}

func TestPrintBanner(t *testing.T) {
	conf := config.DefaultConfig()
	var out bytes.Buffer
	printBanner(&out, conf)

	assert.Contains(t, out.String(), "EVENTBOARD")
	assert.Contains(t, out.String(), "http://"+config.DefaultListen)
	assert.Contains(t, out.String(), "off")
}
