package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"

	"eventboard/internal/config"
)

// printBanner writes the startup banner with the effective settings.
func printBanner(w io.Writer, conf *config.Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	reload := conf.Reload
	if reload == "" {
		reload = "off"
	}
	tz := conf.Timezone
	if tz == "" {
		tz = "local"
	}

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  EVENTBOARD %s%s\n", textColor, version, banner.ColorReset)
	fmt.Fprintf(w, "%s  Community events, live%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	kvPad := 12
	kvLines := [][2]string{
		{"Listen", "http://" + conf.Listen},
		{"Source", conf.Source},
		{"Timezone", tz},
		{"Refresh", conf.RefreshInterval},
		{"Reload", reload},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)
}
