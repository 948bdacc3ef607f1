package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{"                 _                        _   ", "#818cf8"},
	{"   __ _ _   _  | |_ ___  _ __ ___   __ _| |_ ", "#a78bfa"},
	{"  / _` | | | | | __/ _ \\| '_ ` _ \\ / _` | __|", "#c084fc"},
	{" | (_| | |_| | | || (_) | | | | | | (_| | |_ ", "#e879f9"},
	{"  \\__,_|\\__,_|  \\__\\___/|_| |_| |_|\\__,_|\\__|", "#f472b6"},
}

// PrintBanner writes the automat banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w)
}
