package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Arbor ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Greens fading into bark brown.
	lines := []struct {
		text  string
		color string
	}{
		{"     _         _                ", "#4ade80"},
		{"    / \\   _ __| |__   ___  _ __ ", "#22c55e"},
		{"   / _ \\ | '__| '_ \\ / _ \\| '__|", "#16a34a"},
		{"  / ___ \\| |  | |_) | (_) | |   ", "#a16207"},
		{" /_/   \\_\\_|  |_.__/ \\___/|_|   ", "#854d0e"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
