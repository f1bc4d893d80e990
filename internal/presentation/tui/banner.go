package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the arbor ASCII banner.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text, color string
	}{
		{"                 _               ", "#34d399"},
		{"   __ _ _ __ ___| |__   ___  _ __", "#10b981"},
		{"  / _` | '__/ __| '_ \\ / _ \\| '__|", "#059669"},
		{" | (_| | | | (__| |_) | (_) | |  ", "#047857"},
		{"  \\__,_|_|  \\___|_.__/ \\___/|_|  ", "#065f46"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
