package render

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/dcosson/tmuxcore/internal/term"
)

// sgrFragment returns the SGR parameter string for fg/bg (without the
// leading/trailing "\x1b[" "m"), downgrading RGB/indexed colors to match
// the client's color profile (spec §4.5: "Indexed colors 0-7 use 30/40;
// 8-15 use 90/100; 16-255 use 38;5/48;5; RGB uses 38;2/48;2").
func sgrFragment(c term.Color, background bool, profile termenv.Profile) string {
	switch c.Kind {
	case term.ColorDefault:
		if background {
			return "49"
		}
		return "39"
	case term.ColorIndexed:
		return indexedFragment(c.Index(), background, profile)
	case term.ColorRGB:
		r, g, b := c.RGBValues()
		if profile == termenv.TrueColor {
			if background {
				return fmt.Sprintf("48;2;%d;%d;%d", r, g, b)
			}
			return fmt.Sprintf("38;2;%d;%d;%d", r, g, b)
		}
		idx := nearestIndexed(r, g, b, profile)
		return indexedFragment(idx, background, profile)
	default:
		if background {
			return "49"
		}
		return "39"
	}
}

func indexedFragment(idx uint8, background bool, profile termenv.Profile) string {
	if profile == termenv.Ascii {
		if background {
			return "49"
		}
		return "39"
	}
	if profile == termenv.ANSI && idx >= 16 {
		idx = downgradeTo16(idx)
	}
	switch {
	case idx < 8:
		if background {
			return fmt.Sprintf("%d", 40+idx)
		}
		return fmt.Sprintf("%d", 30+idx)
	case idx < 16:
		if background {
			return fmt.Sprintf("%d", 100+(idx-8))
		}
		return fmt.Sprintf("%d", 90+(idx-8))
	default:
		if background {
			return fmt.Sprintf("48;5;%d", idx)
		}
		return fmt.Sprintf("38;5;%d", idx)
	}
}

// nearestIndexed finds the closest 256-palette entry to an RGB triple by
// CIE76 distance in Lab space, used when a client's profile can't render
// true color.
func nearestIndexed(r, g, b uint8, profile termenv.Profile) uint8 {
	target := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	limit := 256
	if profile == termenv.ANSI {
		limit = 16
	}
	best := uint8(0)
	bestDist := -1.0
	for i := 0; i < limit; i++ {
		pr, pg, pb := term.Indexed(uint8(i)).ToRGB(true)
		candidate := colorful.Color{R: float64(pr) / 255, G: float64(pg) / 255, B: float64(pb) / 255}
		d := target.DistanceCIE76(candidate)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = uint8(i)
		}
	}
	return best
}

// downgradeTo16 maps any 256-palette index down to the nearest of the 16
// basic ANSI colors, for clients whose profile is plain ANSI.
func downgradeTo16(idx uint8) uint8 {
	r, g, b := term.Indexed(idx).ToRGB(true)
	return nearestIndexed(r, g, b, termenv.ANSI)
}
