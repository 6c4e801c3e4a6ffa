// Package export renders run histories for use outside the terminal.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/twotemp/internal/dynamo"
)

const (
	TtrColor = "#ff5f87"
	TvColor  = "#5fafff"
)

// TemperatureSVG plots Ttr and Tv against time on shared axes. Fewer than two
// samples give an empty string.
func TemperatureSVG(samples []dynamo.Sample, width, height int) string {
	if len(samples) < 2 {
		return ""
	}

	minX, maxX := samples[0].Time, samples[0].Time
	minY, maxY := samples[0].State.Ttr, samples[0].State.Ttr
	for _, s := range samples {
		minX = min(minX, s.Time)
		maxX = max(maxX, s.Time)
		minY = min(minY, s.State.Ttr, s.State.Tv)
		maxY = max(maxY, s.State.Ttr, s.State.Tv)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	lo, hi := minY, maxY
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	project := func(t, T float64) (float64, float64) {
		x := (t - minX) / rangeX * float64(width)
		y := float64(height) - (T-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	writePath(&sb, "ttr", TtrColor, samples, func(s dynamo.Sample) (float64, float64) {
		return project(s.Time, s.State.Ttr)
	})
	writePath(&sb, "tv", TvColor, samples, func(s dynamo.Sample) (float64, float64) {
		return project(s.Time, s.State.Tv)
	})

	fmt.Fprintf(&sb, `<text x="8" y="16" fill="#888899" font-family="monospace" font-size="12">%.0f..%.0f K over %.3g s</text>
</svg>`, lo, hi, rangeX)
	return sb.String()
}

func writePath(sb *strings.Builder, id, color string, samples []dynamo.Sample, xy func(dynamo.Sample) (float64, float64)) {
	fmt.Fprintf(sb, `<path id="%s" fill="none" stroke="%s" stroke-width="1.5" d="M`, id, color)
	for i, s := range samples {
		x, y := xy(s)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}
