package analysis

import (
	"strings"

	"github.com/san-kum/twotemp/internal/dynamo"
)

type Point struct{ X, Y float64 }

// Portrait is the trajectory of a run in the (Ttr, Tv) plane.
type Portrait struct {
	Points []Point
}

// TemperaturePortrait extracts (Ttr, Tv) pairs from the samples.
func TemperaturePortrait(samples []dynamo.Sample) *Portrait {
	p := &Portrait{Points: make([]Point, 0, len(samples))}
	for _, s := range samples {
		p.Points = append(p.Points, Point{X: s.State.Ttr, Y: s.State.Tv})
	}
	return p
}

// PortraitToASCII renders the trajectory with Ttr across and Tv up. The
// equilibrium line Ttr = Tv is drawn where it crosses the canvas.
func PortraitToASCII(portrait *Portrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minV, maxV := portrait.Points[0].X, portrait.Points[0].X
	for _, p := range portrait.Points {
		for _, v := range [...]float64{p.X, p.Y} {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}

	// Both axes share one scale so the diagonal stays a diagonal.
	span := maxV - minV
	if span == 0 {
		span = 1
	}
	minV -= span * 0.05
	maxV += span * 0.05
	span = maxV - minV

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	toCol := func(v float64) int { return int((v - minV) / span * float64(width-1)) }
	toRow := func(v float64) int { return height - 1 - int((v-minV)/span*float64(height-1)) }

	for col := 0; col < width; col++ {
		v := minV + float64(col)/float64(width-1)*span
		row := toRow(v)
		if row >= 0 && row < height {
			canvas[row][col] = '·'
		}
	}

	for _, p := range portrait.Points {
		col, row := toCol(p.X), toRow(p.Y)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
