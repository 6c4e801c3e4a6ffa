package export

import (
	"strings"
	"testing"

	"github.com/san-kum/twotemp/internal/dynamo"
)

func TestTemperatureSVG(t *testing.T) {
	samples := []dynamo.Sample{
		{Time: 0, State: dynamo.State{Ttr: 12000, Tv: 2000}},
		{Time: 1e-6, State: dynamo.State{Ttr: 10000, Tv: 7000}},
		{Time: 2e-6, State: dynamo.State{Ttr: 9300, Tv: 9200}},
	}
	svg := TemperatureSVG(samples, 200, 100)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an SVG document:\n%s", svg)
	}
	for _, want := range []string{`id="ttr"`, `id="tv"`, TtrColor, TvColor, "2000..12000 K"} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %q", want)
		}
	}
	// Ttr starts at the top of the padded range, Tv at the bottom.
	if !strings.Contains(svg, `d="M0.0,8.3`) || !strings.Contains(svg, `d="M0.0,91.7`) {
		t.Errorf("unexpected start points:\n%s", svg)
	}
	if strings.Count(svg, " L") != 4 {
		t.Errorf("expected 4 line segments, got %d", strings.Count(svg, " L"))
	}
}

func TestTemperatureSVGTooShort(t *testing.T) {
	if TemperatureSVG(nil, 10, 10) != "" {
		t.Error("expected empty output without samples")
	}
	one := []dynamo.Sample{{State: dynamo.State{Ttr: 1, Tv: 1}}}
	if TemperatureSVG(one, 10, 10) != "" {
		t.Error("expected empty output for one sample")
	}
}
