package main

import (
	"fmt"
	"io"

	"github.com/san-kum/twotemp/internal/dynamo"
)

// progressObserver prints a status line every total/reports steps and on
// the last one.
type progressObserver struct {
	w     io.Writer
	total int
	every int
	step  int
}

func newProgressObserver(w io.Writer, total, reports int) *progressObserver {
	every := total / reports
	if every < 1 {
		every = 1
	}
	return &progressObserver{w: w, total: total, every: every, step: -1}
}

func (p *progressObserver) OnStep(s dynamo.Sample) {
	p.step++
	if p.step == 0 || (p.step%p.every != 0 && p.step != p.total) {
		return
	}
	fmt.Fprintf(p.w, "[%3d%%] step %d/%d t=%.3e s Ttr=%.1f K Tv=%.1f K\n",
		100*p.step/p.total, p.step, p.total, s.Time, s.State.Ttr, s.State.Tv)
}
