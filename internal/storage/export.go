package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/twotemp/internal/dynamo"
)

// DatPrecision matches the default stream precision of the reference .dat
// writer.
const DatPrecision = 6

var stateColumns = []string{"t", "Ttr", "Tv", "Et", "Ev", "p"}

// Table is a sample series with the fixed density and composition it was
// computed at.
type Table struct {
	Species []string
	Rho     float64
	Y       []float64
	Samples []dynamo.Sample
}

func (t Table) partialDensity(s int) float64 {
	if s < len(t.Y) {
		return t.Rho * t.Y[s]
	}
	return 0
}

// WriteCSV writes t,Ttr,Tv,Et,Ev,p,rho_<species>... with full precision.
func WriteCSV(w io.Writer, tab Table) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), stateColumns...)
	for _, name := range tab.Species {
		header = append(header, "rho_"+name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, smp := range tab.Samples {
		row = row[:0]
		for _, v := range sampleValues(smp) {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for s := range tab.Species {
			row = append(row, strconv.FormatFloat(tab.partialDensity(s), 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDat writes the whitespace separated heat-bath table:
//
//	# t[s] Ttr[K] Tv[K] Et[J/m3] Ev[J/m3] p[Pa] rho_N2 ...
//
// precision is the number of significant digits; non-positive means
// DatPrecision.
func WriteDat(w io.Writer, tab Table, precision int) error {
	if precision <= 0 {
		precision = DatPrecision
	}
	bw := bufio.NewWriter(w)

	bw.WriteString("# t[s] Ttr[K] Tv[K] Et[J/m3] Ev[J/m3] p[Pa]")
	for _, name := range tab.Species {
		bw.WriteString(" rho_" + name)
	}
	bw.WriteString("\n")

	fields := make([]string, 0, len(stateColumns)+len(tab.Species))
	for _, smp := range tab.Samples {
		fields = fields[:0]
		for _, v := range sampleValues(smp) {
			fields = append(fields, formatDat(v, precision))
		}
		for s := range tab.Species {
			fields = append(fields, formatDat(tab.partialDensity(s), precision))
		}
		bw.WriteString(strings.Join(fields, " "))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func formatDat(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', precision, 64)
}

func sampleValues(s dynamo.Sample) [6]float64 {
	return [6]float64{s.Time, s.State.Ttr, s.State.Tv, s.State.Et, s.State.Ev, s.Pressure}
}

type ExportData struct {
	Meta    *RunMetadata `json:"meta,omitempty"`
	Species []string     `json:"species"`
	Rho     float64      `json:"rho"`
	Y       []float64    `json:"mass_fractions"`
	Times   []float64    `json:"times"`
	Ttr     []float64    `json:"ttr"`
	Tv      []float64    `json:"tv"`
	Et      []float64    `json:"et"`
	Ev      []float64    `json:"ev"`
	P       []float64    `json:"p"`
}

func newExportData(meta *RunMetadata, tab Table) ExportData {
	n := len(tab.Samples)
	data := ExportData{
		Meta:    meta,
		Species: tab.Species,
		Rho:     tab.Rho,
		Y:       tab.Y,
		Times:   make([]float64, n),
		Ttr:     make([]float64, n),
		Tv:      make([]float64, n),
		Et:      make([]float64, n),
		Ev:      make([]float64, n),
		P:       make([]float64, n),
	}
	for i, s := range tab.Samples {
		data.Times[i] = s.Time
		data.Ttr[i] = s.State.Ttr
		data.Tv[i] = s.State.Tv
		data.Et[i] = s.State.Et
		data.Ev[i] = s.State.Ev
		data.P[i] = s.Pressure
	}
	return data
}

// WriteJSON writes the run as column arrays.
func WriteJSON(w io.Writer, meta *RunMetadata, tab Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newExportData(meta, tab))
}

func ExportJSON(path string, meta *RunMetadata, tab Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, tab)
}

func ExportDat(path string, tab Table, precision int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteDat(file, tab, precision)
}
