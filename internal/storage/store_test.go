package storage

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/thermo"
)

func sampleTable() Table {
	return Table{
		Species: []string{"N2", "O2"},
		Rho:     0.5,
		Y:       []float64{0.75, 0.25},
		Samples: []dynamo.Sample{
			{Time: 0, State: dynamo.State{Ttr: 12000, Tv: 2000, Et: 1234567.891, Ev: 238752.22692616333}, Pressure: 101325},
			{Time: 1e-8, State: dynamo.State{Ttr: 11999.5, Tv: 2000.25, Et: 1234000.5, Ev: 239320.125}, Pressure: 101320.75},
		},
	}
}

func sampleRun(tab Table) Run {
	return Run{
		Config:     config.DefaultConfig(),
		Integrator: "euler",
		Table:      tab,
		Result: &dynamo.Result{
			Case:       "heatbath",
			Samples:    tab.Samples,
			Final:      tab.Samples[len(tab.Samples)-1].State,
			StepsTaken: 1,
			Metrics: map[string]float64{
				"energy_balance": 1e-15,
				"relaxation_tau": math.Inf(1),
				"broken":         math.NaN(),
			},
		},
		Diagnostics: thermo.Diagnostics{Steps: 1},
	}
}

func TestWriteDatGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDat(&buf, sampleTable(), 0))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "heatbath_dat", buf.Bytes())
}

func TestWriteDatPrecision(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDat(&buf, sampleTable(), 10))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "1234567.891")
	assert.Contains(t, lines[1], "238752.2269")
}

func TestFormatDatNonFinite(t *testing.T) {
	assert.Equal(t, "nan", formatDat(math.NaN(), 6))
	assert.Equal(t, "inf", formatDat(math.Inf(1), 6))
	assert.Equal(t, "-inf", formatDat(math.Inf(-1), 6))
}

func TestCSVRoundTrip(t *testing.T) {
	tab := sampleTable()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tab))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "t,Ttr,Tv,Et,Ev,p,rho_N2,rho_O2", header)

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, tab.Samples, got)
}

func TestReadCSVColumnOrder(t *testing.T) {
	in := "p,Tv,Ttr,t,Ev,Et\n101325,2000,12000,0,5,7\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dynamo.State{Ttr: 12000, Tv: 2000, Et: 7, Ev: 5}, got[0].State)
	assert.Equal(t, 101325.0, got[0].Pressure)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("t,Ttr,Tv\n0,1,2\n"))
	assert.Error(t, err)
}

func TestReadCSVSkipsBadRows(t *testing.T) {
	in := "t,Ttr,Tv,Et,Ev,p\n0,1,2,3,4,5\nx,1,2,3,4,5\n1,1,2\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStoreSaveLoad(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	tab := sampleTable()
	id, err := s.Save(sampleRun(tab))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "heatbath_"))
	assert.Len(t, id, len("heatbath_")+8)

	meta, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "heatbath", meta.Case)
	assert.Equal(t, "euler", meta.Integrator)
	assert.Equal(t, []string{"N2", "O2"}, meta.Species)
	assert.Equal(t, 1, meta.Diagnostics.Steps)
	assert.Equal(t, config.DefaultMechanism, meta.Config.Mechanism)
	assert.Equal(t, map[string]float64{"energy_balance": 1e-15}, meta.Metrics)

	loaded, err := s.LoadTable(id)
	require.NoError(t, err)
	assert.Equal(t, tab.Samples, loaded.Samples)
	assert.Equal(t, tab.Y, loaded.Y)
	assert.Equal(t, tab.Rho, loaded.Rho)

	_, err = os.Stat(filepath.Join(s.Dir(id), "states.csv"))
	assert.NoError(t, err)
}

func TestStoreLoadMissing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadSamples("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListNewestFirst(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		id, err := s.Save(sampleRun(sampleTable()))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, os.Mkdir(filepath.Join(s.baseDir, "junk"), 0755))

	runs, err := s.List()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)
}

func TestStoreListMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveDropsNonFiniteFinal(t *testing.T) {
	s := New(t.TempDir())
	run := sampleRun(sampleTable())
	run.Result.Final = dynamo.State{Ttr: math.NaN()}

	id, err := s.Save(run)
	require.NoError(t, err)
	meta, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, dynamo.State{}, meta.Final)
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportJSON(path, nil, sampleTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ttr": [`)
	assert.Contains(t, string(data), `"species": [`)
	assert.NotContains(t, string(data), `"meta"`)
}
