package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/thermo"
)

// ErrNotFound indicates an unknown run ID.
var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the directory of a run.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Case        string             `json:"case"`
	Timestamp   time.Time          `json:"timestamp"`
	Config      *config.Config     `json:"config"`
	Integrator  string             `json:"integrator"`
	Species     []string           `json:"species"`
	Y           []float64          `json:"mass_fractions"`
	Rho         float64            `json:"rho"`
	StepsTaken  int                `json:"steps_taken"`
	Final       dynamo.State       `json:"final"`
	Metrics     map[string]float64 `json:"metrics"`
	Diagnostics thermo.Diagnostics `json:"diagnostics"`
}

// Run is everything Save persists for one heat-bath case.
type Run struct {
	Config      *config.Config
	Integrator  string
	Table       Table
	Result      *dynamo.Result
	Diagnostics thermo.Diagnostics
}

// Save writes metadata.json and states.csv under a new run directory and
// returns the run ID.
func (s *Store) Save(run Run) (string, error) {
	name := run.Result.Case
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Case:        name,
		Timestamp:   s.now(),
		Config:      run.Config,
		Integrator:  run.Integrator,
		Species:     run.Table.Species,
		Y:           run.Table.Y,
		Rho:         run.Table.Rho,
		StepsTaken:  run.Result.StepsTaken,
		Final:       run.Result.Final,
		Metrics:     finiteMetrics(run.Result.Metrics),
		Diagnostics: run.Diagnostics,
	}
	if !meta.Final.IsValid() {
		meta.Final = dynamo.State{}
	}

	if err := writeJSONFile(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, run.Table); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadTable reads back the recorded samples of a run together with the
// species and composition from its metadata.
func (s *Store) LoadTable(runID string) (Table, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return Table{}, err
	}

	file, err := os.Open(filepath.Join(s.Dir(runID), "states.csv"))
	if err != nil {
		return Table{}, err
	}
	defer file.Close()

	samples, err := ReadCSV(file)
	if err != nil {
		return Table{}, fmt.Errorf("storage: %s states: %w", runID, err)
	}
	return Table{Species: meta.Species, Rho: meta.Rho, Y: meta.Y, Samples: samples}, nil
}

// LoadSamples is LoadTable without the composition.
func (s *Store) LoadSamples(runID string) ([]dynamo.Sample, error) {
	tab, err := s.LoadTable(runID)
	return tab.Samples, err
}

// ReadCSV parses a states.csv stream. Columns are located by header name.
func ReadCSV(r io.Reader) ([]dynamo.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return []dynamo.Sample{}, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[h] = i
	}
	for _, h := range stateColumns {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		vals := make([]float64, len(stateColumns))
		ok := true
		for k, h := range stateColumns {
			i := col[h]
			if i >= len(record) {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
			vals[k] = v
		}
		if !ok {
			continue
		}
		samples = append(samples, dynamo.Sample{
			Time:     vals[0],
			State:    dynamo.State{Ttr: vals[1], Tv: vals[2], Et: vals[3], Ev: vals[4]},
			Pressure: vals[5],
		})
	}
	return samples, nil
}

// JSON cannot carry NaN or Inf; such metrics are left out.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
