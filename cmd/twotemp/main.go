package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/twotemp/internal/analysis"
	"github.com/san-kum/twotemp/internal/automation"
	"github.com/san-kum/twotemp/internal/config"
	"github.com/san-kum/twotemp/internal/experiment"
	"github.com/san-kum/twotemp/internal/export"
	"github.com/san-kum/twotemp/internal/optim"
	"github.com/san-kum/twotemp/internal/storage"
	"github.com/san-kum/twotemp/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	logger     = slog.New(slog.NewTextHandler(io.Discard, nil))

	// case overrides
	mechanism   string
	park        bool
	ttr         float64
	tv          float64
	pressure    float64
	rho         float64
	dt          float64
	steps       int
	integrator  string
	substeps    int
	resync      bool
	recordEvery int

	// output
	outFile   string
	precision int
	progress  int

	// live view
	stepsPerFrame int

	// sweep
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepN     int
	workers    int

	// tune
	grids      []string
	tuneMetric string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "twotemp",
		Short:         "two-temperature thermal relaxation lab",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".twotemp", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "case file (yaml), replaces the preset")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a heat-bath case and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCase,
	}
	addCaseFlags(runCmd)
	runCmd.Flags().IntVar(&progress, "progress", 0, "report progress to stderr this many times per run (0 disables)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot temperatures and energies of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize a run and fit its relaxation time",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportDatCmd := &cobra.Command{
		Use:   "export-dat [run_id]",
		Short: "export run data as a whitespace .dat table",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDat,
	}
	exportDatCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportDatCmd.Flags().IntVar(&precision, "precision", storage.DatPrecision, "significant digits")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "plot Ttr and Tv of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in cases",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every case of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a preset over a range of initial temperatures",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addCaseFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "ttr", "initial temperature to vary (ttr or tv)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 6000, "first value [K]")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 15000, "last value [K]")
	sweepCmd.Flags().IntVar(&sweepN, "n", 4, "number of points")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "watch a case relax in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addCaseFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "speed", 10, "flow steps per frame")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid-search case parameters for the smallest metric value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneCase,
	}
	addCaseFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grids, "grid", nil, "parameter grid name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "equilibration", "metric to minimize")
	tuneCmd.MarkFlagRequired("grid")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportDatCmd, exportSVGCmd,
		presetsCmd, scenarioCmd, sweepCmd, tuneCmd, liveCmd, newInvertCmd(), newEvCmd())
	return rootCmd
}

func addCaseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&mechanism, "mechanism", config.DefaultMechanism, "species set (air5, air2, n2)")
	f.BoolVar(&park, "park", false, "Park high-temperature correction")
	f.Float64Var(&ttr, "ttr", config.DefaultTtr, "initial translational temperature [K]")
	f.Float64Var(&tv, "tv", config.DefaultTv, "initial vibrational temperature [K]")
	f.Float64Var(&pressure, "pressure", config.DefaultPressure, "initial pressure [Pa]")
	f.Float64Var(&rho, "rho", 0, "density [kg/m3], overrides pressure")
	f.Float64Var(&dt, "dt", config.DefaultDt, "flow time step [s]")
	f.IntVar(&steps, "steps", config.DefaultSteps, "flow steps")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "euler or subcycle")
	f.IntVar(&substeps, "substeps", 1, "substeps per flow step (subcycle)")
	f.BoolVar(&resync, "resync", true, "recompute temperatures after each step (euler)")
	f.IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "keep every n-th sample")
}

// resolveConfig applies, in order, the preset named by args (heatbath by
// default), the --config file and every flag set on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	name := "heatbath"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %s)", name, strings.Join(config.ListPresets(), ", "))
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mechanism") {
		cfg.Mechanism = mechanism
	}
	if flags.Changed("park") {
		cfg.Park = park
	}
	if flags.Changed("ttr") {
		cfg.Ttr = ttr
	}
	if flags.Changed("tv") {
		cfg.Tv = tv
	}
	if flags.Changed("pressure") {
		cfg.Pressure = pressure
	}
	if flags.Changed("rho") {
		cfg.Rho = rho
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("resync") {
		cfg.Resync = resync
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runCase(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if progress > 0 {
		exp.GetSimulator().AddObserver(newProgressObserver(cmd.ErrOrStderr(), cfg.Steps, progress))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s (%s, %s)...\n", exp.Setup().Case.Name, cfg.Mechanism, exp.Setup().Integrator.Name())
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Record(result))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d\n", result.StepsTaken)
	fmt.Fprintf(out, "final: Ttr=%.2f K Tv=%.2f K\n", result.Final.Ttr, result.Final.Tv)
	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(out, "  %s: %.6g\n", name, result.Metrics[name])
	}

	diag := exp.Setup().Mixture.Diagnostics()
	if len(diag.SkippedSpecies) > 0 {
		fmt.Fprintf(out, "\nskipped vib species: %s\n", strings.Join(diag.SkippedSpecies, ", "))
	}
	if diag.TvUnconverged+diag.TtrUnconverged > 0 {
		fmt.Fprintf(out, "\nunconverged inversions: tv=%d ttr=%d\n", diag.TvUnconverged, diag.TtrUnconverged)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCASE\tTIME\tMECH\tINTEG\tSTEPS\tTTR\tTV")
	for _, run := range runs {
		mech := ""
		if run.Config != nil {
			mech = run.Config.Mechanism
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.1f\t%.1f\n",
			run.ID,
			run.Case,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			mech,
			run.Integrator,
			run.StepsTaken,
			run.Final.Ttr,
			run.Final.Tv,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "case: %s\n", meta.Case)
	fmt.Fprintf(out, "samples: %d\n\n", len(samples))

	n := len(samples)
	ttrs, tvs := make([]float64, n), make([]float64, n)
	ets, evs := make([]float64, n), make([]float64, n)
	for i, s := range samples {
		ttrs[i], tvs[i] = s.State.Ttr, s.State.Tv
		ets[i], evs[i] = s.State.Et, s.State.Ev
	}

	fmt.Fprintln(out, asciigraph.PlotMany([][]float64{ttrs, tvs},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption("Ttr (red) / Tv (blue) [K]"),
	))
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.PlotMany([][]float64{ets, evs},
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption("Et (red) / Ev (blue) [J/m3]"),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "analysis: %s\n\n", runID)
	fmt.Fprint(out, analysis.Summarize(samples).String())

	fit, err := analysis.FitRelaxation(samples, experiment.RelaxationMinGap)
	if err != nil {
		fmt.Fprintf(out, "relaxation: %v\n", err)
	} else {
		fmt.Fprintf(out, "relaxation: tau=%.4e s (r2=%.4f, %d points)\n", fit.Tau, fit.RSquared, fit.Points)
	}

	fmt.Fprintln(out, "\nTv vs Ttr:")
	fmt.Fprintln(out, analysis.PortraitToASCII(analysis.TemperaturePortrait(samples), 60, 20))
	return nil
}

func outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tab, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(w, meta, tab); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportDat(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tab, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if err := storage.WriteDat(w, tab, precision); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	svg := export.TemperatureSVG(samples, 800, 400)
	if svg == "" {
		return fmt.Errorf("not enough samples to plot")
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, svg); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMECH\tTTR\tTV\tP [Pa]\tDT\tSTEPS\tINTEG")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		integ := p.Integrator
		if integ == "subcycle" {
			integ = fmt.Sprintf("subcycle/%d", p.Substeps)
		}
		mech := p.Mechanism
		if p.Park {
			mech += "+park"
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%.0f\t%.0e\t%d\t%s\n",
			name, mech, p.Ttr, p.Tv, p.Pressure, p.Dt, p.Steps, integ)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := &automation.Runner{
		Store:   st,
		Options: []experiment.Option{experiment.WithLogger(logger)},
		Logger:  logger,
	}
	results, err := runner.RunScenario(ctx, sc)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tTTR\tTV\tDRIFT")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2e\n",
			r.Name, r.RunID, r.Result.Final.Ttr, r.Result.Final.Tv, r.Result.Metrics["energy_balance"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := &automation.Runner{
		Options: []experiment.Option{experiment.WithLogger(logger)},
		Logger:  logger,
	}
	results, err := runner.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepN,
		Workers:   workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL TTR\tFINAL TV\tTAU [s]\tDRIFT\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.1f\t%.2f\t%.2f\t%.3e\t%.2e\n",
			r.ParamValue, r.FinalState.Ttr, r.FinalState.Tv, r.Tau, r.Drift)
	}
	return w.Flush()
}

func tuneCase(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grids))
	ranges := make([][]float64, 0, len(grids))
	for _, spec := range grids {
		name, values, err := optim.ParseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, all, err := optim.NewGridSearch(names, ranges).Search(ctx, cfg, tuneMetric, experiment.WithLogger(logger))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, c := range all {
		vals := make([]string, len(names))
		for i, name := range names {
			vals[i] = fmt.Sprintf("%g", c.Params[name])
		}
		result := fmt.Sprintf("%.4e", c.Value)
		if c.Err != nil {
			result = "error: " + c.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(vals, "\t"), result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nbest: %v (%s=%.4e)\n", best.Params, tuneMetric, best.Value)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	setup, err := experiment.Build(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	m := viz.NewModel(setup, stepsPerFrame)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
