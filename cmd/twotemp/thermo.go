package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/twotemp/internal/experiment"
	"github.com/san-kum/twotemp/internal/thermo"
)

var (
	energy float64
	seed   float64
)

func newEvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ev [preset]",
		Short: "evaluate the vibrational energy at --tv for a case's density and composition",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evaluateEv,
	}
	addCaseFlags(cmd)
	return cmd
}

func newInvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invert",
		Short: "recover a temperature from an energy density",
	}

	tvCmd := &cobra.Command{
		Use:   "tv [preset]",
		Short: "vibrational temperature from --energy (Ev, J/m3)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  invertTv,
	}
	ttrCmd := &cobra.Command{
		Use:   "ttr [preset]",
		Short: "translational temperature from --energy (Et, J/m3) at fixed --tv",
		Args:  cobra.MaximumNArgs(1),
		RunE:  invertTtr,
	}
	for _, c := range []*cobra.Command{tvCmd, ttrCmd} {
		addCaseFlags(c)
		c.Flags().Float64Var(&energy, "energy", 0, "target energy density [J/m3]")
		c.Flags().Float64Var(&seed, "seed", 3000, "initial temperature guess [K]")
		c.MarkFlagRequired("energy")
	}

	cmd.AddCommand(tvCmd, ttrCmd)
	return cmd
}

func buildSetup(cmd *cobra.Command, args []string) (*experiment.Setup, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	return experiment.Build(cfg, experiment.WithLogger(logger))
}

func evaluateEv(cmd *cobra.Command, args []string) error {
	s, err := buildSetup(cmd, args)
	if err != nil {
		return err
	}
	mix, c := s.Mixture, s.Case
	T := s.Config.Tv

	out := cmd.OutOrStdout()
	ev := mix.EvFromTv(T, c.Rho, c.Y)
	fmt.Fprintf(out, "Tv:  %.6g K\n", T)
	fmt.Fprintf(out, "rho: %.6g kg/m3\n", c.Rho)
	fmt.Fprintf(out, "Ev:  %.6g J/m3 (%.6g J/kg)\n", ev, ev/c.Rho)

	for _, r := range mix.VibRecords() {
		e := c.Y[r.Index] * thermo.SpecificVibEnergy(r.ThetaV, r.MolarMass, T)
		fmt.Fprintf(out, "  %-4s Y=%.4f  %.6g J/kg\n", mix.SpeciesName(r.Index), c.Y[r.Index], e)
	}
	if skipped := mix.Diagnostics().SkippedSpecies; len(skipped) > 0 {
		fmt.Fprintf(out, "skipped: %v\n", skipped)
	}
	return nil
}

func invertTv(cmd *cobra.Command, args []string) error {
	s, err := buildSetup(cmd, args)
	if err != nil {
		return err
	}
	c := s.Case

	sol := s.Mixture.InvertTvResult(energy, c.Rho, c.Y, seed)
	printSolution(cmd, "Tv", sol)
	return nil
}

func invertTtr(cmd *cobra.Command, args []string) error {
	s, err := buildSetup(cmd, args)
	if err != nil {
		return err
	}
	c := s.Case

	sol := s.Mixture.InvertTtrResult(energy, c.Rho, c.Y, s.Config.Tv, seed)
	printSolution(cmd, "Ttr", sol)
	return nil
}

func printSolution(cmd *cobra.Command, name string, sol thermo.Solution) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %.6f K\n", name, sol.T)
	fmt.Fprintf(out, "iterations: %d\n", sol.Iterations)
	fmt.Fprintf(out, "residual: %.3e J/m3\n", sol.Residual)
	fmt.Fprintf(out, "converged: %v\n", sol.Converged)
	if name == "Ttr" {
		fmt.Fprintf(out, "bracketed: %v\n", sol.Bracketed)
	}
}
