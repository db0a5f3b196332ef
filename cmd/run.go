package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

var (
	// CLI flags for a headless comparison. Unset flags fall back to the
	// configured defaults.
	runAdvantage    string  // Advantage solver name
	runAdvantage2   string  // Advantage2 solver name
	runDistribution string  // Weight distribution
	runPrecision    float64 // Weight precision
	runSeed         int64   // Problem seed
	runBiases       bool    // Draw random biases
	runAnnealType   string  // Anneal protocol
	runAnnealTime   float64 // Anneal time in microseconds
	runFormat       string  // Output format
)

// runCmd runs one comparison and prints the report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one comparison without the UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runConfigFromFlags(cmd, appConfig.Defaults.RunConfig())
		switch runFormat {
		case "text", "yaml", "json":
		default:
			return fmt.Errorf("unknown --format %q; valid: text, yaml, json", runFormat)
		}

		b, err := newBackend(appConfig)
		if err != nil {
			return err
		}
		defer b.Close()

		res, err := b.runner.Run(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), newReport(res), runFormat)
	},
}

func init() {
	bindRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.StringVar(&runAdvantage, "advantage", "", "Advantage solver (default from defaults.advantage)")
	fs.StringVar(&runAdvantage2, "advantage2", "", "Advantage2 solver (default from defaults.advantage2)")
	fs.StringVar(&runDistribution, "distribution", "", "Weight distribution: uniform or power-law")
	fs.Float64Var(&runPrecision, "precision", 0, "Weight precision, 1 to 1024")
	fs.Int64Var(&runSeed, "seed", 0, "Problem seed (default random)")
	fs.BoolVar(&runBiases, "biases", false, "Draw random biases as well as couplings")
	fs.StringVar(&runAnnealType, "anneal-type", "", "Anneal protocol: standard or fast")
	fs.Float64Var(&runAnnealTime, "anneal-time", 0, "Anneal time in microseconds")
	fs.StringVar(&runFormat, "format", "text", "Output format: text, yaml or json")
}

// runConfigFromFlags overlays the flags the user set on defaults.
func runConfigFromFlags(cmd *cobra.Command, defaults compare.RunConfig) compare.RunConfig {
	cfg := defaults
	flags := cmd.Flags()
	if flags.Changed("advantage") {
		cfg.Advantage = runAdvantage
	}
	if flags.Changed("advantage2") {
		cfg.Advantage2 = runAdvantage2
	}
	if flags.Changed("distribution") {
		cfg.Weights.Distribution = spinglass.Distribution(runDistribution)
	}
	if flags.Changed("precision") {
		cfg.Weights.Precision = runPrecision
	}
	if flags.Changed("seed") {
		seed := runSeed
		cfg.Weights.Seed = &seed
	}
	if flags.Changed("biases") {
		cfg.Weights.Biases = runBiases
	}
	if flags.Changed("anneal-type") {
		cfg.Anneal.Type = spinglass.AnnealType(runAnnealType)
	}
	if flags.Changed("anneal-time") {
		cfg.Anneal.Time = runAnnealTime
	}
	return cfg
}

// report is the printable part of a result; samples are left out.
type report struct {
	Problem    spinglass.ProblemSummary `json:"problem" yaml:"problem"`
	Systems    []systemReport           `json:"systems" yaml:"systems"`
	BestEnergy float64                  `json:"best_energy" yaml:"best_energy"`
	KSDistance float64                  `json:"ks_distance" yaml:"ks_distance"`
	Yields     []topology.Yield         `json:"yields" yaml:"yields"`
	Elapsed    string                   `json:"elapsed" yaml:"elapsed"`
}

type systemReport struct {
	Solver    string             `json:"solver" yaml:"solver"`
	Placement string             `json:"placement" yaml:"placement"`
	ProblemID string             `json:"problem_id,omitempty" yaml:"problem_id,omitempty"`
	Summary   spinglass.Summary  `json:"summary" yaml:"summary"`
	Timing    map[string]float64 `json:"timing,omitempty" yaml:"timing,omitempty"`
}

func newReport(res *compare.Result) report {
	cmp := res.Comparison
	r := report{
		Problem:    cmp.Problem,
		BestEnergy: cmp.BestEnergy,
		KSDistance: cmp.KSDistance,
		Yields:     res.Yields,
		Elapsed:    res.Elapsed.Round(time.Millisecond).String(),
	}
	for _, s := range cmp.Systems {
		sr := systemReport{Solver: s.Solver, Placement: s.Placement, Summary: s.Summary}
		if s.Samples != nil {
			sr.ProblemID = s.Samples.ProblemID
			sr.Timing = s.Samples.Timing
		}
		r.Systems = append(r.Systems, sr)
	}
	return r
}

func writeReport(w io.Writer, r report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Problem: seed %d, %s weights, precision %g, %d qubits, %d couplers\n",
		r.Problem.Seed, r.Problem.Distribution, r.Problem.Precision, r.Problem.Qubits, r.Problem.Couplers)
	fmt.Fprintf(w, "Anneal:  %s, %g µs\n\n", r.Problem.Anneal.Type, r.Problem.Anneal.Time)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOLVER\tREADS\tMIN\tMEDIAN\tMEAN\tSTDDEV\tAT BEST")
	for _, s := range r.Systems {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f%%\n", s.Solver, s.Summary.NumReads,
			s.Summary.Min, s.Summary.Median, s.Summary.Mean, s.Summary.StdDev, 100*s.Summary.GroundFraction)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nBest energy %.2f, KS distance %.3f, elapsed %s\n", r.BestEnergy, r.KSDistance, r.Elapsed)
	return err
}
