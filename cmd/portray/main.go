package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"portray/internal/config"
	"portray/internal/flow"
	"portray/internal/render"
	"portray/internal/term"
	"portray/internal/trace"
)

var version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string

	// trace flags
	eventsPath  string
	opsPath     string
	clausesPath string
	format      string
	maxDepth    int
	noColor     bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "portray",
	Short: "portray - rebuild a call tree from a 4-port execution trace",
	Long: `portray reconstructs what a logic interpreter did from its event log.

Given an ordered log of enter/exit/retry/fail events it rebuilds the
hierarchical call tree and a chronologically numbered step list, recovers
variable bindings by structural unification of goal terms, and explains how
each value was progressively constructed across recursive calls.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// traceCmd rebuilds and renders one trace run
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Rebuild the call tree from an event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrace()
	},
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the portray version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("portray %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "portray.yaml", "config file path")

	traceCmd.Flags().StringVar(&eventsPath, "events", "", "event log file (JSON Lines), - for stdin")
	traceCmd.Flags().StringVar(&opsPath, "ops", "", "operator table YAML file")
	traceCmd.Flags().StringVar(&clausesPath, "clauses", "", "clause table YAML file")
	traceCmd.Flags().StringVar(&format, "format", "ascii", "output format: ascii, json, facts")
	traceCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override the configured depth limit")
	traceCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	_ = traceCmd.MarkFlagRequired("events")

	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(versionCmd)
}

func runTrace() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if maxDepth > 0 {
		cfg.Trace.MaxDepth = maxDepth
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opsPath == "" {
		opsPath = cfg.Trace.OperatorsFile
	}
	if clausesPath == "" {
		clausesPath = cfg.Trace.ClausesFile
	}

	ops, err := term.LoadOperatorsFile(opsPath)
	if err != nil {
		return err
	}
	clauses, err := trace.LoadClausesFile(clausesPath)
	if err != nil {
		return err
	}

	in := os.Stdin
	if eventsPath != "-" {
		f, err := os.Open(eventsPath)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer f.Close()
		in = f
	}
	events, err := trace.ReadEvents(in, logger)
	if err != nil {
		return err
	}
	logger.Debug("event log read", zap.Int("events", len(events)))

	builder := trace.NewBuilder(trace.Options{
		Operators:    ops,
		Clauses:      clauses,
		MaxDepth:     cfg.Trace.MaxDepth,
		MaxSteps:     cfg.Trace.MaxSteps,
		AllSolutions: !cfg.Trace.FirstSolutionOnly,
		Logger:       logger,
	})
	tl := builder.Build(events)
	report := flow.Annotate(tl)
	logger.Info("timeline reconstructed",
		zap.String("run_id", tl.RunID),
		zap.Int("steps", len(tl.Steps)),
		zap.Bool("truncated", tl.Truncated))

	switch format {
	case "ascii":
		styles := render.DefaultStyles()
		if noColor {
			styles = render.Styles{}
		}
		fmt.Print(render.ASCII(tl, styles))
		if report.QueryVariable != "" {
			fmt.Printf("\n%s is built progressively:\n", report.QueryVariable)
			for _, v := range report.Views {
				fmt.Printf("  after step %d: %s = %s\n", v.AfterStep, report.QueryVariable, v.Rendered)
			}
		}
	case "json":
		out, err := render.JSON(tl)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "facts":
		store, err := render.MaterializeFacts(tl)
		if err != nil {
			return err
		}
		for _, fact := range render.FactListing(store) {
			fmt.Println(fact)
		}
	default:
		return fmt.Errorf("unknown format %q (want ascii, json or facts)", format)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
