package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/incident-sim/incident-sim/sim/harness"
	"github.com/incident-sim/incident-sim/sim/incident"
)

var (
	// shared
	logLevel   string // Log verbosity level
	configPath string // Optional YAML overriding incident.DefaultConfig

	// run
	modelToken string    // Model token (O, A, B, C)
	params     []float64 // rate1, latency base, availability, rate2
	runID      int       // Id used in the output file name
	outDir     string    // Directory for the run's CSV

	// sweep
	sweepDir     string // Output root for the results directory
	scenarioPath string // Scenario descriptor (YAML or JSON)
	matrixPath   string // Whitespace-delimited parameter matrix
	workers      int    // Worker pool size; 0 uses NumCPU-1
	chunkSize    int    // Work items per job
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "incident-sim",
	Short: "Stochastic simulator of a retrying service chain under load",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// runCmd simulates a single (model, parameters, id) triple
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and write its time series",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		summary, err := runSingle(cfg, modelToken, params, runID, outDir)
		if err != nil {
			return err
		}
		printSummary(cmd, summary)
		return nil
	},
}

// sweepCmd distributes a scenario's parameter matrix over a worker pool
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run every model of a scenario over a parameter matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		plan, result, err := harness.Sweep(ctx, harness.SweepOptions{
			ScenarioPath: scenarioPath,
			MatrixPath:   matrixPath,
			OutputRoot:   sweepDir,
			ChunkSize:    chunkSize,
			Config:       cfg,
			Primary:      harness.Options{Workers: workers},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results: %s\n", plan.OutputDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Runs: %d (%d failed), jobs lost: %d, elapsed: %v\n",
			result.Runs(), result.FailedRuns(), len(result.Lost), result.Elapsed.Round(time.Millisecond))
		return result.Err()
	},
}

func loadConfig() (incident.Config, error) {
	if configPath == "" {
		return incident.DefaultConfig(), nil
	}
	return incident.LoadConfig(configPath)
}

func runSingle(cfg incident.Config, token string, values []float64, id int, dir string) (*incident.Summary, error) {
	model, err := incident.ParseModelName(token)
	if err != nil {
		return nil, err
	}
	p, err := incident.NewParameterVector(values)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	logrus.Infof("Starting model %s run %d with rate1=%v latency=%v availability=%v rate2=%v",
		model, id, p.ArrivalRate1, p.DatabaseLatencyBase, p.DatabaseAvailability, p.ArrivalRate2)
	return incident.NewRunner(cfg).Run(model, p, id, dir)
}

func printSummary(cmd *cobra.Command, s *incident.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Simulation Summary (model %s, run %d) ===\n", s.Model, s.ID)
	fmt.Fprintf(out, "events:            %d (%d ok, %d failed, %d rejected)\n", s.Events, s.Succeeded, s.Failed, s.Rejected)
	fmt.Fprintf(out, "mean queue time:   %.3f (ok %.3f, failed %.3f)\n", s.MeanQueueTime, s.MeanQueueTimeSuccess, s.MeanQueueTimeFailed)
	fmt.Fprintf(out, "queue time switch: %.3f before, %.3f after\n", s.MeanQueueTimeBeforeSwitch, s.MeanQueueTimeAfterSwitch)
	fmt.Fprintf(out, "client latency:    %.3f (availability %.4f)\n", s.MeanClientLatency, s.MeanClientAvailability)
	fmt.Fprintf(out, "throughput:        %.4f events/tick\n", s.Throughput)
	fmt.Fprintf(out, "recovery time:     %.0f\n", s.RecoveryTime)
	fmt.Fprintf(out, "max queue size:    %.0f\n", s.MaxQueueSize)
	fmt.Fprintf(out, "database peak:     %d in flight\n", s.DatabasePeak)
	if s.OutputFile != "" {
		fmt.Fprintf(out, "output:            %s\n", s.OutputFile)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overriding the default simulation constants")

	runCmd.Flags().StringVar(&modelToken, "model", string(incident.ModelOriginal), "Model to simulate (O, A, B, C)")
	runCmd.Flags().Float64SliceVar(&params, "params", []float64{1000, 30, 0.9995, 1800}, "Comma-separated rate1,latencyBase,availability,rate2")
	runCmd.Flags().IntVar(&runID, "id", 0, "Run id used in the output file name")
	runCmd.Flags().StringVar(&outDir, "out", "", "Directory for <model>-<id>-out.csv (empty: no file)")

	sweepCmd.Flags().StringVar(&sweepDir, "dir", ".", "Root directory for the results directory")
	sweepCmd.Flags().StringVar(&scenarioPath, "scenario", "simulation.json", "Scenario descriptor (YAML or JSON)")
	sweepCmd.Flags().StringVar(&matrixPath, "params", "parameters.txt", "Parameter matrix, four whitespace-separated numbers per row")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0: NumCPU-1, at least 1)")
	sweepCmd.Flags().IntVar(&chunkSize, "chunk-size", harness.DefaultChunkSize, "Work items per job")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
