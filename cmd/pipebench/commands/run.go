package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/syncpipe/internal/bench"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagKinds  []string
	flagTotal  int
	flagRounds int
	flagFormat string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark matrix",
	Long: `Run the benchmark matrix and print a report.

Settings come from the defaults, then the --config file, then flags.

Example:
  pipebench run --kind syncpipe --kind syncpipe-buffered --rounds 10`,
	RunE: runBench,
}

func init() {
	runCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	runCmd.Flags().StringSliceVar(&flagKinds, "kind", nil, "Pipe kinds to run (repeatable, default all)")
	runCmd.Flags().IntVar(&flagTotal, "total", 0, "Bytes sent per case and round")
	runCmd.Flags().IntVar(&flagRounds, "rounds", 0, "Rounds per case")
	runCmd.Flags().StringVarP(&flagFormat, "format", "o", "text", "Output format (text, yaml)")
}

func runBench(cmd *cobra.Command, args []string) error {
	write, err := reportWriter(flagFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	logger.Info("starting benchmark", "kinds", cfg.Kinds, "cases", len(cfg.Cases), "total", cfg.Total, "rounds", cfg.Rounds)

	report, err := bench.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return write(report, cmd.OutOrStdout())
}

func reportWriter(format string) (func(*bench.Report, io.Writer) error, error) {
	switch format {
	case "text":
		return (*bench.Report).WriteText, nil
	case "yaml":
		return (*bench.Report).WriteYAML, nil
	default:
		return nil, fmt.Errorf("unknown format %q (available: text, yaml)", format)
	}
}

func loadConfig() (bench.Config, error) {
	cfg := bench.DefaultConfig()
	if flagConfig != "" {
		var err error
		if cfg, err = bench.LoadConfig(flagConfig); err != nil {
			return cfg, err
		}
	}
	if len(flagKinds) > 0 {
		cfg.Kinds = cfg.Kinds[:0]
		for _, k := range flagKinds {
			cfg.Kinds = append(cfg.Kinds, bench.Kind(k))
		}
	}
	if flagTotal > 0 {
		cfg.Total = flagTotal
	}
	if flagRounds > 0 {
		cfg.Rounds = flagRounds
	}
	return cfg, cfg.Validate()
}
