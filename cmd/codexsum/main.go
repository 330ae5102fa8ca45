// codexsum summarizes a codebase with AI providers: it chunks source files
// along language structure, fans the chunks out to a fallback chain of
// summarization backends, and merges the results into one document.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codexsum/internal/config"
	"codexsum/internal/engine"
)

var (
	// Global flags
	cfgPath    string
	verbose    bool
	workers    int
	outputPath string
	outputFmt  string
	noCache    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codexsum",
	Short: "AI codebase summarizer",
	Long: `codexsum splits source files into semantically coherent chunks,
summarizes each chunk through a priority-ordered chain of AI providers
with retry and fallback, and reassembles the results into a single
codebase summary document.`,
	SilenceUsage: true,
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

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Summarize the codebase at path (default: current directory)",
	Long: `Discovers source files under path, chunks and summarizes them, and
writes the merged summary to the configured output. Interrupting the run
finishes in-flight chunks, marks the rest cancelled, and still writes a
partial summary with incomplete files flagged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "codexsum.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "override max_workers")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "override output path (- for stdout)")
	runCmd.Flags().StringVarP(&outputFmt, "format", "f", "", "override output format (markdown, json, text)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the summary cache for this run")
	rootCmd.AddCommand(runCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.MaxWorkers = workers
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if outputFmt != "" {
		cfg.Output.Format = outputFmt
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("closing engine", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		logger.Info("received signal, cancelling run", zap.String("signal", sig.String()))
		cancel()
	}()

	ps, err := eng.Run(ctx, root)
	if err != nil {
		return err
	}
	if len(ps.Incomplete) > 0 {
		logger.Warn("run was cancelled, summary is partial",
			zap.Int("incomplete_files", len(ps.Incomplete)))
	}
	return eng.WriteOutput(ps)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
