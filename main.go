package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/classgraph/internal/config"
	"github.com/olehluchkiv/classgraph/internal/logging"
	"github.com/olehluchkiv/classgraph/internal/output"
	"github.com/olehluchkiv/classgraph/internal/pipeline"
	"github.com/olehluchkiv/classgraph/internal/watch"
)

const appName = "classgraph"

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the raw flag values; only flags the user set override the config.
type cliFlags struct {
	configPath string
	output     string
	format     string
	packages   []string
	include    []string
	exclude    []string
	workers    int
	noNested   bool
	watch      bool
	logFile    string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   appName + " [flags] <root>",
		Short: "Render the class dependency graph of compiled JVM classes",
		Long: `classgraph scans a directory or jar of compiled class files and writes a
package-clustered graph of how the classes relate: superclass, implemented
interfaces, method calls and class literal references between analyzed classes.

The default output is a Graphviz DOT file; Mermaid flowcharts are also supported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), args[0], cfg, f.watch, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", `destination file ("-" for stdout, default output.dot or output.mmd)`)
	flags.StringVarP(&f.format, "format", "f", "dot", "output format (dot, mermaid)")
	flags.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	flags.StringSliceVar(&f.packages, "package", nil, "package prefix filter, repeatable (e.g. com.acme)")
	flags.StringSliceVar(&f.include, "include", []string{"**/*.class"}, "glob patterns selecting class files")
	flags.StringSliceVar(&f.exclude, "exclude", []string{"META-INF/**"}, "glob patterns to skip")
	flags.IntVar(&f.workers, "workers", 0, "parallel class file readers (0 = one per CPU)")
	flags.BoolVar(&f.noNested, "no-nested-heuristic", false, "only drop classes the class file marks as nested")
	flags.BoolVar(&f.watch, "watch", false, "re-render whenever class files change")
	flags.StringVar(&f.logFile, "log-file", "", "also write JSON logs to this file")
	flags.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// buildConfig layers defaults, the config file, the environment and finally
// any flags set on the command line.
func buildConfig(cmd *cobra.Command, f cliFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("package") {
		cfg.Scan.Packages = f.packages
	}
	if changed("include") {
		cfg.Scan.Include = f.include
	}
	if changed("exclude") {
		cfg.Scan.Exclude = f.exclude
	}
	if changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if changed("no-nested-heuristic") {
		cfg.Scan.NestedHeuristic = !f.noNested
	}
	if changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(parent context.Context, input string, cfg *config.Config, watchMode bool, stdout io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	// Setup logging
	logger, logCleanup, err := logging.Setup(cfg.Log.File, level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCleanup()

	// Setup signal handling with context cancellation
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	render := func(ctx context.Context) error {
		s, err := pipeline.Run(ctx, input, cfg, logger)
		if err != nil {
			return err
		}
		if s.Output != output.Stdout {
			fmt.Fprintf(stdout, "Wrote %d classes in %d packages, %d relationships to %s\n",
				s.Classes, s.Packages, s.Relationships, s.Output)
		}
		return nil
	}

	if !watchMode {
		return render(ctx)
	}

	if err := render(ctx); err != nil {
		logger.Error("initial render failed", "error", err)
	}
	return watch.Run(ctx, watch.Options{
		Root:     input,
		Debounce: cfg.Watch.Debounce,
		Match:    cfg.ResolverOptions().Matches,
	}, logger, render)
}
