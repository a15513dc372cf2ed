// Package main implements the angleir CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/google/angle-sub000/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "angleir",
	Short: "Shader IR builder and inspection tools",
	Long:  `angleir replays builder-call scripts into shader IR, then validates, dumps or summarizes the result`,

	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		stopProfiling, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		stopTracing, err := setupTracing(cmd)
		if err != nil {
			stopProfiling()
			return err
		}
		runCleanup = func() {
			stopTracing()
			stopProfiling()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanup()
	},
}

// runCleanup flushes the tracer and stops the profiles set up for the running command.
var runCleanup func()

func cleanup() {
	if runCleanup != nil {
		runCleanup()
		runCleanup = nil
	}
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	addPersistentFlags(rootCmd)
}

// main sets the command version and executes the root command. A failed command exits with
// status 1.
func main() {
	rootCmd.Version = version.String()

	if err := rootCmd.Execute(); err != nil {
		cleanup()
		os.Exit(1)
	}
}

func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("jobs", 0, "scripts built in parallel (0 = GOMAXPROCS)")
	flags.String("ui", "auto", "progress view (auto|on|off)")
	flags.Bool("cache", true, "serve unchanged scripts from the build cache")
	flags.Bool("no-cache", false, "disable the build cache")

	flags.String("trace", "", "trace output file (\"-\" for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", time.Duration(0), "heartbeat interval while building (0 = off)")

	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file")
	flags.String("runtime-trace", "", "write a Go runtime trace to file")
}

func setupColor(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := parseSwitch("color", value)
	if err != nil {
		return err
	}
	color.NoColor = !mode.enabled(func() bool { return isTerminal(os.Stdout) })
	return nil
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
