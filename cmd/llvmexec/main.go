package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"llvmexec/internal/prof"
	"llvmexec/internal/version"
)

// profiling is started before any subcommand runs and stopped in main.
var profiling *prof.Session

var rootCmd = &cobra.Command{
	Use:           "llvmexec",
	Short:         "Translate LLVM IR into executable programs",
	Long:          `llvmexec turns textual LLVM IR modules into an executable tree representation`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorMode(cmd); err != nil {
			return err
		}
		verbose, err := cmd.Flags().GetCount("verbose")
		if err != nil {
			return err
		}
		commonlog.Configure(verbose, nil)
		profiling, err = startProfiling(cmd)
		return err
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to llvmexec.toml (default: nearest one above the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.CountP("verbose", "v", "log more (repeat for debug output)")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to keep per file")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring buffer")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	if stopErr := profiling.Stop(); stopErr != nil {
		fmt.Fprintf(os.Stderr, "profiling: %v\n", stopErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(1)
	}
}

func applyColorMode(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func startProfiling(cmd *cobra.Command) (*prof.Session, error) {
	pf := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = pf.GetString("cpu-profile"); err != nil {
		return nil, err
	}
	if opts.Mem, err = pf.GetString("mem-profile"); err != nil {
		return nil, err
	}
	if opts.Trace, err = pf.GetString("runtime-trace"); err != nil {
		return nil, err
	}
	return prof.Start(opts)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
