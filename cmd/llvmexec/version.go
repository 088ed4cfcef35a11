package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"llvmexec/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show llvmexec version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit and build date")
}

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	full, _ := cmd.Flags().GetBool("full")
	info := versionInfo{
		Version:   version.Version,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	}
	out := cmd.OutOrStdout()

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "pretty", "":
		fmt.Fprintf(out, "llvmexec %s\n", version.Colored())
		if full {
			if info.GitCommit != "" {
				fmt.Fprintf(out, "commit:  %s\n", info.GitCommit)
			}
			if info.BuildDate != "" {
				fmt.Fprintf(out, "built:   %s\n", info.BuildDate)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
