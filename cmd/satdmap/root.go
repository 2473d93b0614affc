package main

import (
	"github.com/spf13/cobra"

	"satdmap/internal/version"
)

var (
	// rootFlag is the CLI --root flag value
	rootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "satdmap",
	Short: "satdmap - SATD relationship and chain analysis",
	Long: `satdmap detects self-admitted technical debt (SATD) comments in a source
tree, discovers dependency relationships between them, assembles propagation
chains, and ranks every instance by its SATD Impact Ripple score.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("satdmap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Project root to analyze")
}
