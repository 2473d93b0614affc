package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"satdmap/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a project for analysis",
	Long: `Write a default configuration to .satdmap/config.json in the project root.

Examples:
  satdmap init
  satdmap init --root=/src/gateway
  satdmap init --force`,
	Run: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	configPath := filepath.Join(rootFlag, config.ConfigDirName, "config.json")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "Config already exists at %s (use --force to overwrite)\n", configPath)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(rootFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Initialized %s\n", configPath)
}
