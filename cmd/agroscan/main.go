// Package main provides the agroscan command: the web server plus a few
// operator tools.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agroscan",
	Short: "Wheat rust diagnosis web front end",
	Long: `AgroScan serves the wheat rust diagnosis site and forwards leaf images
to the analysis service.

Configuration is read from a YAML file, then .env and the environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "agroscan.yaml", "Path to the config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(installBrowsersCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
