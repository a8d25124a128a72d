package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan/internal/snapshot"
)

var installBrowsersCmd = &cobra.Command{
	Use:   "install-browsers",
	Short: "Download the headless Chromium used for PDF reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := snapshot.Install(); err != nil {
			return fmt.Errorf("failed to install browsers: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Chromium installed")
		return nil
	},
}
