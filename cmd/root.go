package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/syllabus-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "syllabus-cli",
	Short: "Syllabus staging, review, commit and rollback",
	Long:  "Extracts course data from syllabi into a staging area, lets a reviewer edit it, commits the reviewed result as courses, calendar events and assignments, and rolls commits back by parse run.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
