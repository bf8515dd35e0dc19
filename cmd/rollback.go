package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/syllabus-cli/internal/model"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <run-id>",
	Short: "Delete everything a parse run committed",
	Long:  "Removes the assignments and calendar events committed from a parse run and clears its commit marker so it can be committed again. Courses and weekly schedules are kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")
		purge, _ := cmd.Flags().GetBool("purge-staging")

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := newEngine(st, "").Rollback(ctx, args[0], user, model.RollbackOptions{PurgeStaging: purge})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

func init() {
	rollbackCmd.Flags().String("user", "", "requesting user id")
	rollbackCmd.Flags().Bool("purge-staging", false, "also delete the run's staging items")
	_ = rollbackCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(rollbackCmd)
}
