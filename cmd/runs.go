package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect parse runs",
	Long:  "Commands for listing parse runs and viewing what a run staged and committed.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List parse runs",
	Long:  "Lists parse runs, newest first. --status succeeded lists the runs ready for review.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListParseRuns(ctx, store.RunFilter{
			UserID: user,
			Status: model.ParseRunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

// runDetail is a parse run with the rows it committed.
type runDetail struct {
	Run         *model.ParseRun       `json:"run"`
	Assignments []model.Assignment    `json:"assignments"`
	Events      []model.CalendarEvent `json:"events"`
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a parse run and the rows it committed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetParseRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		assignments, err := st.ListAssignmentsByRun(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		events, err := st.ListEventsByRun(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		return printJSON(cmd.OutOrStdout(), runDetail{Run: run, Assignments: assignments, Events: events})
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (pending, succeeded, failed)")
	runsListCmd.Flags().String("user", "", "filter by owning user id")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.ParseRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUSER\tSOURCE\tSTATUS\tCOMMITTED\tCREATED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t---------\t-------\t-----")

	for _, r := range runs {
		committed := ""
		if r.Committed() {
			committed = r.CommittedAt.Format("2006-01-02 15:04")
		}

		source := r.SourceFileRef
		if len(source) > 30 {
			source = source[:27] + "..."
		}

		msg := r.ErrorMessage()
		if msg == "" && r.CommitError != nil {
			msg = *r.CommitError
		}
		if len(msg) > 40 {
			msg = msg[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.UserID,
			source,
			r.Status,
			committed,
			r.CreatedAt.Format("2006-01-02 15:04"),
			msg,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
