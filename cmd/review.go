package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/staging"
	"github.com/sells-group/syllabus-cli/internal/triage"
)

var reviewCmd = &cobra.Command{
	Use:   "review <run-id>",
	Short: "Show the staged records of a parse run, high-stakes items first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")
		asJSON, _ := cmd.Flags().GetBool("json")

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rv, err := newStagingService(st, nil).Review(ctx, args[0], user)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), rv)
		}
		formatReview(cmd.OutOrStdout(), rv)
		return nil
	},
}

func init() {
	reviewCmd.Flags().String("user", "", "requesting user id")
	reviewCmd.Flags().Bool("json", false, "print the full review as JSON")
	_ = reviewCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(reviewCmd)
}

// formatReview writes a reviewer-oriented summary of rv to out.
func formatReview(out io.Writer, rv *staging.Review) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	name := ""
	if c, err := rv.Course.CoursePayload(); err == nil {
		name = c.Name
	}
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", rv.Run.ID)
	_, _ = fmt.Fprintf(w, "Source:\t%s\n", rv.Run.SourceFileRef)
	_, _ = fmt.Fprintf(w, "Course:\t%s\t%s\n", name, confidenceLabel(rv.Course.Confidence))
	if rv.Run.Committed() {
		_, _ = fmt.Fprintf(w, "Committed:\t%s\n", rv.Run.CommittedAt.Format("2006-01-02 15:04"))
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "KIND\tDAY\tSTART\tEND\tCONFIDENCE")
	for _, group := range []struct {
		kind  string
		items []stagedMeeting
	}{
		{"class", meetings(rv.Schedule)},
		{"office hours", meetings(rv.OfficeHours)},
	} {
		for _, m := range group.items {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", group.kind, m.day, m.start, m.end, m.confidence)
		}
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "BUCKET\tTITLE\tCATEGORY\tDUE\tCONFIDENCE\tFLAG")
	writeEntries := func(entries []triage.Entry) {
		for _, e := range entries {
			title, category, due := "", "", ""
			if p, err := e.Item.AssignmentPayload(); err == nil {
				title, category, due = p.Title, p.Category, p.DueDate
			}
			flag := ""
			if e.LowConfidence {
				flag = "LOW"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Bucket, title, category, due, confidenceLabel(e.Item.Confidence), flag)
		}
	}
	writeEntries(rv.Triage.HighStakes)
	writeEntries(rv.Triage.Routine)
	_ = w.Flush()
}

type stagedMeeting struct {
	day, start, end, confidence string
}

func meetings(items []model.StagingItem) []stagedMeeting {
	out := make([]stagedMeeting, 0, len(items))
	for _, it := range items {
		m := stagedMeeting{confidence: confidenceLabel(it.Confidence)}
		if p, err := it.MeetingPayload(); err == nil {
			m.day, m.start, m.end = p.Day, p.Start, p.End
		}
		out = append(out, m)
	}
	return out
}

func confidenceLabel(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *c)
}
