package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/syllabus-cli/internal/commit"
	"github.com/sells-group/syllabus-cli/internal/staging"
)

var commitCmd = &cobra.Command{
	Use:   "commit <run-id>",
	Short: "Commit a reviewed parse run",
	Long:  "Writes the reviewed course, schedule, office hours and assignments of a parse run in one transaction. --file supplies the reviewer's edits as JSON or YAML; without it every staged item is committed as extracted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")
		file, _ := cmd.Flags().GetString("file")
		tz, _ := cmd.Flags().GetString("tz")

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var req *commit.Request
		if file != "" {
			if req, err = loadRequest(file); err != nil {
				return err
			}
		} else {
			rv, err := newStagingService(st, nil).Review(ctx, args[0], user)
			if err != nil {
				return err
			}
			if req, err = requestFromReview(rv); err != nil {
				return err
			}
		}
		req.ParseRunID = args[0]
		req.UserID = user
		if tz != "" {
			req.Timezone = tz
		}

		sum, err := newEngine(st, "").Commit(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

func init() {
	commitCmd.Flags().String("user", "", "requesting user id")
	commitCmd.Flags().String("file", "", "reviewed edits (.json, .yaml or .yml)")
	commitCmd.Flags().String("tz", "", "IANA timezone for the schedule (default from config)")
	_ = commitCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(commitCmd)
}

// loadRequest decodes a commit request from a JSON or YAML file, chosen by
// extension.
func loadRequest(path string) (*commit.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "commit: read %s", path)
	}

	var req commit.Request
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "commit: decode %s", path)
	}
	return &req, nil
}

// requestFromReview accepts every staged item of rv unchanged.
func requestFromReview(rv *staging.Review) (*commit.Request, error) {
	course, err := rv.Course.CoursePayload()
	if err != nil {
		return nil, err
	}
	req := &commit.Request{
		ParseRunID: rv.Run.ID,
		UserID:     rv.Run.UserID,
		Course: commit.CourseInput{
			Name:         course.Name,
			Professor:    course.Professor,
			Credits:      course.Credits,
			GradeWeights: course.GradeWeights,
		},
	}

	for _, it := range rv.Schedule {
		m, err := it.MeetingPayload()
		if err != nil {
			return nil, err
		}
		req.Schedule = append(req.Schedule, commit.MeetingInput{Day: m.Day, Start: m.Start, End: m.End, Location: m.Location})
	}
	for _, it := range rv.OfficeHours {
		m, err := it.MeetingPayload()
		if err != nil {
			return nil, err
		}
		req.OfficeHours = append(req.OfficeHours, commit.MeetingInput{Day: m.Day, Start: m.Start, End: m.End, Location: m.Location})
	}
	for _, it := range rv.Assignments {
		a, err := it.AssignmentPayload()
		if err != nil {
			return nil, err
		}
		req.Assignments = append(req.Assignments, commit.AssignmentInput{
			StagingItemID: it.ID,
			Title:         a.Title,
			DueDate:       a.DueDate,
			Category:      a.Category,
			EffortHours:   a.EffortHours,
			Pages:         a.Pages,
		})
	}
	return req, nil
}
