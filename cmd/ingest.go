package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/syllabus-cli/internal/extract"
	"github.com/sells-group/syllabus-cli/internal/staging"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract a syllabus into a new parse run",
	Long:  "Creates a parse run, runs extraction on the syllabus text and stages the candidate records for review. With --items, a pre-parsed extraction document is staged instead of calling the model.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		user, _ := cmd.Flags().GetString("user")
		file, _ := cmd.Flags().GetString("file")
		source, _ := cmd.Flags().GetString("source")
		items, _ := cmd.Flags().GetString("items")

		if file == "" && items == "" {
			return eris.New("one of --file or --items is required")
		}
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		doc := extract.Document{SourceFileRef: source}
		if file != "" {
			text, err := os.ReadFile(file)
			if err != nil {
				return eris.Wrapf(err, "ingest: read %s", file)
			}
			doc.Text = string(text)
			if doc.SourceFileRef == "" {
				doc.SourceFileRef = filepath.Base(file)
			}
		}
		if doc.SourceFileRef == "" {
			doc.SourceFileRef = filepath.Base(items)
		}

		ex, err := initExtractor(items)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := newStagingService(st, ex).Ingest(ctx, user, doc)
		if errors.Is(err, staging.ErrStagingFailed) {
			_ = printJSON(cmd.OutOrStdout(), run)
			return err
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), run)
	},
}

func init() {
	ingestCmd.Flags().String("user", "", "owning user id")
	ingestCmd.Flags().String("file", "", "path to the syllabus text")
	ingestCmd.Flags().String("source", "", "source file reference to record (default: file name)")
	ingestCmd.Flags().String("items", "", "stage a pre-parsed extraction JSON document instead of calling the model")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}
