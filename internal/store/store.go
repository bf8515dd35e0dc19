package store

import (
	"context"
	"errors"

	"github.com/sells-group/syllabus-cli/internal/model"
)

var (
	// ErrNotFound is returned when a parse run does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCommitted is returned when the commit marker for a parse run
	// already exists. It is detected inside the commit transaction.
	ErrAlreadyCommitted = errors.New("parse run already committed")
)

// RunFilter specifies criteria for listing parse runs.
type RunFilter struct {
	UserID string               `json:"user_id,omitempty"`
	Status model.ParseRunStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the staging pipeline.
type Store interface {
	// Parse runs
	CreateParseRun(ctx context.Context, userID, sourceFileRef string) (*model.ParseRun, error)
	MarkParseRunFailed(ctx context.Context, runID, message string) error
	MarkParseRunSucceeded(ctx context.Context, runID string) (bool, error)
	GetParseRun(ctx context.Context, runID string) (*model.ParseRun, error)
	ListParseRuns(ctx context.Context, filter RunFilter) ([]model.ParseRun, error)

	// Staging items
	PutStagingItems(ctx context.Context, runID string, items []model.StagingItem) error
	ListStagingItems(ctx context.Context, runID string) ([]model.StagingItem, error)
	ListStagingItemsByType(ctx context.Context, runID string, itemType model.ItemType) ([]model.StagingItem, error)
	DeleteStagingItems(ctx context.Context, runID string) (int, error)

	// Commit / rollback
	ApplyCommit(ctx context.Context, plan *model.CommitPlan) (*model.CommitSummary, error)
	RecordCommitFailure(ctx context.Context, runID, message string) error
	ApplyRollback(ctx context.Context, runID string, opts model.RollbackOptions) (*model.RollbackSummary, error)

	// Committed data by provenance
	ListAssignmentsByRun(ctx context.Context, runID string) ([]model.Assignment, error)
	ListEventsByRun(ctx context.Context, runID string) ([]model.CalendarEvent, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// stagingColumns is the column order used for staging inserts.
var stagingColumns = []string{"id", "parse_run_id", "item_type", "payload", "confidence", "position", "created_at"}

// eventColumns is the column order used for calendar event inserts.
var eventColumns = []string{"id", "user_id", "course_id", "recurrence_id", "parse_run_id", "kind", "title", "starts_at", "ends_at", "location", "created_at"}

// assignmentColumns is the column order used for assignment inserts.
var assignmentColumns = []string{"id", "user_id", "course_id", "parse_run_id", "staging_item_id", "title", "due_at", "category", "effort_hours", "pages", "created_at"}
