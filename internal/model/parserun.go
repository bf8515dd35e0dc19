package model

import "time"

// ParseRunStatus represents the staging state of a parse run.
type ParseRunStatus string

const (
	ParseRunStatusPending   ParseRunStatus = "pending"
	ParseRunStatusSucceeded ParseRunStatus = "succeeded"
	ParseRunStatusFailed    ParseRunStatus = "failed"
)

// Terminal reports whether the status can no longer change through staging.
func (s ParseRunStatus) Terminal() bool {
	return s == ParseRunStatusSucceeded || s == ParseRunStatusFailed
}

// ParseRun is one staging episode produced by a single extraction invocation.
// It is the provenance key for every staged and committed record.
type ParseRun struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	SourceFileRef string         `json:"source_file_ref"`
	Status        ParseRunStatus `json:"status"`
	Error         *string        `json:"error,omitempty"`
	CommitError   *string        `json:"commit_error,omitempty"`
	CommittedAt   *time.Time     `json:"committed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Committed reports whether a commit marker currently exists for the run.
func (r *ParseRun) Committed() bool {
	return r.CommittedAt != nil
}

// OwnedBy reports whether the run belongs to userID.
func (r *ParseRun) OwnedBy(userID string) bool {
	return r.UserID != "" && r.UserID == userID
}

// ErrorMessage returns the staging failure reason, or "" when none was recorded.
func (r *ParseRun) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}
