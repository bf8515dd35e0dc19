package model

import "time"

// EventKind distinguishes materialized calendar events.
type EventKind string

const (
	EventKindClass       EventKind = "class"
	EventKindOfficeHours EventKind = "office_hours"
)

// Course is a committed course row. Courses are keyed by (user, name) and
// survive rollback.
type Course struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Name         string             `json:"name"`
	Professor    string             `json:"professor,omitempty"`
	Credits      *float64           `json:"credits,omitempty"`
	GradeWeights map[string]float64 `json:"grade_weights,omitempty"`
	Timezone     string             `json:"timezone"`
	ParseRunID   string             `json:"parse_run_id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Recurrence is a durable weekly meeting definition under a course.
// Recurrences survive rollback.
type Recurrence struct {
	ID         string       `json:"id"`
	CourseID   string       `json:"course_id"`
	ParseRunID string       `json:"parse_run_id"`
	Kind       EventKind    `json:"kind"`
	Weekday    time.Weekday `json:"weekday"`
	StartTime  string       `json:"start_time"` // HH:MM local wall clock
	EndTime    string       `json:"end_time"`   // HH:MM local wall clock
	Location   string       `json:"location,omitempty"`
	Timezone   string       `json:"timezone"`
	CreatedAt  time.Time    `json:"created_at"`
}

// CalendarEvent is one dated instance of a recurrence. ParseRunID is the
// provenance reference used by rollback.
type CalendarEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CourseID     string    `json:"course_id"`
	RecurrenceID string    `json:"recurrence_id"`
	ParseRunID   string    `json:"parse_run_id"`
	Kind         EventKind `json:"kind"`
	Title        string    `json:"title"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Location     string    `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Assignment is a committed assignment row. ParseRunID (and StagingItemID when
// the reviewer kept the link) are the provenance references used by rollback.
type Assignment struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	CourseID      string     `json:"course_id"`
	ParseRunID    string     `json:"parse_run_id"`
	StagingItemID *string    `json:"staging_item_id,omitempty"`
	Title         string     `json:"title"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	Category      string     `json:"category,omitempty"`
	EffortHours   *float64   `json:"effort_hours,omitempty"`
	Pages         *int       `json:"pages,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
