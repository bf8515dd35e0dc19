package model

import "time"

// CommitPlan is the fully resolved unit of work the commit engine hands to the
// store. Everything in it lands in one transaction or not at all.
type CommitPlan struct {
	ParseRunID  string
	UserID      string
	Timezone    string
	Course      Course
	Recurrences []PlannedRecurrence
	Assignments []Assignment
	CommittedAt time.Time
}

// PlannedRecurrence pairs a recurrence definition with its materialized
// occurrences. IDs are assigned by the store once the recurrence row exists.
type PlannedRecurrence struct {
	Recurrence Recurrence
	Events     []CalendarEvent
}

// CommitSummary reports what a successful commit created.
type CommitSummary struct {
	ParseRunID              string    `json:"parse_run_id"`
	CourseID                string    `json:"course_id"`
	Timezone                string    `json:"timezone"`
	AssignmentsCreated      int       `json:"assignments_created"`
	ScheduleSaved           int       `json:"schedule_saved"`
	OfficeHoursSaved        int       `json:"office_hours_saved"`
	ClassEventsCreated      int       `json:"class_events_created"`
	OfficeHourEventsCreated int       `json:"office_hour_events_created"`
	CommittedAt             time.Time `json:"committed_at"`
}

// Summarize computes the counts a plan will produce once applied.
func (p *CommitPlan) Summarize(courseID string) *CommitSummary {
	s := &CommitSummary{
		ParseRunID:         p.ParseRunID,
		CourseID:           courseID,
		Timezone:           p.Timezone,
		AssignmentsCreated: len(p.Assignments),
		CommittedAt:        p.CommittedAt,
	}
	for _, r := range p.Recurrences {
		switch r.Recurrence.Kind {
		case EventKindClass:
			s.ScheduleSaved++
			s.ClassEventsCreated += len(r.Events)
		case EventKindOfficeHours:
			s.OfficeHoursSaved++
			s.OfficeHourEventsCreated += len(r.Events)
		}
	}
	return s
}

// RollbackOptions tunes a rollback.
type RollbackOptions struct {
	// PurgeStaging also deletes the run's staging items in the same transaction.
	PurgeStaging bool
}

// RollbackSummary reports what a rollback deleted.
type RollbackSummary struct {
	ParseRunID         string `json:"parse_run_id"`
	DeletedAssignments int    `json:"deleted_assignments"`
	DeletedEvents      int    `json:"deleted_events"`
	PurgedStagingItems int    `json:"purged_staging_items,omitempty"`
	ClearedMarker      bool   `json:"cleared_marker"`
}
