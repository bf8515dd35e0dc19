package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommitPlan_Summarize(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	plan := &CommitPlan{
		ParseRunID: "run-1",
		Timezone:   "America/Chicago",
		Recurrences: []PlannedRecurrence{
			{Recurrence: Recurrence{Kind: EventKindClass}, Events: make([]CalendarEvent, 2)},
			{Recurrence: Recurrence{Kind: EventKindClass}, Events: make([]CalendarEvent, 2)},
			{Recurrence: Recurrence{Kind: EventKindOfficeHours}, Events: make([]CalendarEvent, 1)},
		},
		Assignments: make([]Assignment, 3),
		CommittedAt: now,
	}

	s := plan.Summarize("course-1")
	assert.Equal(t, "run-1", s.ParseRunID)
	assert.Equal(t, "course-1", s.CourseID)
	assert.Equal(t, "America/Chicago", s.Timezone)
	assert.Equal(t, 3, s.AssignmentsCreated)
	assert.Equal(t, 2, s.ScheduleSaved)
	assert.Equal(t, 1, s.OfficeHoursSaved)
	assert.Equal(t, 4, s.ClassEventsCreated)
	assert.Equal(t, 1, s.OfficeHourEventsCreated)
	assert.Equal(t, now, s.CommittedAt)
}

func TestCommitPlan_SummarizeEmpty(t *testing.T) {
	s := (&CommitPlan{ParseRunID: "run-2", Timezone: "UTC"}).Summarize("c")
	assert.Zero(t, s.AssignmentsCreated)
	assert.Zero(t, s.ScheduleSaved)
	assert.Zero(t, s.ClassEventsCreated)
	assert.Zero(t, s.OfficeHourEventsCreated)
}
