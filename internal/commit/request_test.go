package commit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *Request {
	return &Request{
		ParseRunID: "run-1",
		UserID:     "user-1",
		Timezone:   "America/Chicago",
		Course:     CourseInput{Name: "Calculus I", GradeWeights: map[string]float64{"exams": 60, "homework": 40}},
		Schedule:   []MeetingInput{{Day: "Tuesday", Start: "09:00", End: "10:15"}},
		Assignments: []AssignmentInput{
			{Title: "Midterm", DueDate: "2026-10-30", Category: "exam"},
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ce *Error
	require.True(t, errors.As(err, &ce), "expected *Error, got %T", err)
	require.Equal(t, KindValidation, ce.Kind)
	return ce.Fields
}

func TestRequestValidate_OK(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestRequestValidate_FieldPaths(t *testing.T) {
	req := validRequest()
	req.ParseRunID = ""
	req.Course.Name = "   "
	req.Schedule = append(req.Schedule, MeetingInput{Day: "t", Start: "25:00", End: "10:00"})
	req.Assignments[0].DueDate = "next friday"

	fields := fieldsOf(t, req.Validate())

	assert.Equal(t, "parse_run_id is a required field", fields["parse_run_id"])
	assert.Equal(t, "name cannot be blank", fields["course.name"])
	assert.Equal(t, "day must be a day of the week", fields["schedule[1].day"])
	assert.Contains(t, fields["schedule[1].start"], "must be a time of day")
	assert.Contains(t, fields["assignments[0].due_date"], "must be a date")
	assert.NotContains(t, fields, "schedule[0].day")
}

func TestRequestValidate_BadTimezone(t *testing.T) {
	req := validRequest()
	req.Timezone = "Mars/Olympus"
	fields := fieldsOf(t, req.Validate())
	assert.Contains(t, fields, "timezone")
}

func TestRequestValidate_NegativeWeight(t *testing.T) {
	req := validRequest()
	req.Course.GradeWeights = map[string]float64{"exams": -5}
	fields := fieldsOf(t, req.Validate())
	assert.Len(t, fields, 1)
}

func TestRequestValidate_EmptyListsAllowed(t *testing.T) {
	req := validRequest()
	req.Schedule = nil
	req.Assignments = nil
	assert.NoError(t, req.Validate())
}

func TestParseDueDate(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-30", time.Date(2026, 10, 30, 23, 59, 0, 0, chicago)},
		{"2026-12-01", time.Date(2026, 12, 1, 23, 59, 0, 0, chicago)},
		{"2026-10-30T17:00", time.Date(2026, 10, 30, 17, 0, 0, 0, chicago)},
		{"2026-10-30 08:30", time.Date(2026, 10, 30, 8, 30, 0, 0, chicago)},
		{"2026-10-30T17:00:00Z", time.Date(2026, 10, 30, 17, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDueDate(tt.in, chicago)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	_, err = parseDueDate("soon", chicago)
	assert.Error(t, err)
}

func TestErrorRendering(t *testing.T) {
	err := validationError(map[string]string{"b": "second", "a": "first"})
	assert.Equal(t, "invalid commit request: a: first; b: second", err.Error())

	inner := errors.New("disk full")
	wrapped := newError(KindInternal, "commit failed", inner)
	assert.Equal(t, "commit failed: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, KindForbidden, KindOf(newError(KindForbidden, "no", nil)))
}

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, 422, KindValidation.HTTPStatus())
	assert.Equal(t, 404, KindNotFound.HTTPStatus())
	assert.Equal(t, 403, KindForbidden.HTTPStatus())
	assert.Equal(t, 409, KindNotReady.HTTPStatus())
	assert.Equal(t, 409, KindAlreadyCommitted.HTTPStatus())
	assert.Equal(t, 500, KindInternal.HTTPStatus())
}
