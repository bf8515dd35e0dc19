package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/syllabus-cli/internal/model"
)

// stampStagingItems copies items, stamping each with the owning run, its
// position and a fresh id. Unknown types and out-of-range confidence are
// rejected so that nothing partially valid is staged.
func stampStagingItems(runID string, items []model.StagingItem, now time.Time) ([]model.StagingItem, error) {
	out := make([]model.StagingItem, len(items))
	for i, it := range items {
		if !it.Type.Valid() {
			return nil, eris.Errorf("staging item %d: unknown type %q", i, it.Type)
		}
		if it.Confidence != nil && (*it.Confidence < 0 || *it.Confidence > 1) {
			return nil, eris.Errorf("staging item %d: confidence %.3f outside [0,1]", i, *it.Confidence)
		}
		if len(it.Payload) == 0 {
			it.Payload = json.RawMessage(`{}`)
		}
		if !json.Valid(it.Payload) {
			return nil, eris.Errorf("staging item %d: payload is not valid JSON", i)
		}
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.ParseRunID = runID
		it.Position = i
		it.CreatedAt = now
		out[i] = it
	}
	return out, nil
}

// stampPlan fills ids and timestamps that the store owns.
func stampPlan(plan *model.CommitPlan) {
	if plan.CommittedAt.IsZero() {
		plan.CommittedAt = time.Now().UTC()
	}
	if plan.Course.ID == "" {
		plan.Course.ID = uuid.New().String()
	}
	for i := range plan.Recurrences {
		r := &plan.Recurrences[i]
		if r.Recurrence.ID == "" {
			r.Recurrence.ID = uuid.New().String()
		}
		for j := range r.Events {
			if r.Events[j].ID == "" {
				r.Events[j].ID = uuid.New().String()
			}
		}
	}
	for i := range plan.Assignments {
		if plan.Assignments[i].ID == "" {
			plan.Assignments[i].ID = uuid.New().String()
		}
	}
}

// eventRows flattens a recurrence's events into insert rows once the
// recurrence id and course id are known.
func eventRows(plan *model.CommitPlan, courseID, recurrenceID string, events []model.CalendarEvent) [][]any {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			e.ID, plan.UserID, courseID, recurrenceID, plan.ParseRunID,
			string(e.Kind), e.Title, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Location, plan.CommittedAt,
		})
	}
	return rows
}

// assignmentRows flattens the plan's assignments into insert rows.
func assignmentRows(plan *model.CommitPlan, courseID string) [][]any {
	rows := make([][]any, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		var due *time.Time
		if a.DueAt != nil {
			d := a.DueAt.UTC()
			due = &d
		}
		rows = append(rows, []any{
			a.ID, plan.UserID, courseID, plan.ParseRunID, a.StagingItemID,
			a.Title, due, a.Category, a.EffortHours, a.Pages, plan.CommittedAt,
		})
	}
	return rows
}

func marshalWeights(w map[string]float64) ([]byte, error) {
	if len(w) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(w)
	return b, eris.Wrap(err, "marshal grade weights")
}
