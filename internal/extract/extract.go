// Package extract is the boundary to whatever turns a syllabus into
// candidate records. Extractors only produce staging items; they never
// touch the system of record.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/syllabus-cli/internal/model"
)

// Document is the uploaded syllabus handed to an extractor.
type Document struct {
	SourceFileRef string
	Text          string
}

// Extractor produces typed candidate records from a document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]model.StagingItem, error)
}

// Func adapts a plain function to Extractor.
type Func func(ctx context.Context, doc Document) ([]model.StagingItem, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, doc Document) ([]model.StagingItem, error) {
	return f(ctx, doc)
}

type courseEntry struct {
	model.CoursePayload
	Confidence *float64 `json:"confidence,omitempty"`
}

type meetingEntry struct {
	model.MeetingPayload
	Confidence *float64 `json:"confidence,omitempty"`
}

type assignmentEntry struct {
	model.AssignmentPayload
	Confidence *float64 `json:"confidence,omitempty"`
}

// result is the JSON document extractors emit.
type result struct {
	Course        *courseEntry      `json:"course"`
	ClassSchedule []meetingEntry    `json:"class_schedule"`
	OfficeHours   []meetingEntry    `json:"office_hours"`
	Assignments   []assignmentEntry `json:"assignments"`
}

// Decode parses an extraction document into staging items in the order
// course, class schedule, office hours, assignments. Markdown code fences and
// surrounding prose are tolerated. A missing course yields no course item;
// deciding whether that is fatal is the caller's job.
func Decode(data []byte) ([]model.StagingItem, error) {
	var res result
	if err := json.Unmarshal([]byte(cleanJSON(string(data))), &res); err != nil {
		return nil, eris.Wrap(err, "extract: decode extraction result")
	}

	var items []model.StagingItem
	add := func(t model.ItemType, payload any, confidence *float64) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrapf(err, "extract: encode %s payload", t)
		}
		items = append(items, model.StagingItem{Type: t, Payload: raw, Confidence: confidence})
		return nil
	}

	if res.Course != nil && strings.TrimSpace(res.Course.Name) != "" {
		if err := add(model.ItemTypeCourse, res.Course.CoursePayload, res.Course.Confidence); err != nil {
			return nil, err
		}
	}
	for _, m := range res.ClassSchedule {
		if err := add(model.ItemTypeClassSchedule, m.MeetingPayload, m.Confidence); err != nil {
			return nil, err
		}
	}
	for _, m := range res.OfficeHours {
		if err := add(model.ItemTypeOfficeHours, m.MeetingPayload, m.Confidence); err != nil {
			return nil, err
		}
	}
	for _, a := range res.Assignments {
		if err := add(model.ItemTypeAssignment, a.AssignmentPayload, a.Confidence); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// cleanJSON extracts a JSON object from text that may be wrapped in markdown
// code fences or prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
