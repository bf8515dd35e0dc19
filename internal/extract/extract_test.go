package extract

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/syllabus-cli/internal/model"
)

const sampleDoc = `{
  "course": {"name": "Calculus I", "professor": "Dr. Lee", "grade_weights": {"exams": 60}, "confidence": 0.95},
  "class_schedule": [
    {"day": "Tuesday", "start": "09:00", "end": "10:15", "location": "Room 101", "confidence": 0.9},
    {"day": "Thursday", "start": "09:00", "end": "10:15"}
  ],
  "office_hours": [{"day": "Wednesday", "start": "14:00", "end": "15:00", "confidence": 0.7}],
  "assignments": [
    {"title": "Midterm Exam", "due_date": "2026-10-30", "category": "exam", "confidence": 0.4},
    {"title": "Reading 1", "category": "reading", "pages": 30}
  ]
}`

func TestDecode(t *testing.T) {
	items, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, items, 6)

	types := make([]model.ItemType, len(items))
	for i, it := range items {
		types[i] = it.Type
	}
	assert.Equal(t, []model.ItemType{
		model.ItemTypeCourse,
		model.ItemTypeClassSchedule,
		model.ItemTypeClassSchedule,
		model.ItemTypeOfficeHours,
		model.ItemTypeAssignment,
		model.ItemTypeAssignment,
	}, types)

	require.NotNil(t, items[0].Confidence)
	assert.InDelta(t, 0.95, *items[0].Confidence, 1e-9)
	assert.Nil(t, items[2].Confidence)

	course, err := items[0].CoursePayload()
	require.NoError(t, err)
	assert.Equal(t, "Calculus I", course.Name)
	assert.Equal(t, map[string]float64{"exams": 60}, course.GradeWeights)

	// Confidence is metadata, not part of the payload.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(items[4].Payload, &raw))
	assert.NotContains(t, raw, "confidence")
	assert.Equal(t, "Midterm Exam", raw["title"])

	reading, err := items[5].AssignmentPayload()
	require.NoError(t, err)
	require.NotNil(t, reading.Pages)
	assert.Equal(t, 30, *reading.Pages)
}

func TestDecode_NoCourse(t *testing.T) {
	for _, doc := range []string{
		`{"course": null, "assignments": [{"title": "HW 1"}]}`,
		`{"course": {"name": "  "}}`,
		`{}`,
	} {
		items, err := Decode([]byte(doc))
		require.NoError(t, err)
		assert.Empty(t, model.FilterItems(items, model.ItemTypeCourse), doc)
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("I could not read this file."))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"class_schedule": "tuesdays"}`))
	assert.Error(t, err)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", "Here is the result:\n{\"a\":1}\nLet me know.", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestStaticExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	items, err := NewStaticExtractor(path).Extract(context.Background(), Document{SourceFileRef: "calc.pdf"})
	require.NoError(t, err)
	assert.Len(t, items, 6)
}

func TestStaticExtractor_Missing(t *testing.T) {
	_, err := NewStaticExtractor(filepath.Join(t.TempDir(), "nope.json")).Extract(context.Background(), Document{})
	assert.Error(t, err)
}

func TestFunc(t *testing.T) {
	called := false
	var ex Extractor = Func(func(_ context.Context, doc Document) ([]model.StagingItem, error) {
		called = true
		assert.Equal(t, "a.pdf", doc.SourceFileRef)
		return nil, nil
	})
	_, err := ex.Extract(context.Background(), Document{SourceFileRef: "a.pdf"})
	require.NoError(t, err)
	assert.True(t, called)
}
