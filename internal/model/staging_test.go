package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemType_Valid(t *testing.T) {
	for _, it := range AllItemTypes() {
		assert.True(t, it.Valid(), it)
	}
	assert.False(t, ItemType("syllabus").Valid())
	assert.False(t, ItemType("").Valid())
}

func TestStagingItem_CoursePayload(t *testing.T) {
	item := StagingItem{
		ID:      "item-1",
		Type:    ItemTypeCourse,
		Payload: json.RawMessage(`{"name":"CS 101","professor":"Dr. Ada","credits":3,"grade_weights":{"exams":60,"homework":40}}`),
	}

	p, err := item.CoursePayload()
	require.NoError(t, err)
	assert.Equal(t, "CS 101", p.Name)
	assert.Equal(t, "Dr. Ada", p.Professor)
	require.NotNil(t, p.Credits)
	assert.InDelta(t, 3.0, *p.Credits, 0.001)
	assert.InDelta(t, 60.0, p.GradeWeights["exams"], 0.001)
}

func TestStagingItem_PayloadTypeMismatch(t *testing.T) {
	item := StagingItem{ID: "item-2", Type: ItemTypeAssignment, Payload: json.RawMessage(`{"title":"HW 1"}`)}

	_, err := item.CoursePayload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not course")

	_, err = item.MeetingPayload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no meeting payload")

	a, err := item.AssignmentPayload()
	require.NoError(t, err)
	assert.Equal(t, "HW 1", a.Title)
}

func TestStagingItem_MeetingPayload(t *testing.T) {
	for _, typ := range []ItemType{ItemTypeClassSchedule, ItemTypeOfficeHours} {
		item := StagingItem{ID: "m", Type: typ, Payload: json.RawMessage(`{"day":"Tuesday","start":"09:00","end":"10:15","location":"Room 4"}`)}
		p, err := item.MeetingPayload()
		require.NoError(t, err)
		assert.Equal(t, "Tuesday", p.Day)
		assert.Equal(t, "10:15", p.End)
		assert.Equal(t, "Room 4", p.Location)
	}
}

func TestStagingItem_BadPayload(t *testing.T) {
	item := StagingItem{ID: "bad", Type: ItemTypeAssignment, Payload: json.RawMessage(`{"title":`)}
	_, err := item.AssignmentPayload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode assignment payload")
}

func TestStagingItem_Scored(t *testing.T) {
	zero := 0.0
	assert.False(t, StagingItem{}.Scored())
	assert.True(t, StagingItem{Confidence: &zero}.Scored())
}

func TestFilterItems(t *testing.T) {
	items := []StagingItem{
		{ID: "1", Type: ItemTypeCourse},
		{ID: "2", Type: ItemTypeAssignment},
		{ID: "3", Type: ItemTypeClassSchedule},
		{ID: "4", Type: ItemTypeAssignment},
	}

	got := FilterItems(items, ItemTypeAssignment)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
	assert.Empty(t, FilterItems(items, ItemTypeOfficeHours))
}
