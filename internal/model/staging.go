package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// ItemType identifies the kind of candidate record in a staging item.
type ItemType string

const (
	ItemTypeCourse        ItemType = "course"
	ItemTypeClassSchedule ItemType = "class_schedule"
	ItemTypeOfficeHours   ItemType = "office_hours"
	ItemTypeAssignment    ItemType = "assignment"
)

// AllItemTypes returns all defined staging item types.
func AllItemTypes() []ItemType {
	return []ItemType{
		ItemTypeCourse,
		ItemTypeClassSchedule,
		ItemTypeOfficeHours,
		ItemTypeAssignment,
	}
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCourse, ItemTypeClassSchedule, ItemTypeOfficeHours, ItemTypeAssignment:
		return true
	}
	return false
}

// StagingItem is one untrusted, typed candidate record awaiting review.
// Items are immutable once written; reviewer edits are applied at commit time.
type StagingItem struct {
	ID         string          `json:"id"`
	ParseRunID string          `json:"parse_run_id"`
	Type       ItemType        `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Confidence *float64        `json:"confidence,omitempty"` // nil = not evaluated
	Position   int             `json:"position"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Scored reports whether the extractor attached a confidence score.
func (i StagingItem) Scored() bool {
	return i.Confidence != nil
}

// CoursePayload is the payload of a course item.
type CoursePayload struct {
	Name         string             `json:"name"`
	Professor    string             `json:"professor,omitempty"`
	Credits      *float64           `json:"credits,omitempty"`
	GradeWeights map[string]float64 `json:"grade_weights,omitempty"`
}

// MeetingPayload is the payload of class_schedule and office_hours items.
type MeetingPayload struct {
	Day      string `json:"day"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
}

// AssignmentPayload is the payload of an assignment item.
type AssignmentPayload struct {
	Title       string   `json:"title"`
	DueDate     string   `json:"due_date,omitempty"`
	Category    string   `json:"category,omitempty"`
	EffortHours *float64 `json:"effort_hours,omitempty"`
	Pages       *int     `json:"pages,omitempty"`
}

// CoursePayload decodes the item payload as a course.
func (i StagingItem) CoursePayload() (*CoursePayload, error) {
	var p CoursePayload
	if err := i.decode(ItemTypeCourse, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MeetingPayload decodes the item payload as a schedule or office-hours entry.
func (i StagingItem) MeetingPayload() (*MeetingPayload, error) {
	if i.Type != ItemTypeClassSchedule && i.Type != ItemTypeOfficeHours {
		return nil, eris.Errorf("staging item %s: type %s has no meeting payload", i.ID, i.Type)
	}
	var p MeetingPayload
	if err := json.Unmarshal(i.Payload, &p); err != nil {
		return nil, eris.Wrapf(err, "staging item %s: decode meeting payload", i.ID)
	}
	return &p, nil
}

// AssignmentPayload decodes the item payload as an assignment.
func (i StagingItem) AssignmentPayload() (*AssignmentPayload, error) {
	var p AssignmentPayload
	if err := i.decode(ItemTypeAssignment, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (i StagingItem) decode(want ItemType, dst any) error {
	if i.Type != want {
		return eris.Errorf("staging item %s: type %s is not %s", i.ID, i.Type, want)
	}
	if err := json.Unmarshal(i.Payload, dst); err != nil {
		return eris.Wrapf(err, "staging item %s: decode %s payload", i.ID, want)
	}
	return nil
}

// FilterItems returns the items of the given type, preserving order.
func FilterItems(items []StagingItem, t ItemType) []StagingItem {
	var out []StagingItem
	for _, it := range items {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out
}
