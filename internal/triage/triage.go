// Package triage groups staged assignments for review ordering.
package triage

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/syllabus-cli/internal/model"
)

// LowConfidenceThreshold flags items scored strictly below it.
const LowConfidenceThreshold = 0.6

var (
	highStakesKeywords = []string{"exam", "test", "midterm", "final", "project"}
	routineKeywords    = []string{"homework", "reading", "quiz", "assignment"}
)

// Bucket is the review priority of an assignment.
type Bucket string

const (
	BucketHighStakes Bucket = "high_stakes"
	BucketRoutine    Bucket = "routine"
)

// Entry is one classified assignment item.
type Entry struct {
	Item          model.StagingItem `json:"item"`
	Bucket        Bucket            `json:"bucket"`
	LowConfidence bool              `json:"low_confidence"`
	// Defaulted marks routine entries whose category matched no keyword.
	Defaulted bool `json:"defaulted,omitempty"`
}

// Result groups assignment items. Every assignment appears exactly once in
// HighStakes or Routine; LowConfidence holds the flagged subset from both.
type Result struct {
	HighStakes    []Entry `json:"high_stakes"`
	Routine       []Entry `json:"routine"`
	LowConfidence []Entry `json:"low_confidence"`
}

// Total returns the number of classified assignments.
func (r *Result) Total() int {
	return len(r.HighStakes) + len(r.Routine)
}

// fold lower-cases for matching. Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Classify buckets a category string. High-stakes keywords are checked first;
// anything else, including an empty or unknown category, is routine.
func Classify(category string) Bucket {
	c := fold(category)
	for _, kw := range highStakesKeywords {
		if strings.Contains(c, kw) {
			return BucketHighStakes
		}
	}
	return BucketRoutine
}

// IsRoutineCategory reports whether category names a known routine kind.
func IsRoutineCategory(category string) bool {
	c := fold(category)
	for _, kw := range routineKeywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}

// LowConfidence reports whether a score is present and below the threshold.
func LowConfidence(confidence *float64) bool {
	return confidence != nil && *confidence < LowConfidenceThreshold
}

// Triage classifies the assignment items in items, preserving input order
// within each group. Non-assignment items are ignored. Items are not
// modified.
func Triage(items []model.StagingItem) *Result {
	res := &Result{}
	for _, it := range items {
		if it.Type != model.ItemTypeAssignment {
			continue
		}
		category := ""
		if p, err := it.AssignmentPayload(); err != nil {
			zap.L().Debug("triage: undecodable assignment payload",
				zap.String("staging_item_id", it.ID), zap.Error(err))
		} else {
			category = p.Category
		}

		e := Entry{Item: it, Bucket: Classify(category), LowConfidence: LowConfidence(it.Confidence)}
		e.Defaulted = e.Bucket == BucketRoutine && !IsRoutineCategory(category)
		if e.Bucket == BucketHighStakes {
			res.HighStakes = append(res.HighStakes, e)
		} else {
			res.Routine = append(res.Routine, e)
		}
		if e.LowConfidence {
			res.LowConfidence = append(res.LowConfidence, e)
		}
	}
	return res
}
