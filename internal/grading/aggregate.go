// Package grading contains the pure mark arithmetic shared by the grading
// services and the summary endpoints. Nothing in this package performs I/O.
package grading

import "math"

// Grade labels returned by Label. Bands are inclusive at their lower bound.
const (
	LabelNotGraded        = "Not Graded"
	LabelExcellent        = "Excellent"
	LabelGood             = "Good"
	LabelSatisfactory     = "Satisfactory"
	LabelNeedsImprovement = "Needs Improvement"
)

// TotalMarks sums the maximum marks of the given questions.
func TotalMarks(maxMarks []int) int {
	total := 0
	for _, m := range maxMarks {
		total += m
	}
	return total
}

// AwardedMarks sums awarded marks, treating unset (nil) marks as zero.
func AwardedMarks(awarded []*int) int {
	total := 0
	for _, m := range awarded {
		if m != nil {
			total += *m
		}
	}
	return total
}

// Percentage returns the rounded percentage of awarded over total marks, or
// nil when the total is zero and a percentage is undefined.
func Percentage(awarded, total int) *int {
	if total <= 0 {
		return nil
	}
	pct := int(math.Round(float64(awarded) / float64(total) * 100))
	return &pct
}

// Label maps a percentage to a qualitative grade label. A nil percentage
// means the submission has not been graded.
func Label(pct *int) string {
	switch {
	case pct == nil:
		return LabelNotGraded
	case *pct >= 90:
		return LabelExcellent
	case *pct >= 75:
		return LabelGood
	case *pct >= 60:
		return LabelSatisfactory
	default:
		return LabelNeedsImprovement
	}
}

// SuggestedMarks converts a similarity score into a mark suggestion for
// auto-prefill. It is never written to marks_awarded without an explicit
// save.
func SuggestedMarks(aiScore float64, maxMarks int) int {
	return int(math.Round(aiScore * float64(maxMarks)))
}
