package grading

// Feedback returns a qualitative comment for a similarity score. The bands
// mirror the suggestion thresholds lecturers see next to the AI score.
func Feedback(similarity float64) string {
	switch {
	case similarity >= 0.80:
		return "Excellent answer. High semantic similarity to the model answer."
	case similarity >= 0.60:
		return "Good answer, but missing some important concepts."
	case similarity >= 0.40:
		return "Fair attempt, but the answer lacks clarity and key ideas."
	default:
		return "Poor answer. The response is semantically different from the expected answer."
	}
}

// BandedMarks maps a similarity score onto coarse mark bands. It backs the
// feedback view only; prefill suggestions use SuggestedMarks instead.
func BandedMarks(similarity float64, maxMarks int) int {
	switch {
	case similarity >= 0.80:
		return maxMarks
	case similarity >= 0.60:
		return int(0.7 * float64(maxMarks))
	case similarity >= 0.40:
		return int(0.4 * float64(maxMarks))
	default:
		return 0
	}
}
