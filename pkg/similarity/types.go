package similarity

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the similarity backend could not produce a usable
// score: transport failure, non-success status, or a malformed payload. The
// caller treats the affected answer as unscored rather than failing the run.
var ErrUnavailable = errors.New("similarity service unavailable")

// Scorer produces a semantic similarity score in [0,1] between a candidate
// text and a reference text. Both inputs are expected to be non-empty; empty
// inputs are the caller's responsibility to short-circuit.
type Scorer interface {
	Score(ctx context.Context, candidate, reference string) (float64, error)
}

// Clamp bounds a raw model score into the closed interval [0,1]. Cosine
// similarity implementations can overshoot slightly at either end.
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
