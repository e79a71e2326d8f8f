package search

// ScoreWeights are the components of a session's success score. The defaults
// come from observed behavior: a result click is the strongest signal, not
// needing to refine means the first answer was good, and a non-empty result
// page is worth something on its own.
type ScoreWeights struct {
	Click    float64
	NoRefine float64
	Results  float64
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Click: 0.5, NoRefine: 0.3, Results: 0.2}
}

// Score recomputes the success score from the full accumulated flag set.
// It is a pure function of the flags, so repeated feedback never
// double-counts. Clamped to [0, 1].
func (w ScoreWeights) Score(clicked, refined bool, resultsCount int) float64 {
	var score float64
	if clicked {
		score += w.Click
	}
	if !refined {
		score += w.NoRefine
	}
	if resultsCount > 0 {
		score += w.Results
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
