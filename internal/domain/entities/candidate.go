package entities

// Candidate is a read-only snapshot of a catalog entry eligible for ranking.
// The ranker never mutates it; ownership stays with the caller.
type Candidate struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
}

// RankedCandidate pairs a candidate with its computed score and the
// per-signal breakdown used to produce it.
type RankedCandidate struct {
	Candidate      Candidate          `json:"candidate"`
	Score          float64            `json:"score"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}
