package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cinetrail/backend/internal/domain/entities"
)

const (
	seenDecayWindow   = 14 * 24 * time.Hour
	diversityWindow   = 10
	topQueryCount     = 5
	noGenreNovelty    = 0.1
	genreNoveltyFloor = 0.15
	seenPenaltyFloor  = 0.2
)

// RankingService orders candidate lists by a composite desirability score:
// base quality, genre novelty against the user's history, a decaying penalty
// for recently seen items, a boost for matching frequent search queries, and
// a diversity reward against the last ten interactions. It holds no state of
// its own and performs no I/O.
type RankingService struct {
	wVote       float64
	wPopularity float64
	wSeen       float64
	wDiversity  float64
	queryBoost  float64

	now func() time.Time
}

// NewRankingService creates a new ranking service
func NewRankingService() *RankingService {
	return &RankingService{
		wVote:       0.4,
		wPopularity: 0.15,
		wSeen:       0.5,
		wDiversity:  0.25,
		queryBoost:  0.2,
		now:         time.Now,
	}
}

// Rank returns the candidates reordered by descending score. The sort is
// stable: candidates with equal scores keep their input order. Neither
// candidates nor history is mutated. The whole input comes back; filtering
// and deduplication stay with the caller.
func (s *RankingService) Rank(candidates []entities.Candidate, history *entities.HistoryState) []entities.RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if history == nil {
		history = entities.NewHistoryState()
	}

	nowMs := s.now().UnixMilli()
	genreCounts, totalMentions := genreFrequencies(history)
	queries := topQueries(history.QueryCounts, topQueryCount)
	recent := recentEvents(history.Events, diversityWindow)

	ranked := make([]entities.RankedCandidate, len(candidates))
	for i, c := range candidates {
		score, breakdown := s.calculateScore(c, history, nowMs, genreCounts, totalMentions, queries, recent)
		ranked[i] = entities.RankedCandidate{
			Candidate:      c,
			Score:          score,
			ScoreBreakdown: breakdown,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

func (s *RankingService) calculateScore(c entities.Candidate, history *entities.HistoryState, nowMs int64, genreCounts map[int]int, totalMentions int, topQueries []string, recent []entities.HistoryEvent) (float64, map[string]float64) {
	breakdown := make(map[string]float64)

	// 1. Base quality from catalog metadata. Missing fields score as zero.
	base := c.VoteAverage*s.wVote + math.Log(c.Popularity+1)*s.wPopularity
	breakdown["base"] = base

	// 2. Genre novelty: under-represented genres in the history score higher.
	novelty := noGenreNovelty
	if len(c.GenreIDs) > 0 {
		sum := 0.0
		for _, g := range c.GenreIDs {
			weight := 1.0
			if totalMentions > 0 {
				freq := float64(genreCounts[g]) / float64(totalMentions)
				weight = math.Max(genreNoveltyFloor, 1-freq)
			}
			sum += weight
		}
		novelty = sum / float64(len(c.GenreIDs))
	}
	breakdown["novelty"] = novelty

	// 3. Seen-recency penalty, decaying linearly over the 14-day window to a
	// floor of 0.2. Items never seen carry no penalty.
	seenPenalty := 0.0
	if lastSeen, ok := history.SeenMovies[entities.MovieKey(c.ID)]; ok {
		elapsed := float64(nowMs - lastSeen)
		seenPenalty = math.Max(seenPenaltyFloor, 1-elapsed/float64(seenDecayWindow.Milliseconds()))
	}
	breakdown["seen_penalty"] = seenPenalty

	// 4. Flat boost when the title contains one of the top search queries.
	queryBoost := 0.0
	title := strings.ToLower(c.Title)
	for _, q := range topQueries {
		if strings.Contains(title, q) {
			queryBoost = s.queryBoost
			break
		}
	}
	breakdown["query"] = queryBoost

	// 5. Diversity against the most recent interactions: the less a candidate
	// resembles what was just consumed, the higher the reward.
	avgSimilarity := 0.0
	if len(recent) > 0 {
		sum := 0.0
		for _, ev := range recent {
			sum += jaccard(c.GenreIDs, ev.Genres)
		}
		avgSimilarity = sum / float64(len(recent))
	}
	diversity := s.wDiversity * (1 - avgSimilarity)
	breakdown["diversity"] = diversity

	total := base + novelty + diversity + queryBoost - s.wSeen*seenPenalty
	return total, breakdown
}

// genreFrequencies counts genre mentions across every event that recorded
// genres.
func genreFrequencies(history *entities.HistoryState) (map[int]int, int) {
	counts := map[int]int{}
	total := 0
	for _, ev := range history.Events {
		for _, g := range ev.Genres {
			counts[g]++
			total++
		}
	}
	return counts, total
}

// topQueries returns the most frequent query strings, ordered by count
// descending with ties broken by ascending query text so the result is
// deterministic regardless of map iteration order.
func topQueries(queryCounts map[string]int, limit int) []string {
	queries := make([]string, 0, len(queryCounts))
	for q := range queryCounts {
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool {
		if queryCounts[queries[i]] != queryCounts[queries[j]] {
			return queryCounts[queries[i]] > queryCounts[queries[j]]
		}
		return queries[i] < queries[j]
	})
	if len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}

func recentEvents(events []entities.HistoryEvent, window int) []entities.HistoryEvent {
	if len(events) <= window {
		return events
	}
	return events[len(events)-window:]
}

// jaccard computes the similarity of two genre sets. An empty union counts
// as size one so that empty-vs-empty is similarity zero, not a division by
// zero.
func jaccard(a, b []int) float64 {
	setA := make(map[int]struct{}, len(a))
	for _, g := range a {
		setA[g] = struct{}{}
	}
	setB := make(map[int]struct{}, len(b))
	for _, g := range b {
		setB[g] = struct{}{}
	}

	intersection := 0
	for g := range setA {
		if _, ok := setB[g]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		union = 1
	}
	return float64(intersection) / float64(union)
}
