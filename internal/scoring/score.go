package scoring

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/lshigami/studydeck/internal/model"
)

const (
	// Window is how many of the most recent attempts feed a score.
	Window = 3

	DecayPerDay = 0.01
	MaxDecay    = 0.30
)

// Model turns attempt histories into priority scores in [0, 1].
// The zero value scores without recency decay.
type Model struct {
	Decay bool
	Now   func() time.Time
}

func (m Model) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Score rates a question from its attempt history. Attempts may be in any order.
// Each of the last three correct attempts is worth 1/3, an incorrect one 0 and
// every missing slot 1/10, so an untouched question starts at 0.3.
func (m Model) Score(attempts []model.Attempt) float64 {
	recent := Latest(attempts, Window)

	correct := 0
	for _, a := range recent {
		if a.IsCorrect {
			correct++
		}
	}
	missing := Window - len(recent)
	raw := float64(correct)/Window + float64(missing)/10

	if !m.Decay {
		return raw
	}
	return math.Max(raw-m.decay(recent), 0)
}

func (m Model) decay(recent []model.Attempt) float64 {
	if len(recent) == 0 {
		return MaxDecay
	}
	days := math.Floor(m.now().Sub(recent[0].CreatedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return math.Min(days*DecayPerDay, MaxDecay)
}

// Latest returns up to n attempts, most recent first, without modifying the input.
func Latest(attempts []model.Attempt, n int) []model.Attempt {
	sorted := make([]model.Attempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Rank orders questions weakest first. Equal scores are shuffled with rng;
// a nil rng falls back to the global source.
func (m Model) Rank(questions []model.Question, attemptsByQuestion map[string][]model.Attempt, rng *rand.Rand) []model.Question {
	type ranked struct {
		question model.Question
		score    float64
		tie      int64
	}

	items := make([]ranked, len(questions))
	for i, q := range questions {
		var tie int64
		if rng != nil {
			tie = rng.Int63()
		} else {
			tie = rand.Int63()
		}
		items[i] = ranked{question: q, score: m.Score(attemptsByQuestion[q.ID]), tie: tie}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score < items[j].score
		}
		return items[i].tie < items[j].tie
	})

	out := make([]model.Question, len(items))
	for i, it := range items {
		out[i] = it.question
	}
	return out
}
