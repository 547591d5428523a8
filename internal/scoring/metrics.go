package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lshigami/studydeck/internal/model"
)

// Metrics summarizes a question set. AverageScore is in [0,1], the rest are percentages.
type Metrics struct {
	AverageScore  float64 `json:"averageScore"`
	Accuracy      float64 `json:"accuracy"`
	Completion    float64 `json:"completion"`
	Mastery       float64 `json:"mastery"`
	QuestionCount int     `json:"questionCount"`
	AttemptCount  int     `json:"attemptCount"`
}

// Metrics aggregates scores over questions. Accuracy counts every historical
// attempt, completion only the scoring window.
func (m Model) Metrics(questions []model.Question, attemptsByQuestion map[string][]model.Attempt) Metrics {
	if len(questions) == 0 {
		return Metrics{}
	}

	var (
		totalScore float64
		total      int
		correct    int
		considered int
		mastered   int
	)
	for _, q := range questions {
		attempts := attemptsByQuestion[q.ID]
		score := m.Score(attempts)
		totalScore += score

		considered += min(len(attempts), Window)
		for _, a := range attempts {
			total++
			if a.IsCorrect {
				correct++
			}
		}
		if score == 1 {
			mastered++
		}
	}

	n := float64(len(questions))
	out := Metrics{
		AverageScore:  totalScore / n,
		Completion:    float64(considered) / (n * Window) * 100,
		Mastery:       float64(mastered) / n * 100,
		QuestionCount: len(questions),
		AttemptCount:  total,
	}
	if total > 0 {
		out.Accuracy = float64(correct) / float64(total) * 100
	}
	return out
}

type SortKey string

const (
	SortByName       SortKey = "name"
	SortByScore      SortKey = "score"
	SortByAccuracy   SortKey = "accuracy"
	SortByCompletion SortKey = "completion"
	SortByMastery    SortKey = "mastery"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByScore, nil
	case SortByName, SortByScore, SortByAccuracy, SortByCompletion, SortByMastery:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// DeckMetrics pairs a deck with the metrics of all questions beneath it.
type DeckMetrics struct {
	Deck           model.Deck `json:"deck"`
	Metrics        Metrics    `json:"metrics"`
	TotalQuestions int        `json:"totalQuestions"`
}

// SortDecks orders items in place. Ascending metric order puts the weakest deck first.
func SortDecks(items []DeckMetrics, key SortKey, descending bool) {
	value := func(d DeckMetrics) float64 {
		switch key {
		case SortByAccuracy:
			return d.Metrics.Accuracy
		case SortByCompletion:
			return d.Metrics.Completion
		case SortByMastery:
			return d.Metrics.Mastery
		default:
			return d.Metrics.AverageScore
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if key != SortByName {
			va, vb := value(a), value(b)
			if va != vb {
				if descending {
					return va > vb
				}
				return va < vb
			}
		}
		na, nb := strings.ToLower(a.Deck.Title), strings.ToLower(b.Deck.Title)
		if na != nb {
			if descending && key == SortByName {
				return na > nb
			}
			return na < nb
		}
		return a.Deck.ID < b.Deck.ID
	})
}
