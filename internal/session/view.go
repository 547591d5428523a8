package session

import (
	"time"

	"github.com/lshigami/studydeck/internal/model"
)

// QuestionView is a question as shown to the user, without its answer.
type QuestionView struct {
	ID      string                 `json:"id"`
	Text    string                 `json:"text"`
	DeckID  string                 `json:"deckId"`
	Options []model.QuestionOption `json:"options"`
}

type View struct {
	ID                   string            `json:"id"`
	Kind                 Kind              `json:"kind"`
	State                State             `json:"state"`
	DeckID               string            `json:"deckId"`
	DeckTitle            string            `json:"deckTitle"`
	Total                int               `json:"total"`
	CurrentIndex         int               `json:"currentIndex"`
	Current              *QuestionView     `json:"current,omitempty"`
	Answers              map[string]string `json:"answers"`
	IncorrectQuestionIDs []string          `json:"incorrectQuestionIds"`
	RemainingSeconds     *int              `json:"remainingSeconds,omitempty"`
	Deadline             *time.Time        `json:"deadline,omitempty"`
	Result               *Result           `json:"result,omitempty"`
}

// Snapshot returns a copy of the session state. It also finishes a timed test
// whose deadline passed while no timer callback ran.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkDeadline()

	v := View{
		ID:                   s.id,
		Kind:                 s.kind,
		State:                s.state,
		DeckID:               s.deck.ID,
		DeckTitle:            s.deck.Title,
		Total:                len(s.questions),
		CurrentIndex:         s.current,
		Answers:              make(map[string]string, len(s.answers)),
		IncorrectQuestionIDs: make([]string, 0, len(s.incorrect)),
		Result:               s.result,
	}
	for k, opt := range s.answers {
		v.Answers[k] = opt
	}
	for _, q := range s.incorrect {
		v.IncorrectQuestionIDs = append(v.IncorrectQuestionIDs, q.ID)
	}
	if s.state != Finished && s.current < len(s.questions) {
		q := s.questions[s.current]
		v.Current = &QuestionView{ID: q.ID, Text: q.Text, DeckID: q.DeckID, Options: append([]model.QuestionOption(nil), q.Options...)}
	}
	if s.countdown != nil {
		secs := int(s.countdown.remaining(s.engine.cfg.Clock.Now()).Seconds())
		deadline := s.countdown.deadline
		v.RemainingSeconds = &secs
		v.Deadline = &deadline
	}
	return v
}
