package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/rs/zerolog/log"
)

// Session is one study or practice-test run. Its question list is frozen
// between restarts; every method is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	engine *Engine
	rng    *rand.Rand

	id    string
	kind  Kind
	user  model.UserContext
	deck  model.Deck
	pool  []model.Question
	count int
	timed bool

	state       State
	questions   []model.Question
	position    map[string]int
	current     int
	presentedAt time.Time
	answers     map[string]string
	responseMs  map[string]int
	incorrect   []model.Question
	recorded    map[string]bool
	inBank      map[string]bool
	countdown   *countdown
	generation  int
	result      *Result
}

type AnswerResult struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	// Revealed is false during practice tests; Correct and CorrectOptionID are then empty.
	Revealed        bool   `json:"revealed"`
	Correct         *bool  `json:"correct,omitempty"`
	CorrectOptionID string `json:"correctOptionId,omitempty"`
}

type Outcome struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
	CorrectOptionID  string `json:"correctOptionId"`
	Answered         bool   `json:"answered"`
	Correct          bool   `json:"correct"`
}

// Result summarizes a finished run. Unanswered questions count neither way.
type Result struct {
	Total                int       `json:"total"`
	Answered             int       `json:"answered"`
	Correct              int       `json:"correct"`
	Incorrect            int       `json:"incorrect"`
	Percentage           float64   `json:"percentage"`
	IncorrectQuestionIDs []string  `json:"incorrectQuestionIds"`
	UnansweredIDs        []string  `json:"unansweredQuestionIds"`
	Outcomes             []Outcome `json:"outcomes"`
	Expired              bool      `json:"expired"`
}

func (s *Session) ID() string { return s.id }

func (s *Session) Kind() Kind { return s.kind }

func (s *Session) UserID() string { return s.user.UserID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// reset installs a freshly drawn question list and clears all progress.
func (s *Session) reset(questions []model.Question) {
	s.state = NotStarted
	s.questions = questions
	s.position = make(map[string]int, len(questions))
	for i, q := range questions {
		s.position[q.ID] = i
	}
	s.current = 0
	s.answers = map[string]string{}
	s.responseMs = map[string]int{}
	s.incorrect = nil
	s.recorded = map[string]bool{}
	s.result = nil
}

// Start moves a NotStarted session to InProgress and arms the test timer.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != NotStarted {
		return apperror.Policy("start session", "session is %s", s.state)
	}
	now := s.engine.cfg.Clock.Now()
	s.state = InProgress
	s.presentedAt = now
	if s.kind == PracticeTest && s.timed {
		s.arm(now)
	}
	return nil
}

func (s *Session) arm(now time.Time) {
	budget := s.engine.testBudget(len(s.questions))
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	timer := s.engine.cfg.Clock.AfterFunc(budget, func() {
		if ctx.Err() != nil {
			return
		}
		s.expire(gen)
	})
	s.countdown = &countdown{deadline: now.Add(budget), timer: timer, cancel: cancel}
}

func (s *Session) disarm() {
	s.countdown.stop()
	s.countdown = nil
}

// Answer records a selection. Study sessions score it immediately, at most
// once per question per run; practice tests only remember it.
func (s *Session) Answer(questionID, optionID string) (AnswerResult, error) {
	const op = "answer"
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkDeadline()
	if s.state != InProgress {
		return AnswerResult{}, apperror.Policy(op, "session is %s", s.state)
	}
	idx, ok := s.position[questionID]
	if !ok {
		return AnswerResult{}, apperror.Validation(op, "question %s is not part of this session", questionID)
	}
	q := s.questions[idx]
	if _, ok := q.Option(optionID); !ok {
		return AnswerResult{}, apperror.Validation(op, "option %s does not belong to question %s", optionID, questionID)
	}

	s.answers[questionID] = optionID
	if idx == s.current {
		if _, seen := s.responseMs[questionID]; !seen {
			s.responseMs[questionID] = int(s.engine.cfg.Clock.Now().Sub(s.presentedAt).Milliseconds())
		}
	}

	res := AnswerResult{QuestionID: questionID, SelectedOptionID: optionID}
	if !s.kind.revealsAnswers() {
		return res, nil
	}

	correct := q.IsCorrect(optionID)
	s.score(q, correct)
	res.Revealed = true
	res.Correct = &correct
	res.CorrectOptionID = q.CorrectOptionID
	return res, nil
}

// score applies the side effects of a graded answer once per question.
func (s *Session) score(q model.Question, correct bool) {
	if s.recorded[q.ID] {
		return
	}
	s.recorded[q.ID] = true

	var ms *int
	if v, ok := s.responseMs[q.ID]; ok {
		ms = &v
	}
	s.engine.recordAttempt(s.user, q.ID, correct, ms)

	if !correct {
		s.incorrect = append(s.incorrect, q)
		if !s.inBank[q.ID] {
			s.inBank[q.ID] = true
			s.engine.addToBank(s.user, q.ID)
		}
		return
	}
	if s.kind == BankPractice && s.inBank[q.ID] {
		delete(s.inBank, q.ID)
		s.engine.removeFromBank(s.user, q.ID)
	}
}

// Advance moves to the next question, finishing after the last one.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkDeadline()
	if s.state != InProgress {
		return apperror.Policy("advance", "session is %s", s.state)
	}
	s.current++
	s.presentedAt = s.engine.cfg.Clock.Now()
	if s.current >= len(s.questions) {
		s.current = len(s.questions) - 1
		s.finish(false)
	}
	return nil
}

// Finish ends the run early, as if the last question had been passed.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return apperror.Policy("finish", "session is %s", s.state)
	}
	s.finish(false)
	return nil
}

// Expire force-finishes a timed test whose deadline has passed. Repeated
// calls, or calls on a finished session, do nothing.
func (s *Session) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkDeadline()
}

func (s *Session) expire(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != InProgress {
		return
	}
	s.finish(true)
}

func (s *Session) checkDeadline() {
	if s.state != InProgress || s.countdown == nil {
		return
	}
	if s.countdown.remaining(s.engine.cfg.Clock.Now()) == 0 {
		s.finish(true)
	}
}

func (s *Session) finish(expired bool) {
	s.disarm()
	s.state = Finished

	if s.kind == PracticeTest {
		for _, q := range s.questions {
			if opt, ok := s.answers[q.ID]; ok {
				s.score(q, q.IsCorrect(opt))
			}
		}
	}
	s.result = s.summarize(expired)

	if s.kind == PracticeTest {
		s.engine.recordTestSession(s.user, s.deck.ID, s.result.Total, s.result.Correct)
	}
	log.Info().Str("sessionID", s.id).Str("userID", s.user.UserID).Str("kind", s.kind.String()).
		Int("correct", s.result.Correct).Int("answered", s.result.Answered).Int("total", s.result.Total).
		Bool("expired", expired).Msg("Session finished")
}

func (s *Session) summarize(expired bool) *Result {
	r := &Result{
		Total:                len(s.questions),
		IncorrectQuestionIDs: []string{},
		UnansweredIDs:        []string{},
		Outcomes:             make([]Outcome, 0, len(s.questions)),
		Expired:              expired,
	}
	for _, q := range s.questions {
		opt, answered := s.answers[q.ID]
		o := Outcome{QuestionID: q.ID, SelectedOptionID: opt, CorrectOptionID: q.CorrectOptionID, Answered: answered}
		if answered {
			r.Answered++
			o.Correct = q.IsCorrect(opt)
			if o.Correct {
				r.Correct++
			} else {
				r.Incorrect++
			}
		} else {
			r.UnansweredIDs = append(r.UnansweredIDs, q.ID)
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	for _, q := range s.incorrect {
		r.IncorrectQuestionIDs = append(r.IncorrectQuestionIDs, q.ID)
	}
	if r.Total > 0 {
		r.Percentage = float64(r.Correct) / float64(r.Total) * 100
	}
	return r
}

// Restart discards progress and redraws the questions: practice tests are
// reshuffled, study runs re-scored. The session is left NotStarted.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.engine.draw(ctx, s)
	if err != nil {
		return err
	}
	s.disarm()
	s.generation++
	s.reset(questions)
	return nil
}

// Close stops the timer of a session that is being discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarm()
	s.generation++
}

// Questions returns the frozen question list.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.questions)
}
