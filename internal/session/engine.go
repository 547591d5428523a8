package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/outbox"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/scoring"
	"github.com/rs/zerolog/log"
)

const DefaultSecondsPerQuestion = 60

type Config struct {
	Scoring            scoring.Model
	SecondsPerQuestion int
	Clock              Clock
	// Seed fixes the shuffle source; 0 seeds from the clock.
	Seed int64
}

// Engine creates sessions and carries their side effects to the store.
type Engine struct {
	store  repository.QuestionStore
	outbox *outbox.Outbox
	cfg    Config

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(store repository.QuestionStore, out *outbox.Outbox, cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.SecondsPerQuestion <= 0 {
		cfg.SecondsPerQuestion = DefaultSecondsPerQuestion
	}
	if cfg.Scoring.Now == nil {
		cfg.Scoring.Now = cfg.Clock.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = cfg.Clock.Now().UnixNano()
	}
	return &Engine{store: store, outbox: out, cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// TestOptions configures a practice test.
type TestOptions struct {
	Count int
	Timed bool
}

// StartStudy begins a weakest-first run over pool, the deck's transitive questions.
func (e *Engine) StartStudy(ctx context.Context, user model.UserContext, deck model.Deck, pool []model.Question) (*Session, error) {
	if len(pool) == 0 {
		return nil, apperror.Policy("start study", "deck %q has no questions to study", deck.Title)
	}
	return e.start(ctx, &Session{kind: Study, user: user, deck: deck, pool: clone(pool)})
}

// BankDeckTitle names the scope of a bank practice run that spans every deck.
const BankDeckTitle = "Question Bank"

// StartBankPractice drills the pool's questions that sit in the user's bank.
// A deck without an id stands for the whole bank, pool then holds every
// question the user owns.
func (e *Engine) StartBankPractice(ctx context.Context, user model.UserContext, deck model.Deck, pool []model.Question) (*Session, error) {
	if len(pool) == 0 {
		if deck.ID == "" {
			return nil, apperror.Policy("start bank practice", "the question bank is empty")
		}
		return nil, apperror.Policy("start bank practice", "deck %q has no questions", deck.Title)
	}
	return e.start(ctx, &Session{kind: BankPractice, user: user, deck: deck, pool: clone(pool)})
}

// StartPracticeTest draws opts.Count questions from pool. Past-paper decks keep
// their stored order; others are sampled at random.
func (e *Engine) StartPracticeTest(ctx context.Context, user model.UserContext, deck model.Deck, pool []model.Question, opts TestOptions) (*Session, error) {
	const op = "start practice test"
	if len(pool) == 0 {
		return nil, apperror.Policy(op, "deck %q has no questions", deck.Title)
	}
	if opts.Count <= 0 {
		return nil, apperror.Validation(op, "question count must be positive, got %d", opts.Count)
	}
	if opts.Count > len(pool) {
		return nil, apperror.Policy(op, "requested %d questions but deck %q only has %d", opts.Count, deck.Title, len(pool))
	}
	return e.start(ctx, &Session{kind: PracticeTest, user: user, deck: deck, pool: clone(pool), count: opts.Count, timed: opts.Timed})
}

func (e *Engine) start(ctx context.Context, s *Session) (*Session, error) {
	s.id = model.NewID()
	s.engine = e
	s.rng = e.newRand()

	questions, err := e.draw(ctx, s)
	if err != nil {
		return nil, err
	}
	s.reset(questions)
	s.inBank = e.bankSet(ctx, s.user)

	if err := s.Start(); err != nil {
		return nil, err
	}
	log.Info().Str("sessionID", s.id).Str("userID", s.user.UserID).Str("deckID", s.deck.ID).
		Str("kind", s.kind.String()).Int("questions", len(questions)).Msg("Session started")
	return s, nil
}

func (e *Engine) newRand() *rand.Rand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rand.New(rand.NewSource(e.rng.Int63()))
}

// draw produces a fresh question order for s according to its kind.
func (e *Engine) draw(ctx context.Context, s *Session) ([]model.Question, error) {
	switch s.kind {
	case Study:
		attempts, err := e.store.GetAttempts(ctx, s.user, ids(s.pool))
		if err != nil {
			log.Warn().Err(err).Str("deckID", s.deck.ID).Msg("Could not load attempts, ordering without history")
			attempts = nil
		}
		return e.cfg.Scoring.Rank(s.pool, attempts, s.rng), nil

	case BankPractice:
		bank, err := e.store.BankQuestionIDs(ctx, s.user)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]model.Question, len(s.pool))
		for _, q := range s.pool {
			byID[q.ID] = q
		}
		var out []model.Question
		for _, id := range bank {
			if q, ok := byID[id]; ok {
				out = append(out, q)
			}
		}
		if len(out) == 0 {
			if s.deck.ID == "" {
				return nil, apperror.Policy("start bank practice", "the question bank is empty")
			}
			return nil, apperror.Policy("start bank practice", "no questions from deck %q are in the question bank", s.deck.Title)
		}
		return out, nil

	default:
		if s.deck.IsPastPaper {
			return clone(s.pool[:s.count]), nil
		}
		shuffled := clone(s.pool)
		s.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled[:s.count], nil
	}
}

func (e *Engine) bankSet(ctx context.Context, user model.UserContext) map[string]bool {
	set := map[string]bool{}
	bank, err := e.store.BankQuestionIDs(ctx, user)
	if err != nil {
		log.Warn().Err(err).Str("userID", user.UserID).Msg("Could not load question bank")
		return set
	}
	for _, id := range bank {
		set[id] = true
	}
	return set
}

func (e *Engine) testBudget(n int) time.Duration {
	return time.Duration(n*e.cfg.SecondsPerQuestion) * time.Second
}

func (e *Engine) recordAttempt(user model.UserContext, questionID string, correct bool, responseMs *int) {
	e.outbox.Enqueue(outbox.Job{
		Name:   "record_attempt",
		UserID: user.UserID,
		Run: func(ctx context.Context) error {
			return e.store.RecordAttempt(ctx, user, questionID, correct, responseMs)
		},
	})
}

func (e *Engine) addToBank(user model.UserContext, questionID string) {
	e.outbox.Enqueue(outbox.Job{
		Name:   "add_to_bank",
		UserID: user.UserID,
		Run: func(ctx context.Context) error {
			return e.store.AddToBank(ctx, user, questionID)
		},
	})
}

func (e *Engine) removeFromBank(user model.UserContext, questionID string) {
	e.outbox.Enqueue(outbox.Job{
		Name:   "remove_from_bank",
		UserID: user.UserID,
		Run: func(ctx context.Context) error {
			return e.store.RemoveFromBank(ctx, user, questionID)
		},
	})
}

func (e *Engine) recordTestSession(user model.UserContext, deckID string, total, correct int) {
	e.outbox.Enqueue(outbox.Job{
		Name:   "record_test_session",
		UserID: user.UserID,
		Run: func(ctx context.Context) error {
			return e.store.RecordTestSession(ctx, user, deckID, total, correct)
		},
	})
}

func clone(qs []model.Question) []model.Question {
	out := make([]model.Question, len(qs))
	copy(out, qs)
	return out
}

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
