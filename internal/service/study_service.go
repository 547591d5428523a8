package service

import (
	"context"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/session"
)

// StudySettings holds server-wide session defaults.
type StudySettings struct {
	TimedByDefault bool
}

type StudyService interface {
	StartStudy(ctx context.Context, user model.UserContext, req dto.StartSessionRequest) (*session.View, error)
	StartBankPractice(ctx context.Context, user model.UserContext, req dto.StartBankPracticeRequest) (*session.View, error)
	StartPracticeTest(ctx context.Context, user model.UserContext, req dto.StartPracticeTestRequest) (*session.View, error)
	Current(user model.UserContext) (*session.View, error)
	Answer(user model.UserContext, req dto.AnswerRequest) (*dto.AnswerResponse, error)
	Advance(user model.UserContext) (*session.View, error)
	Start(user model.UserContext) (*session.View, error)
	Finish(user model.UserContext) (*session.View, error)
	Restart(ctx context.Context, user model.UserContext) (*session.View, error)
	End(user model.UserContext) error
}

type studyService struct {
	decks    repository.DeckStore
	engine   *session.Engine
	registry *session.Registry
	settings StudySettings
}

func NewStudyService(decks repository.DeckStore, engine *session.Engine, registry *session.Registry, settings StudySettings) StudyService {
	return &studyService{decks: decks, engine: engine, registry: registry, settings: settings}
}

// scope returns the deck and every question beneath it.
func (s *studyService) scope(ctx context.Context, user model.UserContext, deckID string) (model.Deck, []model.Question, error) {
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return model.Deck{}, nil, err
	}
	deck, ok := tree.Deck(deckID)
	if !ok {
		return model.Deck{}, nil, apperror.NotFound("load deck", "deck %s not found", deckID)
	}
	return deck, tree.AllQuestionsOf(deckID), nil
}

func (s *studyService) install(sess *session.Session, err error) (*session.View, error) {
	if err != nil {
		return nil, err
	}
	s.registry.Put(sess)
	view := sess.Snapshot()
	return &view, nil
}

func (s *studyService) StartStudy(ctx context.Context, user model.UserContext, req dto.StartSessionRequest) (*session.View, error) {
	deck, pool, err := s.scope(ctx, user, req.DeckID)
	if err != nil {
		return nil, err
	}
	return s.install(s.engine.StartStudy(ctx, user, deck, pool))
}

func (s *studyService) StartBankPractice(ctx context.Context, user model.UserContext, req dto.StartBankPracticeRequest) (*session.View, error) {
	if req.DeckID == "" {
		pool, err := s.decks.ListQuestions(ctx, user)
		if err != nil {
			return nil, err
		}
		return s.install(s.engine.StartBankPractice(ctx, user, model.Deck{Title: session.BankDeckTitle}, pool))
	}
	deck, pool, err := s.scope(ctx, user, req.DeckID)
	if err != nil {
		return nil, err
	}
	return s.install(s.engine.StartBankPractice(ctx, user, deck, pool))
}

func (s *studyService) StartPracticeTest(ctx context.Context, user model.UserContext, req dto.StartPracticeTestRequest) (*session.View, error) {
	deck, pool, err := s.scope(ctx, user, req.DeckID)
	if err != nil {
		return nil, err
	}
	if !deck.AvailableForPracticeTest {
		return nil, apperror.Policy("start practice test", "deck %q is not available for practice tests", deck.Title)
	}
	timed := s.settings.TimedByDefault
	if req.Timed != nil {
		timed = *req.Timed
	}
	return s.install(s.engine.StartPracticeTest(ctx, user, deck, pool, session.TestOptions{Count: req.Count, Timed: timed}))
}

func (s *studyService) current(user model.UserContext) (*session.Session, error) {
	sess, ok := s.registry.Get(user.UserID)
	if !ok {
		return nil, apperror.NotFound("current session", "no active session")
	}
	return sess, nil
}

func (s *studyService) Current(user model.UserContext) (*session.View, error) {
	sess, err := s.current(user)
	if err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *studyService) Answer(user model.UserContext, req dto.AnswerRequest) (*dto.AnswerResponse, error) {
	sess, err := s.current(user)
	if err != nil {
		return nil, err
	}
	res, err := sess.Answer(req.QuestionID, req.OptionID)
	if err != nil {
		return nil, err
	}
	return &dto.AnswerResponse{Answer: res, Session: sess.Snapshot()}, nil
}

// step runs a state transition on the current session and returns the new view.
func (s *studyService) step(user model.UserContext, fn func(*session.Session) error) (*session.View, error) {
	sess, err := s.current(user)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *studyService) Advance(user model.UserContext) (*session.View, error) {
	return s.step(user, (*session.Session).Advance)
}

func (s *studyService) Start(user model.UserContext) (*session.View, error) {
	return s.step(user, (*session.Session).Start)
}

func (s *studyService) Finish(user model.UserContext) (*session.View, error) {
	return s.step(user, (*session.Session).Finish)
}

func (s *studyService) Restart(ctx context.Context, user model.UserContext) (*session.View, error) {
	return s.step(user, func(sess *session.Session) error { return sess.Restart(ctx) })
}

func (s *studyService) End(user model.UserContext) error {
	if _, err := s.current(user); err != nil {
		return err
	}
	s.registry.Remove(user.UserID)
	return nil
}
