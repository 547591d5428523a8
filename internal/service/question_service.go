package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/transfer"
	"github.com/rs/zerolog/log"
)

type QuestionService interface {
	ListQuestions(ctx context.Context, user model.UserContext, deckID string) ([]dto.QuestionResponse, error)
	CreateQuestion(ctx context.Context, user model.UserContext, deckID string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, user model.UserContext, id string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, user model.UserContext, id string) error
	Bank(ctx context.Context, user model.UserContext) (*dto.BankResponse, error)
}

type questionService struct {
	decks   repository.DeckStore
	history repository.QuestionStore
}

func NewQuestionService(decks repository.DeckStore, history repository.QuestionStore) QuestionService {
	return &questionService{decks: decks, history: history}
}

func (s *questionService) ListQuestions(ctx context.Context, user model.UserContext, deckID string) ([]dto.QuestionResponse, error) {
	if _, err := s.decks.GetDeck(ctx, user, deckID); err != nil {
		return nil, err
	}
	questions, err := s.decks.GetQuestions(ctx, user, deckID)
	if err != nil {
		return nil, err
	}
	return toQuestionResponses(questions), nil
}

func (s *questionService) CreateQuestion(ctx context.Context, user model.UserContext, deckID string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	q := model.Question{ID: model.NewID(), DeckID: deckID}
	if err := apply(&q, req); err != nil {
		return nil, err
	}
	if err := s.decks.UpsertQuestion(ctx, user, &q); err != nil {
		return nil, err
	}
	log.Info().Str("questionID", q.ID).Str("deckID", deckID).Msg("Question created")
	resp := toQuestionResponse(q)
	return &resp, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, user model.UserContext, id string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	q, err := s.decks.GetQuestion(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := apply(q, req); err != nil {
		return nil, err
	}
	if err := s.decks.UpsertQuestion(ctx, user, q); err != nil {
		return nil, err
	}
	resp := toQuestionResponse(*q)
	return &resp, nil
}

// apply copies the request onto q and checks the result.
func apply(q *model.Question, req dto.QuestionRequest) error {
	const op = "save question"
	q.Text = strings.TrimSpace(req.Text)
	if q.Text == "" {
		return apperror.Validation(op, "question text is required")
	}
	if utf8.RuneCountInString(q.Text) > transfer.MaxQuestionLength {
		return apperror.Validation(op, "question text must be at most %d characters", transfer.MaxQuestionLength)
	}
	q.Options = make([]model.QuestionOption, len(req.Options))
	for i, o := range req.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return apperror.Validation(op, "option %d text is required", i+1)
		}
		if utf8.RuneCountInString(text) > transfer.MaxOptionLength {
			return apperror.Validation(op, "option %d text must be at most %d characters", i+1, transfer.MaxOptionLength)
		}
		q.Options[i] = model.QuestionOption{ID: o.ID, Text: text}
	}
	q.CorrectOptionID = req.CorrectOptionID
	return q.Check()
}

func (s *questionService) DeleteQuestion(ctx context.Context, user model.UserContext, id string) error {
	return s.decks.DeleteQuestion(ctx, user, id)
}

// Bank lists the user's banked questions in the order they were added.
// Entries whose question has been deleted are skipped.
func (s *questionService) Bank(ctx context.Context, user model.UserContext) (*dto.BankResponse, error) {
	ids, err := s.history.BankQuestionIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	questions, err := s.decks.ListQuestions(ctx, user)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	resp := &dto.BankResponse{Questions: []dto.QuestionResponse{}}
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			resp.Questions = append(resp.Questions, toQuestionResponse(q))
		}
	}
	resp.Count = len(resp.Questions)
	return resp, nil
}
