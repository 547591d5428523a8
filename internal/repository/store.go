package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"gorm.io/gorm"
)

// DeckStore persists decks and the questions they own. Every call is scoped to
// the given user; another user's rows behave as missing.
type DeckStore interface {
	GetDeck(ctx context.Context, user model.UserContext, id string) (*model.Deck, error)
	GetChildren(ctx context.Context, user model.UserContext, parentID string) ([]model.Deck, error)
	GetQuestions(ctx context.Context, user model.UserContext, deckID string) ([]model.Question, error)
	UpsertDeck(ctx context.Context, user model.UserContext, deck *model.Deck) error
	DeleteDeck(ctx context.Context, user model.UserContext, id string) error // cascades to descendants and their questions

	ListDecks(ctx context.Context, user model.UserContext) ([]model.Deck, error)
	ListQuestions(ctx context.Context, user model.UserContext) ([]model.Question, error)
	GetQuestion(ctx context.Context, user model.UserContext, id string) (*model.Question, error)
	UpsertQuestion(ctx context.Context, user model.UserContext, question *model.Question) error
	DeleteQuestion(ctx context.Context, user model.UserContext, id string) error
	SaveTree(ctx context.Context, user model.UserContext, decks []model.Deck, questions []model.Question) error
}

// QuestionStore records answer history and question bank membership.
type QuestionStore interface {
	// GetAttempts returns attempts per question id, most recent first.
	GetAttempts(ctx context.Context, user model.UserContext, questionIDs []string) (map[string][]model.Attempt, error)
	RecordAttempt(ctx context.Context, user model.UserContext, questionID string, isCorrect bool, responseTimeMs *int) error
	AddToBank(ctx context.Context, user model.UserContext, questionID string) error
	RemoveFromBank(ctx context.Context, user model.UserContext, questionID string) error
	BankQuestionIDs(ctx context.Context, user model.UserContext) ([]string, error)
	RecordTestSession(ctx context.Context, user model.UserContext, deckID string, total, correct int) error
}

// ActivityStore serves the reporting queries.
type ActivityStore interface {
	// DailyActivity returns rows with from <= activity_date <= to (YYYY-MM-DD).
	DailyActivity(ctx context.Context, user model.UserContext, from, to string) ([]model.DailyActivity, error)
	// AttemptsBetween and TestSessionsBetween use the half-open range [from, to).
	AttemptsBetween(ctx context.Context, user model.UserContext, from, to time.Time) ([]model.Attempt, error)
	TestSessionsBetween(ctx context.Context, user model.UserContext, from, to time.Time) ([]model.TestSession, error)
	ActiveUsers(ctx context.Context, sinceDate string) ([]string, error)
}

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(op, "record not found")
	}
	return apperror.Storage(op, err)
}

// chunk splits ids so IN clauses stay under driver parameter limits.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
