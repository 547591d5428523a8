package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/studydeck/internal/decktree"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/repository"
)

// loadTree reads a snapshot of every deck and question the user owns.
func loadTree(ctx context.Context, store repository.DeckStore, user model.UserContext) (*decktree.Tree, error) {
	decks, err := store.ListDecks(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load decks: %w", err)
	}
	questions, err := store.ListQuestions(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return decktree.New(decks, questions), nil
}

func toDeckResponse(tree *decktree.Tree, deck model.Deck) dto.DeckResponse {
	var resp dto.DeckResponse
	copier.Copy(&resp, &deck)
	if tree != nil {
		resp.QuestionCount = len(tree.QuestionsOf(deck.ID))
		resp.TotalQuestionCount = tree.TotalQuestionCount(deck.ID)
		resp.SubdeckCount = len(tree.SubdecksOf(deck.ID))
	}
	return resp
}

func toQuestionResponse(q model.Question) dto.QuestionResponse {
	var resp dto.QuestionResponse
	copier.Copy(&resp, &q)
	resp.Options = append([]model.QuestionOption{}, q.Options...)
	return resp
}

func toQuestionResponses(qs []model.Question) []dto.QuestionResponse {
	out := make([]dto.QuestionResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuestionResponse(q))
	}
	return out
}

func questionIDs(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
