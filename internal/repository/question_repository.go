package repository

import (
	"context"
	"errors"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"gorm.io/gorm"
)

func (r *deckRepository) GetQuestion(ctx context.Context, user model.UserContext, id string) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, user.UserID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("get question", "question %s not found", id)
	}
	if err != nil {
		return nil, apperror.Storage("get question", err)
	}
	return &question, nil
}

// UpsertQuestion requires the owning deck to belong to the user.
func (r *deckRepository) UpsertQuestion(ctx context.Context, user model.UserContext, question *model.Question) error {
	const op = "upsert question"
	question.UserID = user.UserID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deckOwner, err := ownerOf(tx, &model.Deck{}, question.DeckID)
		if err != nil {
			return apperror.Storage(op, err)
		}
		if deckOwner != user.UserID {
			return apperror.NotFound(op, "deck %s not found", question.DeckID)
		}

		owner, err := ownerOf(tx, &model.Question{}, question.ID)
		if err != nil {
			return apperror.Storage(op, err)
		}
		switch owner {
		case "":
			if question.Position == 0 {
				var count int64
				if err := tx.Model(&model.Question{}).Where("deck_id = ?", question.DeckID).Count(&count).Error; err != nil {
					return apperror.Storage(op, err)
				}
				question.Position = int(count)
			}
			return translate(op, tx.Create(question).Error)
		case user.UserID:
			return translate(op, tx.Save(question).Error)
		default:
			return apperror.NotFound(op, "question %s not found", question.ID)
		}
	})
}

func (r *deckRepository) DeleteQuestion(ctx context.Context, user model.UserContext, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, user.UserID).Delete(&model.Question{})
	if res.Error != nil {
		return apperror.Storage("delete question", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("delete question", "question %s not found", id)
	}
	return nil
}
