package repository

import (
	"context"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) QuestionStore {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) GetAttempts(ctx context.Context, user model.UserContext, questionIDs []string) (map[string][]model.Attempt, error) {
	out := make(map[string][]model.Attempt, len(questionIDs))
	for _, part := range chunk(questionIDs, 500) {
		var attempts []model.Attempt
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND question_id IN ?", user.UserID, part).
			Order("created_at DESC").
			Find(&attempts).Error
		if err != nil {
			return nil, apperror.Storage("get attempts", err)
		}
		for _, a := range attempts {
			out[a.QuestionID] = append(out[a.QuestionID], a)
		}
	}
	return out, nil
}

// RecordAttempt appends an attempt and bumps the user's counters for the day.
func (r *attemptRepository) RecordAttempt(ctx context.Context, user model.UserContext, questionID string, isCorrect bool, responseTimeMs *int) error {
	now := r.db.NowFunc().UTC()
	attempt := model.Attempt{
		UserID:         user.UserID,
		QuestionID:     questionID,
		IsCorrect:      isCorrect,
		ResponseTimeMs: responseTimeMs,
		CreatedAt:      now,
	}

	correct := 0
	if isCorrect {
		correct = 1
	}
	activity := model.DailyActivity{
		UserID:             user.UserID,
		ActivityDate:       model.ActivityDate(now),
		QuestionsAttempted: 1,
		QuestionsCorrect:   correct,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"questions_attempted": gorm.Expr("daily_activities.questions_attempted + ?", 1),
				"questions_correct":   gorm.Expr("daily_activities.questions_correct + ?", correct),
			}),
		}).Create(&activity).Error
	})
	return apperror.Storage("record attempt", err)
}

func (r *attemptRepository) AddToBank(ctx context.Context, user model.UserContext, questionID string) error {
	entry := model.QuestionBankEntry{UserID: user.UserID, QuestionID: questionID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	return apperror.Storage("add to bank", err)
}

func (r *attemptRepository) RemoveFromBank(ctx context.Context, user model.UserContext, questionID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", user.UserID, questionID).
		Delete(&model.QuestionBankEntry{}).Error
	return apperror.Storage("remove from bank", err)
}

// BankQuestionIDs lists bank entries oldest first.
func (r *attemptRepository) BankQuestionIDs(ctx context.Context, user model.UserContext) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.QuestionBankEntry{}).
		Where("user_id = ?", user.UserID).
		Order("created_at ASC").
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, apperror.Storage("list bank", err)
	}
	return ids, nil
}

func (r *attemptRepository) RecordTestSession(ctx context.Context, user model.UserContext, deckID string, total, correct int) error {
	session := model.TestSession{
		UserID:         user.UserID,
		DeckID:         deckID,
		TotalQuestions: total,
		CorrectAnswers: correct,
		CompletedAt:    r.db.NowFunc().UTC(),
	}
	return apperror.Storage("record test session", r.db.WithContext(ctx).Create(&session).Error)
}
