package repository

import (
	"context"
	"time"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"gorm.io/gorm"
)

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityStore {
	return &activityRepository{db: db}
}

func (r *activityRepository) DailyActivity(ctx context.Context, user model.UserContext, from, to string) ([]model.DailyActivity, error) {
	var rows []model.DailyActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_date >= ? AND activity_date <= ?", user.UserID, from, to).
		Order("activity_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Storage("daily activity", err)
	}
	return rows, nil
}

func (r *activityRepository) AttemptsBetween(ctx context.Context, user model.UserContext, from, to time.Time) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", user.UserID, from.UTC(), to.UTC()).
		Order("created_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, apperror.Storage("attempts between", err)
	}
	return attempts, nil
}

func (r *activityRepository) TestSessionsBetween(ctx context.Context, user model.UserContext, from, to time.Time) ([]model.TestSession, error) {
	var sessions []model.TestSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed_at >= ? AND completed_at < ?", user.UserID, from.UTC(), to.UTC()).
		Order("completed_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, apperror.Storage("test sessions between", err)
	}
	return sessions, nil
}

func (r *activityRepository) ActiveUsers(ctx context.Context, sinceDate string) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).Model(&model.DailyActivity{}).
		Where("activity_date >= ?", sinceDate).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &users).Error
	if err != nil {
		return nil, apperror.Storage("active users", err)
	}
	return users, nil
}
