package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is an append-only answer record.
type Attempt struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string    `gorm:"type:varchar(64);not null;index:idx_attempts_user_question" json:"userId"`
	QuestionID     string    `gorm:"type:varchar(36);not null;index:idx_attempts_user_question" json:"questionId"`
	IsCorrect      bool      `gorm:"not null" json:"isCorrect"`
	ResponseTimeMs *int      `json:"responseTimeMs"`
	CreatedAt      time.Time `gorm:"not null;index" json:"createdAt"`
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}
