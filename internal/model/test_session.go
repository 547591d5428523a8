package model

import (
	"time"

	"gorm.io/gorm"
)

// TestSession is the persisted summary of a finished practice test.
type TestSession struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	DeckID         string    `gorm:"type:varchar(36);not null;index" json:"deckId"`
	TotalQuestions int       `gorm:"not null" json:"totalQuestions"`
	CorrectAnswers int       `gorm:"not null" json:"correctAnswers"`
	CompletedAt    time.Time `gorm:"not null;index" json:"completedAt"`
}

func (s *TestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}
