package model

import "time"

// QuestionBankEntry marks a question the user answered incorrectly and has not re-mastered.
type QuestionBankEntry struct {
	UserID     string    `gorm:"type:varchar(64);primaryKey" json:"userId"`
	QuestionID string    `gorm:"type:varchar(36);primaryKey" json:"questionId"`
	CreatedAt  time.Time `json:"createdAt"`
}
