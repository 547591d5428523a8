package model

import (
	"time"

	"github.com/lshigami/studydeck/internal/apperror"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinOptions = 2
	MaxOptions = 10
)

type QuestionOption struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required,max=500"`
}

type Question struct {
	ID              string                              `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string                              `gorm:"type:varchar(64);not null;index" json:"-"`
	Text            string                              `gorm:"type:text;not null" json:"text" validate:"required,max=2000"`
	Options         datatypes.JSONSlice[QuestionOption] `json:"options" validate:"min=2,max=10,dive"`
	CorrectOptionID string                              `gorm:"type:varchar(36);not null" json:"correctOptionId" validate:"required"`
	DeckID          string                              `gorm:"type:varchar(36);not null;index" json:"deckId"`
	Position        int                                 `gorm:"not null" json:"-"`
	CreatedAt       time.Time                           `json:"-"`
	UpdatedAt       time.Time                           `json:"-"`
	DeletedAt       gorm.DeletedAt                      `gorm:"index" json:"-"`
}

func (q *Question) Option(id string) (QuestionOption, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return QuestionOption{}, false
}

func (q *Question) IsCorrect(optionID string) bool {
	return optionID != "" && optionID == q.CorrectOptionID
}

// Check enforces the option invariants: 2..10 options, unique non-empty ids,
// and a correctOptionId matching exactly one of them.
func (q *Question) Check() error {
	const op = "check question"
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return apperror.Validation(op, "question %q must have between %d and %d options, has %d", q.Text, MinOptions, MaxOptions, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	matches := 0
	for _, o := range q.Options {
		if o.ID == "" {
			return apperror.Validation(op, "question %q has an option without id", q.Text)
		}
		if _, dup := seen[o.ID]; dup {
			return apperror.Validation(op, "question %q has duplicate option id %q", q.Text, o.ID)
		}
		seen[o.ID] = struct{}{}
		if o.ID == q.CorrectOptionID {
			matches++
		}
	}
	if matches != 1 {
		return apperror.Validation(op, "question %q: correctOptionId %q does not match an option", q.Text, q.CorrectOptionID)
	}
	return nil
}

func (q *Question) BeforeSave(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	return nil
}
