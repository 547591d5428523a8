package dto

import "github.com/lshigami/studydeck/internal/model"

type CreateDeckRequest struct {
	Title                    string  `json:"title" binding:"required,max=200"`
	Description              *string `json:"description" binding:"omitempty,max=2000"`
	ParentID                 *string `json:"parentId"`
	AvailableForPracticeTest bool    `json:"availableForPracticeTest"`
	IsPastPaper              bool    `json:"isPastPaper"`
}

// UpdateDeckRequest changes deck fields; nil fields are left untouched.
// Reparenting goes through MoveDeckRequest.
type UpdateDeckRequest struct {
	Title                    *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description              *string `json:"description" binding:"omitempty,max=2000"`
	AvailableForPracticeTest *bool   `json:"availableForPracticeTest"`
	IsPastPaper              *bool   `json:"isPastPaper"`
}

type MoveDeckRequest struct {
	// ParentID nil or empty moves the deck to the top level.
	ParentID *string `json:"parentId"`
}

type QuestionRequest struct {
	Text            string                 `json:"text" binding:"required,max=2000"`
	Options         []model.QuestionOption `json:"options" binding:"required,min=2,max=10,dive"`
	CorrectOptionID string                 `json:"correctOptionId" binding:"required"`
}

type ImportTextRequest struct {
	Text     string  `json:"text" binding:"required"`
	ParentID *string `json:"parentId"`
}

type StartSessionRequest struct {
	DeckID string `json:"deckId" binding:"required"`
}

type StartBankPracticeRequest struct {
	// DeckID limits practice to one deck and its subdecks; empty practises the whole bank.
	DeckID string `json:"deckId"`
}

type StartPracticeTestRequest struct {
	DeckID string `json:"deckId" binding:"required"`
	Count  int    `json:"count" binding:"required"`
	// Timed defaults to the server setting when omitted.
	Timed *bool `json:"timed"`
}

type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}
