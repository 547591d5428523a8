package dto

import (
	"time"

	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/scoring"
	"github.com/lshigami/studydeck/internal/session"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type DeckResponse struct {
	ID                       string    `json:"id"`
	Title                    string    `json:"title"`
	Description              *string   `json:"description,omitempty"`
	ParentID                 *string   `json:"parentId"`
	IsSubdeck                bool      `json:"isSubdeck"`
	AvailableForPracticeTest bool      `json:"availableForPracticeTest"`
	IsPastPaper              bool      `json:"isPastPaper"`
	QuestionCount            int       `json:"questionCount"`
	TotalQuestionCount       int       `json:"totalQuestionCount"`
	SubdeckCount             int       `json:"subdeckCount"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

type QuestionResponse struct {
	ID              string                 `json:"id"`
	Text            string                 `json:"text"`
	Options         []model.QuestionOption `json:"options"`
	CorrectOptionID string                 `json:"correctOptionId"`
	DeckID          string                 `json:"deckId"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

type SubdeckOverview struct {
	Deck               DeckResponse    `json:"deck"`
	Metrics            scoring.Metrics `json:"metrics"`
	TotalQuestionCount int             `json:"totalQuestionCount"`
}

// DeckOverviewResponse carries metrics over the deck's whole subtree and one
// entry per direct subdeck, sorted as requested.
type DeckOverviewResponse struct {
	Deck     DeckResponse      `json:"deck"`
	Metrics  scoring.Metrics   `json:"metrics"`
	Subdecks []SubdeckOverview `json:"subdecks"`
	SortBy   string            `json:"sortBy"`
	Desc     bool              `json:"desc"`
}

type BreadcrumbItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ImportResponse struct {
	Deck              DeckResponse `json:"deck"`
	SubdecksImported  int          `json:"subdecksImported"`
	QuestionsImported int          `json:"questionsImported"`
}

type AnswerResponse struct {
	Answer  session.AnswerResult `json:"answer"`
	Session session.View         `json:"session"`
}

type BankResponse struct {
	Count     int                `json:"count"`
	Questions []QuestionResponse `json:"questions"`
}
