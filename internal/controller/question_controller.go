package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/studydeck/internal/dto"
)

// ListQuestionsHandler godoc
// @Summary Questions owned directly by a deck
// @Tags Questions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Success 200 {array} dto.QuestionResponse
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id}/questions [get]
func (ctrl *Controller) ListQuestionsHandler(c *gin.Context) {
	questions, err := ctrl.questionSvc.ListQuestions(c.Request.Context(), currentUser(c), c.Param("deck_id"))
	if err != nil {
		respondError(c, "Failed to list questions", err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// CreateQuestionHandler godoc
// @Summary Add a question to a deck
// @Tags Questions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Param question body dto.QuestionRequest true "Question with 2 to 10 options"
// @Success 201 {object} dto.QuestionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid question"
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id}/questions [post]
func (ctrl *Controller) CreateQuestionHandler(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	q, err := ctrl.questionSvc.CreateQuestion(c.Request.Context(), currentUser(c), c.Param("deck_id"), req)
	if err != nil {
		respondError(c, "Failed to create question", err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// UpdateQuestionHandler godoc
// @Summary Replace a question's text and options
// @Tags Questions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param question_id path string true "Question ID"
// @Param question body dto.QuestionRequest true "Question with 2 to 10 options"
// @Success 200 {object} dto.QuestionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid question"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{question_id} [put]
func (ctrl *Controller) UpdateQuestionHandler(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	q, err := ctrl.questionSvc.UpdateQuestion(c.Request.Context(), currentUser(c), c.Param("question_id"), req)
	if err != nil {
		respondError(c, "Failed to update question", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// DeleteQuestionHandler godoc
// @Summary Delete a question
// @Tags Questions
// @Param X-User-ID header string true "User ID"
// @Param question_id path string true "Question ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{question_id} [delete]
func (ctrl *Controller) DeleteQuestionHandler(c *gin.Context) {
	if err := ctrl.questionSvc.DeleteQuestion(c.Request.Context(), currentUser(c), c.Param("question_id")); err != nil {
		respondError(c, "Failed to delete question", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BankHandler godoc
// @Summary Questions in the user's question bank
// @Tags Questions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} dto.BankResponse
// @Router /bank [get]
func (ctrl *Controller) BankHandler(c *gin.Context) {
	bank, err := ctrl.questionSvc.Bank(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, "Failed to load question bank", err)
		return
	}
	c.JSON(http.StatusOK, bank)
}
