package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/session"
)

func (ctrl *Controller) respondView(c *gin.Context, status int, message string, view *session.View, err error) {
	if err != nil {
		respondError(c, message, err)
		return
	}
	c.JSON(status, view)
}

// StartStudyHandler godoc
// @Summary Start a study session
// @Description Questions of the deck and its subdecks, weakest first. Replaces any running session.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param request body dto.StartSessionRequest true "Deck to study"
// @Success 201 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Failure 409 {object} dto.ErrorResponse "Deck has no questions"
// @Router /sessions/study [post]
func (ctrl *Controller) StartStudyHandler(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	view, err := ctrl.studySvc.StartStudy(c.Request.Context(), currentUser(c), req)
	ctrl.respondView(c, http.StatusCreated, "Failed to start study session", view, err)
}

// StartBankPracticeHandler godoc
// @Summary Practice questions from the question bank
// @Description Without a deckId, or without a body, every banked question of the user is practised.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param request body dto.StartBankPracticeRequest false "Optional deck scope"
// @Success 201 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Failure 409 {object} dto.ErrorResponse "No banked questions in scope"
// @Router /sessions/bank [post]
func (ctrl *Controller) StartBankPracticeHandler(c *gin.Context) {
	var req dto.StartBankPracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}
	view, err := ctrl.studySvc.StartBankPractice(c.Request.Context(), currentUser(c), req)
	ctrl.respondView(c, http.StatusCreated, "Failed to start bank practice", view, err)
}

// StartPracticeTestHandler godoc
// @Summary Start a practice test
// @Tags Sessions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param request body dto.StartPracticeTestRequest true "Deck, question count and timer"
// @Success 201 {object} session.View
// @Failure 400 {object} dto.ErrorResponse "Invalid question count"
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Failure 409 {object} dto.ErrorResponse "Not enough questions or deck not offered for tests"
// @Router /sessions/practice [post]
func (ctrl *Controller) StartPracticeTestHandler(c *gin.Context) {
	var req dto.StartPracticeTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	view, err := ctrl.studySvc.StartPracticeTest(c.Request.Context(), currentUser(c), req)
	ctrl.respondView(c, http.StatusCreated, "Failed to start practice test", view, err)
}

// CurrentSessionHandler godoc
// @Summary The user's running session
// @Tags Sessions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Router /sessions/current [get]
func (ctrl *Controller) CurrentSessionHandler(c *gin.Context) {
	view, err := ctrl.studySvc.Current(currentUser(c))
	ctrl.respondView(c, http.StatusOK, "Failed to load session", view, err)
}

// AnswerHandler godoc
// @Summary Select an option
// @Description Study and bank sessions reveal correctness immediately; practice tests do not.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param answer body dto.AnswerRequest true "Question and option"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Unknown question or option"
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Failure 409 {object} dto.ErrorResponse "Session is not in progress"
// @Router /sessions/current/answer [post]
func (ctrl *Controller) AnswerHandler(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := ctrl.studySvc.Answer(currentUser(c), req)
	if err != nil {
		respondError(c, "Failed to record answer", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdvanceHandler godoc
// @Summary Move to the next question
// @Tags Sessions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Failure 409 {object} dto.ErrorResponse "Session is not in progress"
// @Router /sessions/current/advance [post]
func (ctrl *Controller) AdvanceHandler(c *gin.Context) {
	view, err := ctrl.studySvc.Advance(currentUser(c))
	ctrl.respondView(c, http.StatusOK, "Failed to advance session", view, err)
}

// StartSessionHandler godoc
// @Summary Start a restarted session
// @Tags Sessions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Failure 409 {object} dto.ErrorResponse "Session already started"
// @Router /sessions/current/start [post]
func (ctrl *Controller) StartSessionHandler(c *gin.Context) {
	view, err := ctrl.studySvc.Start(currentUser(c))
	ctrl.respondView(c, http.StatusOK, "Failed to start session", view, err)
}

// FinishSessionHandler godoc
// @Summary Finish the session early
// @Tags Sessions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Failure 409 {object} dto.ErrorResponse "Session is not in progress"
// @Router /sessions/current/finish [post]
func (ctrl *Controller) FinishSessionHandler(c *gin.Context) {
	view, err := ctrl.studySvc.Finish(currentUser(c))
	ctrl.respondView(c, http.StatusOK, "Failed to finish session", view, err)
}

// RestartSessionHandler godoc
// @Summary Restart with a freshly drawn question set
// @Description The session is left not started; call start to begin.
// @Tags Sessions
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} session.View
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Failure 409 {object} dto.ErrorResponse "Nothing left to draw"
// @Router /sessions/current/restart [post]
func (ctrl *Controller) RestartSessionHandler(c *gin.Context) {
	view, err := ctrl.studySvc.Restart(c.Request.Context(), currentUser(c))
	ctrl.respondView(c, http.StatusOK, "Failed to restart session", view, err)
}

// EndSessionHandler godoc
// @Summary Discard the current session
// @Tags Sessions
// @Param X-User-ID header string true "User ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "No active session"
// @Router /sessions/current [delete]
func (ctrl *Controller) EndSessionHandler(c *gin.Context) {
	if err := ctrl.studySvc.End(currentUser(c)); err != nil {
		respondError(c, "Failed to end session", err)
		return
	}
	c.Status(http.StatusNoContent)
}
