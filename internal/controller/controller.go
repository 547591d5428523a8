package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/report"
	"github.com/lshigami/studydeck/internal/service"
	"github.com/rs/zerolog/log"
)

// UserHeader carries the caller's user id. It is trusted as-is.
const UserHeader = "X-User-ID"

const userKey = "user"

type Controller struct {
	deckSvc     service.DeckService
	questionSvc service.QuestionService
	studySvc    service.StudyService
	reports     *report.Builder
}

func NewController(deckSvc service.DeckService, questionSvc service.QuestionService, studySvc service.StudyService, reports *report.Builder) *Controller {
	return &Controller{
		deckSvc:     deckSvc,
		questionSvc: questionSvc,
		studySvc:    studySvc,
		reports:     reports,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1", RequireUser())
	{
		decks := apiV1.Group("/decks")
		decks.GET("", ctrl.ListDecksHandler)
		decks.POST("", ctrl.CreateDeckHandler)
		decks.POST("/import", ctrl.ImportDeckHandler)
		decks.POST("/import/text", ctrl.ImportTextHandler)
		decks.POST("/import/text/preview", ctrl.PreviewTextHandler)
		decks.GET("/:deck_id", ctrl.GetDeckHandler)
		decks.PUT("/:deck_id", ctrl.UpdateDeckHandler)
		decks.DELETE("/:deck_id", ctrl.DeleteDeckHandler)
		decks.POST("/:deck_id/move", ctrl.MoveDeckHandler)
		decks.GET("/:deck_id/overview", ctrl.DeckOverviewHandler)
		decks.GET("/:deck_id/breadcrumb", ctrl.BreadcrumbHandler)
		decks.GET("/:deck_id/export", ctrl.ExportDeckHandler)
		decks.GET("/:deck_id/questions", ctrl.ListQuestionsHandler)
		decks.POST("/:deck_id/questions", ctrl.CreateQuestionHandler)

		apiV1.GET("/practice-tests", ctrl.PracticeTestsHandler)

		questions := apiV1.Group("/questions")
		questions.PUT("/:question_id", ctrl.UpdateQuestionHandler)
		questions.DELETE("/:question_id", ctrl.DeleteQuestionHandler)

		sessions := apiV1.Group("/sessions")
		sessions.POST("/study", ctrl.StartStudyHandler)
		sessions.POST("/bank", ctrl.StartBankPracticeHandler)
		sessions.POST("/practice", ctrl.StartPracticeTestHandler)
		sessions.GET("/current", ctrl.CurrentSessionHandler)
		sessions.POST("/current/answer", ctrl.AnswerHandler)
		sessions.POST("/current/advance", ctrl.AdvanceHandler)
		sessions.POST("/current/start", ctrl.StartSessionHandler)
		sessions.POST("/current/finish", ctrl.FinishSessionHandler)
		sessions.POST("/current/restart", ctrl.RestartSessionHandler)
		sessions.DELETE("/current", ctrl.EndSessionHandler)

		apiV1.GET("/bank", ctrl.BankHandler)
		apiV1.GET("/reports/weekly", ctrl.WeeklyReportHandler)
	}
}

// RequireUser rejects requests without a user id header.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(UserHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: UserHeader + " header is required"})
			return
		}
		c.Set(userKey, model.UserContext{UserID: id})
		c.Next()
	}
}

func currentUser(c *gin.Context) model.UserContext {
	if u, ok := c.Get(userKey); ok {
		return u.(model.UserContext)
	}
	return model.UserContext{}
}

func statusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindPolicy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Storage and unknown
// errors hide their cause from the client.
func respondError(c *gin.Context, message string, err error) {
	status := statusOf(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.FullPath()).Str("userID", currentUser(c).UserID).Msg(message)

	resp := dto.ErrorResponse{Message: message}
	if status < http.StatusInternalServerError {
		resp.Details = []string{apperror.Message(err)}
	}
	c.JSON(status, resp)
}

func bindError(c *gin.Context, err error) {
	log.Warn().Err(err).Str("path", c.FullPath()).Msg("Failed to bind request")
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
}
