package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/studydeck/internal/controller"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/outbox"
	"github.com/lshigami/studydeck/internal/report"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/scoring"
	"github.com/lshigami/studydeck/internal/service"
	"github.com/lshigami/studydeck/internal/session"
	"github.com/lshigami/studydeck/internal/textdeck"
	"github.com/lshigami/studydeck/internal/testdb"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	outbox *outbox.Outbox
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.Open(t)
	decks := repository.NewDeckRepository(db)
	history := repository.NewAttemptRepository(db)

	out := outbox.New(time.Second)
	out.Start(1)
	t.Cleanup(func() { _ = out.Stop(context.Background()) })
	registry := session.NewRegistry()
	t.Cleanup(registry.CloseAll)

	engine := session.NewEngine(history, out, session.Config{Seed: 1})
	ctrl := controller.NewController(
		service.NewDeckService(decks, history, scoring.Model{}),
		service.NewQuestionService(decks, history),
		service.NewStudyService(decks, engine, registry, service.StudySettings{}),
		report.NewBuilder(repository.NewActivityRepository(db)),
	)
	router := gin.New()
	ctrl.RegisterRoutes(router)
	return &api{t: t, router: router, outbox: out}
}

func (a *api) do(method, path, user string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(controller.UserHeader, user)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func TestRequireUser(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/decks", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = a.do(http.MethodGet, "/decks", "alice", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]dto.DeckResponse](t, w); len(got) != 0 {
		t.Errorf("decks = %+v", got)
	}
}

func TestErrorStatuses(t *testing.T) {
	a := newAPI(t)
	deck := decode[dto.DeckResponse](t, a.do(http.MethodPost, "/decks", "alice", map[string]any{"title": "Deck"}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing title", http.MethodPost, "/decks", map[string]any{}, http.StatusBadRequest},
		{"unknown deck", http.MethodGet, "/decks/nope", nil, http.StatusNotFound},
		{"bad sort key", http.MethodGet, "/decks/" + deck.ID + "/overview?sort=bogus", nil, http.StatusBadRequest},
		{"bad desc flag", http.MethodGet, "/decks/" + deck.ID + "/overview?desc=maybe", nil, http.StatusBadRequest},
		{"move into itself", http.MethodPost, "/decks/" + deck.ID + "/move", map[string]any{"parentId": deck.ID}, http.StatusConflict},
		{"study empty deck", http.MethodPost, "/sessions/study", map[string]any{"deckId": deck.ID}, http.StatusConflict},
		{"no session", http.MethodGet, "/sessions/current", nil, http.StatusNotFound},
		{"broken import", http.MethodPost, "/decks/import", "not a document", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(tt.method, tt.path, "alice", tt.body)
			expectStatus(t, w, tt.want)
			if resp := decode[dto.ErrorResponse](t, w); resp.Message == "" {
				t.Errorf("error body without message: %s", w.Body.String())
			}
		})
	}

	// other users cannot see the deck
	expectStatus(t, a.do(http.MethodGet, "/decks/"+deck.ID, "bob", nil), http.StatusNotFound)
}

func TestStudyFlow(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/decks", "alice", map[string]any{"title": "Geography", "availableForPracticeTest": true})
	expectStatus(t, w, http.StatusCreated)
	deck := decode[dto.DeckResponse](t, w)

	w = a.do(http.MethodPost, "/decks/"+deck.ID+"/questions", "alice", map[string]any{
		"text":            "Capital of Italy?",
		"options":         []map[string]string{{"id": "rome", "text": "Rome"}, {"id": "milan", "text": "Milan"}},
		"correctOptionId": "rome",
	})
	expectStatus(t, w, http.StatusCreated)
	q := decode[dto.QuestionResponse](t, w)

	w = a.do(http.MethodPost, "/sessions/study", "alice", map[string]any{"deckId": deck.ID})
	expectStatus(t, w, http.StatusCreated)
	view := decode[session.View](t, w)
	if view.Current == nil || view.Current.ID != q.ID || view.Total != 1 {
		t.Fatalf("view = %+v", view)
	}

	w = a.do(http.MethodPost, "/sessions/current/answer", "alice", map[string]any{"questionId": q.ID, "optionId": "milan"})
	expectStatus(t, w, http.StatusOK)
	answer := decode[dto.AnswerResponse](t, w)
	if answer.Answer.Correct == nil || *answer.Answer.Correct || answer.Answer.CorrectOptionID != "rome" {
		t.Errorf("answer = %+v", answer.Answer)
	}

	w = a.do(http.MethodPost, "/sessions/current/advance", "alice", nil)
	expectStatus(t, w, http.StatusOK)
	if v := decode[session.View](t, w); v.State != session.Finished || v.Result == nil || v.Result.Incorrect != 1 {
		t.Errorf("finished view = %+v", v)
	}
	expectStatus(t, a.do(http.MethodPost, "/sessions/current/answer", "alice", map[string]any{"questionId": q.ID, "optionId": "rome"}), http.StatusConflict)

	a.outbox.Flush()
	w = a.do(http.MethodGet, "/bank", "alice", nil)
	expectStatus(t, w, http.StatusOK)
	if bank := decode[dto.BankResponse](t, w); bank.Count != 1 || bank.Questions[0].ID != q.ID {
		t.Errorf("bank = %+v", bank)
	}

	w = a.do(http.MethodGet, "/decks/"+deck.ID+"/overview", "alice", nil)
	expectStatus(t, w, http.StatusOK)
	if ov := decode[dto.DeckOverviewResponse](t, w); ov.Metrics.AttemptCount != 1 || ov.Metrics.Accuracy != 0 {
		t.Errorf("overview metrics = %+v", ov.Metrics)
	}

	// no body practises the whole bank
	w = a.do(http.MethodPost, "/sessions/bank", "alice", nil)
	expectStatus(t, w, http.StatusCreated)
	if v := decode[session.View](t, w); v.Kind != session.BankPractice || v.Total != 1 {
		t.Errorf("bank practice view = %+v", v)
	}

	expectStatus(t, a.do(http.MethodDelete, "/sessions/current", "alice", nil), http.StatusNoContent)
	expectStatus(t, a.do(http.MethodDelete, "/sessions/current", "alice", nil), http.StatusNotFound)

	w = a.do(http.MethodGet, "/reports/weekly", "alice", nil)
	expectStatus(t, w, http.StatusOK)
	if weekly := decode[report.Weekly](t, w); weekly.UserID != "alice" || len(weekly.Days) != 7 {
		t.Errorf("weekly = %+v", weekly)
	}
}

func TestExportImport(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/decks/import/text", "alice", map[string]any{"text": "Birds\n\nCan penguins fly?\n- Yes\n* No\n"})
	expectStatus(t, w, http.StatusCreated)
	imported := decode[dto.ImportResponse](t, w)
	if imported.QuestionsImported != 1 || imported.Deck.Title != "Birds" {
		t.Fatalf("imported = %+v", imported)
	}

	w = a.do(http.MethodGet, "/decks/"+imported.Deck.ID+"/export", "alice", nil)
	expectStatus(t, w, http.StatusOK)
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("export should be served as an attachment")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks/import", bytes.NewReader(w.Body.Bytes()))
	req.Header.Set(controller.UserHeader, "bob")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated)
	copied := decode[dto.ImportResponse](t, rec)
	if copied.Deck.ID == imported.Deck.ID || copied.Deck.TotalQuestionCount != 1 {
		t.Errorf("copied = %+v", copied)
	}

	w = a.do(http.MethodPost, "/decks/import/text/preview", "alice", map[string]any{"text": "Title\n\nQ?\n- a\n- b\n"})
	expectStatus(t, w, http.StatusOK)
	preview := decode[textdeck.Preview](t, w)
	if preview.Valid || preview.Error == "" {
		t.Errorf("preview = %+v", preview)
	}
}
