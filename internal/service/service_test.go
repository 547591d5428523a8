package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/outbox"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/scoring"
	"github.com/lshigami/studydeck/internal/service"
	"github.com/lshigami/studydeck/internal/session"
	"github.com/lshigami/studydeck/internal/testdb"
)

var (
	ctx  = context.Background()
	user = model.UserContext{UserID: "user-1"}
)

type env struct {
	decks     service.DeckService
	questions service.QuestionService
	study     service.StudyService
	history   repository.QuestionStore
	outbox    *outbox.Outbox
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	deckStore := repository.NewDeckRepository(db)
	history := repository.NewAttemptRepository(db)

	out := outbox.New(time.Second)
	out.Start(1)
	t.Cleanup(func() { _ = out.Stop(context.Background()) })

	engine := session.NewEngine(history, out, session.Config{Seed: 7})
	registry := session.NewRegistry()
	t.Cleanup(registry.CloseAll)

	return &env{
		decks:     service.NewDeckService(deckStore, history, scoring.Model{}),
		questions: service.NewQuestionService(deckStore, history),
		study:     service.NewStudyService(deckStore, engine, registry, service.StudySettings{}),
		history:   history,
		outbox:    out,
	}
}

func (e *env) deck(t *testing.T, title string, parent string) *dto.DeckResponse {
	t.Helper()
	req := dto.CreateDeckRequest{Title: title, AvailableForPracticeTest: true}
	if parent != "" {
		req.ParentID = &parent
	}
	d, err := e.decks.CreateDeck(ctx, user, req)
	if err != nil {
		t.Fatalf("create deck %s: %v", title, err)
	}
	return d
}

func (e *env) question(t *testing.T, deckID, text string) *dto.QuestionResponse {
	t.Helper()
	q, err := e.questions.CreateQuestion(ctx, user, deckID, dto.QuestionRequest{
		Text:            text,
		Options:         []model.QuestionOption{{ID: "right", Text: "Right"}, {ID: "wrong", Text: "Wrong"}},
		CorrectOptionID: "right",
	})
	if err != nil {
		t.Fatalf("create question %s: %v", text, err)
	}
	return q
}

func TestDeckService_TreeAndCounts(t *testing.T) {
	e := newEnv(t)
	root := e.deck(t, "Languages", "")
	spanish := e.deck(t, "Spanish", root.ID)
	e.deck(t, "French", root.ID)
	e.question(t, root.ID, "Hello?")
	e.question(t, spanish.ID, "Hola?")
	e.question(t, spanish.ID, "Adios?")

	if !spanish.IsSubdeck || spanish.ParentID == nil || *spanish.ParentID != root.ID {
		t.Errorf("spanish = %+v", spanish)
	}

	roots, err := e.decks.ListDecks(ctx, user, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0].QuestionCount != 1 || roots[0].TotalQuestionCount != 3 || roots[0].SubdeckCount != 2 {
		t.Errorf("roots = %+v", roots)
	}

	children, err := e.decks.ListDecks(ctx, user, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 || children[0].Title != "Spanish" || children[1].Title != "French" {
		t.Errorf("children = %+v", children)
	}

	if _, err := e.decks.ListDecks(ctx, user, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown parent: %v", err)
	}
	if _, err := e.decks.CreateDeck(ctx, user, dto.CreateDeckRequest{Title: "   "}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank title: %v", err)
	}
}

func TestDeckService_MoveRejectsCycles(t *testing.T) {
	e := newEnv(t)
	a := e.deck(t, "A", "")
	b := e.deck(t, "B", a.ID)
	c := e.deck(t, "C", b.ID)

	for _, target := range []string{a.ID, b.ID, c.ID} {
		_, err := e.decks.MoveDeck(ctx, user, a.ID, dto.MoveDeckRequest{ParentID: &target})
		if !errors.Is(err, apperror.ErrPolicy) {
			t.Errorf("move A under %s: expected policy error, got %v", target, err)
		}
	}
	unchanged, err := e.decks.GetDeck(ctx, user, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unchanged.ParentID != nil {
		t.Errorf("rejected move must not write, parent = %v", *unchanged.ParentID)
	}

	moved, err := e.decks.MoveDeck(ctx, user, c.ID, dto.MoveDeckRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if moved.ParentID != nil || moved.IsSubdeck {
		t.Errorf("moved to top level = %+v", moved)
	}

	crumbs, err := e.decks.Breadcrumb(ctx, user, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(crumbs) != 2 || crumbs[0].Title != "A" || crumbs[1].Title != "B" {
		t.Errorf("breadcrumb = %+v", crumbs)
	}
}

func TestDeckService_DeleteCascades(t *testing.T) {
	e := newEnv(t)
	root := e.deck(t, "Root", "")
	child := e.deck(t, "Child", root.ID)
	e.question(t, child.ID, "Gone?")

	if err := e.decks.DeleteDeck(ctx, user, root.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.decks.GetDeck(ctx, user, child.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("child should be deleted, got %v", err)
	}
	if _, err := e.questions.ListQuestions(ctx, user, child.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("child questions should be unreachable, got %v", err)
	}
}

func TestDeckService_Overview(t *testing.T) {
	e := newEnv(t)
	root := e.deck(t, "Root", "")
	strong := e.deck(t, "Strong", root.ID)
	weak := e.deck(t, "Weak", root.ID)
	sq := e.question(t, strong.ID, "easy")
	wq := e.question(t, weak.ID, "hard")

	for i := 0; i < 3; i++ {
		if err := e.history.RecordAttempt(ctx, user, sq.ID, true, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.history.RecordAttempt(ctx, user, wq.ID, false, nil); err != nil {
		t.Fatal(err)
	}

	ov, err := e.decks.Overview(ctx, user, root.ID, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if ov.Metrics.QuestionCount != 2 || ov.Metrics.AttemptCount != 4 || ov.Metrics.Mastery != 50 {
		t.Errorf("root metrics = %+v", ov.Metrics)
	}
	if len(ov.Subdecks) != 2 || ov.Subdecks[0].Deck.Title != "Weak" || ov.Subdecks[1].Metrics.AverageScore != 1 {
		t.Errorf("subdecks = %+v", ov.Subdecks)
	}

	byName, err := e.decks.Overview(ctx, user, root.ID, "name", true)
	if err != nil {
		t.Fatal(err)
	}
	if byName.Subdecks[0].Deck.Title != "Weak" || byName.SortBy != "name" {
		t.Errorf("name desc = %+v", byName.Subdecks)
	}

	if _, err := e.decks.Overview(ctx, user, root.ID, "bogus", false); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bad sort key: %v", err)
	}
}

func TestDeckService_ExportImportRoundTrip(t *testing.T) {
	e := newEnv(t)
	root := e.deck(t, "Chemistry", "")
	sub := e.deck(t, "Organic", root.ID)
	e.question(t, root.ID, "H2O?")
	e.question(t, sub.ID, "CH4?")

	doc, err := e.decks.Export(ctx, user, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	data, err := doc.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	imported, err := e.decks.ImportJSON(ctx, user, data, "")
	if err != nil {
		t.Fatal(err)
	}
	if imported.Deck.ID == root.ID || imported.Deck.Title != "Chemistry" {
		t.Errorf("imported deck = %+v", imported.Deck)
	}
	if imported.SubdecksImported != 1 || imported.QuestionsImported != 2 || imported.Deck.TotalQuestionCount != 2 {
		t.Errorf("import = %+v", imported)
	}

	copyDoc, err := e.decks.Export(ctx, user, imported.Deck.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(copyDoc.Subdecks) != 1 || copyDoc.Subdecks[0].Title != "Organic" || copyDoc.Subdecks[0].ID == sub.ID {
		t.Errorf("copied subdecks = %+v", copyDoc.Subdecks)
	}
	for _, q := range copyDoc.Questions {
		if err := q.Check(); err != nil {
			t.Errorf("imported question broken: %v", err)
		}
	}

	if _, err := e.decks.ImportJSON(ctx, user, []byte(`{"deck":`), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("malformed JSON: %v", err)
	}
	if _, err := e.decks.ImportJSON(ctx, user, data, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown parent: %v", err)
	}
}

func TestDeckService_ImportText(t *testing.T) {
	e := newEnv(t)
	parent := e.deck(t, "Parent", "")
	text := "Capitals\n\nCapital of France?\n* Paris\n- Lyon\n\nCapital of Spain?\n* Madrid\n- Seville\n"

	preview := e.decks.PreviewText(text)
	if !preview.Valid || preview.QuestionCount != 2 {
		t.Errorf("preview = %+v", preview)
	}

	resp, err := e.decks.ImportText(ctx, user, dto.ImportTextRequest{Text: text, ParentID: &parent.ID})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Deck.ParentID == nil || *resp.Deck.ParentID != parent.ID || resp.QuestionsImported != 2 {
		t.Errorf("import = %+v", resp)
	}

	_, err = e.decks.ImportText(ctx, user, dto.ImportTextRequest{Text: "Title\n\nQ?\n- a\n- b\n"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing correct option: %v", err)
	}
}

func TestQuestionService_Validation(t *testing.T) {
	e := newEnv(t)
	deck := e.deck(t, "Deck", "")

	tests := []struct {
		name string
		req  dto.QuestionRequest
	}{
		{"blank text", dto.QuestionRequest{Text: " ", Options: []model.QuestionOption{{ID: "a", Text: "1"}, {ID: "b", Text: "2"}}, CorrectOptionID: "a"}},
		{"one option", dto.QuestionRequest{Text: "Q", Options: []model.QuestionOption{{ID: "a", Text: "1"}}, CorrectOptionID: "a"}},
		{"duplicate ids", dto.QuestionRequest{Text: "Q", Options: []model.QuestionOption{{ID: "a", Text: "1"}, {ID: "a", Text: "2"}}, CorrectOptionID: "a"}},
		{"unknown correct", dto.QuestionRequest{Text: "Q", Options: []model.QuestionOption{{ID: "a", Text: "1"}, {ID: "b", Text: "2"}}, CorrectOptionID: "c"}},
		{"blank option", dto.QuestionRequest{Text: "Q", Options: []model.QuestionOption{{ID: "a", Text: "1"}, {ID: "b", Text: ""}}, CorrectOptionID: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.questions.CreateQuestion(ctx, user, deck.ID, tt.req); !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	q := e.question(t, deck.ID, "Original")
	updated, err := e.questions.UpdateQuestion(ctx, user, q.ID, dto.QuestionRequest{
		Text:            "Changed",
		Options:         []model.QuestionOption{{ID: "x", Text: "X"}, {ID: "y", Text: "Y"}, {ID: "z", Text: "Z"}},
		CorrectOptionID: "z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Text != "Changed" || len(updated.Options) != 3 || updated.CorrectOptionID != "z" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestStudyService_StudyFeedsTheBank(t *testing.T) {
	e := newEnv(t)
	deck := e.deck(t, "Deck", "")
	q := e.question(t, deck.ID, "Only question")

	view, err := e.study.StartStudy(ctx, user, dto.StartSessionRequest{DeckID: deck.ID})
	if err != nil {
		t.Fatal(err)
	}
	if view.State != session.InProgress || view.Current == nil || view.Current.ID != q.ID {
		t.Fatalf("view = %+v", view)
	}

	resp, err := e.study.Answer(user, dto.AnswerRequest{QuestionID: q.ID, OptionID: "wrong"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer.Correct == nil || *resp.Answer.Correct || resp.Answer.CorrectOptionID != "right" {
		t.Errorf("answer = %+v", resp.Answer)
	}
	if _, err := e.study.Advance(user); err != nil {
		t.Fatal(err)
	}
	e.outbox.Flush()

	bank, err := e.questions.Bank(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if bank.Count != 1 || bank.Questions[0].ID != q.ID {
		t.Errorf("bank = %+v", bank)
	}

	// bank practice clears it again
	if _, err := e.study.StartBankPractice(ctx, user, dto.StartBankPracticeRequest{DeckID: deck.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.study.Answer(user, dto.AnswerRequest{QuestionID: q.ID, OptionID: "right"}); err != nil {
		t.Fatal(err)
	}
	e.outbox.Flush()
	if bank, _ := e.questions.Bank(ctx, user); bank.Count != 0 {
		t.Errorf("bank after mastering = %+v", bank)
	}

	if err := e.study.End(user); err != nil {
		t.Fatal(err)
	}
	if _, err := e.study.Current(user); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ended session should be gone, got %v", err)
	}
}

func TestStudyService_WholeBankSpansDecks(t *testing.T) {
	e := newEnv(t)
	first := e.deck(t, "First", "")
	second := e.deck(t, "Second", "")
	q1 := e.question(t, first.ID, "one")
	q2 := e.question(t, second.ID, "two")
	e.question(t, second.ID, "never missed")

	if _, err := e.study.StartBankPractice(ctx, user, dto.StartBankPracticeRequest{}); !errors.Is(err, apperror.ErrPolicy) {
		t.Errorf("empty bank: expected policy error, got %v", err)
	}

	for _, id := range []string{q2.ID, q1.ID} {
		if err := e.history.AddToBank(ctx, user, id); err != nil {
			t.Fatal(err)
		}
	}

	view, err := e.study.StartBankPractice(ctx, user, dto.StartBankPracticeRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if view.Kind != session.BankPractice || view.Total != 2 || view.DeckTitle != session.BankDeckTitle {
		t.Fatalf("view = %+v", view)
	}
	if view.Current == nil || (view.Current.ID != q1.ID && view.Current.ID != q2.ID) {
		t.Errorf("current = %+v", view.Current)
	}

	scoped, err := e.study.StartBankPractice(ctx, user, dto.StartBankPracticeRequest{DeckID: first.ID})
	if err != nil {
		t.Fatal(err)
	}
	if scoped.Total != 1 || scoped.Current.ID != q1.ID {
		t.Errorf("deck scoped view = %+v", scoped)
	}
}

func TestStudyService_PracticeTestRules(t *testing.T) {
	e := newEnv(t)
	deck := e.deck(t, "Exam", "")
	for _, text := range []string{"a", "b", "c"} {
		e.question(t, deck.ID, text)
	}

	_, err := e.study.StartPracticeTest(ctx, user, dto.StartPracticeTestRequest{DeckID: deck.ID, Count: 4})
	if !errors.Is(err, apperror.ErrPolicy) {
		t.Errorf("too many questions: %v", err)
	}
	if _, err := e.study.Current(user); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("no session should exist, got %v", err)
	}

	closed := false
	if _, err := e.decks.UpdateDeck(ctx, user, deck.ID, dto.UpdateDeckRequest{AvailableForPracticeTest: &closed}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.study.StartPracticeTest(ctx, user, dto.StartPracticeTestRequest{DeckID: deck.ID, Count: 1}); !errors.Is(err, apperror.ErrPolicy) {
		t.Errorf("deck not offered for tests: %v", err)
	}
	tests, err := e.decks.PracticeTests(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 0 {
		t.Errorf("practice tests = %+v", tests)
	}

	open := true
	if _, err := e.decks.UpdateDeck(ctx, user, deck.ID, dto.UpdateDeckRequest{AvailableForPracticeTest: &open}); err != nil {
		t.Fatal(err)
	}
	timed := true
	view, err := e.study.StartPracticeTest(ctx, user, dto.StartPracticeTestRequest{DeckID: deck.ID, Count: 2, Timed: &timed})
	if err != nil {
		t.Fatal(err)
	}
	if view.Total != 2 || view.RemainingSeconds == nil || *view.RemainingSeconds > 120 {
		t.Errorf("view = %+v", view)
	}

	restarted, err := e.study.Restart(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if restarted.State != session.NotStarted {
		t.Errorf("restart state = %s", restarted.State)
	}
	started, err := e.study.Start(user)
	if err != nil {
		t.Fatal(err)
	}
	finished, err := e.study.Finish(user)
	if err != nil {
		t.Fatal(err)
	}
	if started.State != session.InProgress || finished.Result == nil || len(finished.Result.UnansweredIDs) != 2 {
		t.Errorf("finished = %+v", finished)
	}
}
