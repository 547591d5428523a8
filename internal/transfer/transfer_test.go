package transfer_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/decktree"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/transfer"
)

func sampleTree(t *testing.T) *decktree.Tree {
	t.Helper()
	desc := "Chapter one"
	root := model.Deck{ID: "root", Title: "Biology", Description: &desc, AvailableForPracticeTest: true}
	cells := model.Deck{ID: "cells", Title: "Cells"}
	cells.SetParent("root")
	organelles := model.Deck{ID: "organelles", Title: "Organelles", IsPastPaper: true}
	organelles.SetParent("cells")
	genetics := model.Deck{ID: "genetics", Title: "Genetics"}
	genetics.SetParent("root")

	var questions []model.Question
	for i, deckID := range []string{"root", "cells", "organelles", "organelles", "genetics"} {
		questions = append(questions, model.Question{
			ID:     fmt.Sprintf("q%d", i),
			Text:   fmt.Sprintf("Question %d", i),
			DeckID: deckID,
			Options: []model.QuestionOption{
				{ID: fmt.Sprintf("q%d-a", i), Text: "right"},
				{ID: fmt.Sprintf("q%d-b", i), Text: "wrong"},
			},
			CorrectOptionID: fmt.Sprintf("q%d-a", i),
			Position:        i,
		})
	}
	return decktree.New([]model.Deck{root, cells, organelles, genetics}, questions)
}

func TestRoundTrip(t *testing.T) {
	tree := sampleTree(t)
	doc, err := transfer.Export(tree, "root")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Subdecks) != 3 || len(doc.Questions) != 5 {
		t.Fatalf("export has %d subdecks and %d questions", len(doc.Subdecks), len(doc.Questions))
	}

	data, err := doc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := transfer.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	imported := decoded.Remap("", nil)

	// titles and texts survive exactly
	if imported.Deck.Title != "Biology" || imported.Deck.Description == nil || *imported.Deck.Description != "Chapter one" {
		t.Errorf("root deck = %+v", imported.Deck)
	}
	if !imported.Deck.AvailableForPracticeTest || imported.Deck.ParentID != nil || imported.Deck.IsSubdeck {
		t.Errorf("root flags not preserved: %+v", imported.Deck)
	}
	for i := range doc.Subdecks {
		if imported.Subdecks[i].Title != doc.Subdecks[i].Title || imported.Subdecks[i].IsPastPaper != doc.Subdecks[i].IsPastPaper {
			t.Errorf("subdeck %d = %+v, want title %q", i, imported.Subdecks[i], doc.Subdecks[i].Title)
		}
	}

	// no old id survives
	old := map[string]bool{"root": true, "cells": true, "organelles": true, "genetics": true}
	for _, q := range doc.Questions {
		old[q.ID] = true
		for _, o := range q.Options {
			old[o.ID] = true
		}
	}
	for _, d := range imported.Decks() {
		if old[d.ID] {
			t.Errorf("deck id %s was not regenerated", d.ID)
		}
	}

	// references are consistent under the new ids
	decks := map[string]model.Deck{}
	for _, d := range imported.Decks() {
		decks[d.ID] = d
	}
	for _, s := range imported.Subdecks {
		if _, ok := decks[s.ParentKey()]; !ok || !s.IsSubdeck {
			t.Errorf("subdeck %q has dangling parent %q", s.Title, s.ParentKey())
		}
	}
	for i, q := range imported.Questions {
		if old[q.ID] {
			t.Errorf("question id %s was not regenerated", q.ID)
		}
		if _, ok := decks[q.DeckID]; !ok {
			t.Errorf("question %q has dangling deck %q", q.Text, q.DeckID)
		}
		if err := q.Check(); err != nil {
			t.Errorf("question %q: %v", q.Text, err)
		}
		want := doc.Questions[i]
		if q.Text != want.Text {
			t.Errorf("question text %q, want %q", q.Text, want.Text)
		}
		correct, _ := q.Option(q.CorrectOptionID)
		wantCorrect, _ := want.Option(want.CorrectOptionID)
		if correct.Text != wantCorrect.Text {
			t.Errorf("correct option %q, want %q", correct.Text, wantCorrect.Text)
		}
		if decks[q.DeckID].Title != mustDeck(t, tree, want.DeckID).Title {
			t.Errorf("question %q moved from %q to %q", q.Text, want.DeckID, decks[q.DeckID].Title)
		}
	}

	// the hierarchy itself is preserved
	reimported := decktree.New(imported.Decks(), imported.Questions)
	if got := reimported.TotalQuestionCount(imported.Deck.ID); got != 5 {
		t.Errorf("reimported tree holds %d questions, want 5", got)
	}
	var crumbs []string
	for _, d := range reimported.Breadcrumb(imported.Questions[2].DeckID) {
		crumbs = append(crumbs, d.Title)
	}
	if strings.Join(crumbs, "/") != "Biology/Cells/Organelles" {
		t.Errorf("breadcrumb = %v", crumbs)
	}
}

func mustDeck(t *testing.T, tree *decktree.Tree, id string) model.Deck {
	t.Helper()
	d, ok := tree.Deck(id)
	if !ok {
		t.Fatalf("deck %s missing", id)
	}
	return d
}

func TestExportMissingDeck(t *testing.T) {
	_, err := transfer.Export(sampleTree(t), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRemapUnderParentAndRepairsLinks(t *testing.T) {
	doc := &transfer.Document{
		Deck: model.Deck{ID: "r", Title: "Root"},
		Subdecks: []model.Deck{
			{ID: "x", Title: "X", ParentID: strPtr("y")},
			{ID: "y", Title: "Y", ParentID: strPtr("x")},
			{ID: "z", Title: "Z", ParentID: strPtr("missing")},
		},
		Questions: []model.Question{{
			Text:            "Orphan",
			DeckID:          "unknown",
			Options:         []model.QuestionOption{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}},
			CorrectOptionID: "2",
		}},
	}

	out := doc.Remap("target-parent", nil)
	if out.Deck.ParentKey() != "target-parent" || !out.Deck.IsSubdeck {
		t.Errorf("root should hang under target-parent, got %+v", out.Deck)
	}
	if out.Subdecks[2].ParentKey() != out.Deck.ID {
		t.Errorf("dangling subdeck should attach to root")
	}
	tree := decktree.New(out.Decks(), out.Questions)
	if got := len(tree.Descendants(out.Deck.ID)); got != 3 {
		t.Errorf("root should reach all 3 subdecks after repair, reaches %d", got)
	}
	if out.Questions[0].DeckID != out.Deck.ID {
		t.Errorf("orphan question should attach to root")
	}
	if c, _ := out.Questions[0].Option(out.Questions[0].CorrectOptionID); c.Text != "b" {
		t.Errorf("correct option = %q, want b", c.Text)
	}
}

func strPtr(s string) *string { return &s }

func TestDecodeRejects(t *testing.T) {
	options := `[{"id":"a","text":"x"},{"id":"b","text":"y"}]`
	cases := []struct {
		name string
		json string
		want string
	}{
		{"invalid json", `{"deck":`, "invalid JSON"},
		{"missing title", `{"deck":{"title":""},"questions":[]}`, "Title is required"},
		{"long title", `{"deck":{"title":"` + strings.Repeat("t", 201) + `"},"questions":[]}`, "Title must be at most 200"},
		{"one option", `{"deck":{"title":"T"},"questions":[{"text":"q","options":[{"id":"a","text":"x"}],"correctOptionId":"a"}]}`, "Options must be at least 2"},
		{"bad correct id", `{"deck":{"title":"T"},"questions":[{"text":"q","options":` + options + `,"correctOptionId":"zzz"}]}`, "does not match"},
		{"empty option text", `{"deck":{"title":"T"},"questions":[{"text":"q","options":[{"id":"a","text":""},{"id":"b","text":"y"}],"correctOptionId":"a"}]}`, "Text is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := transfer.Decode([]byte(tc.json))
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestDecodeLimits(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"deck":{"title":"T"},"subdecks":[`)
	for i := 0; i <= transfer.MaxSubdecks; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":"s%d","title":"S"}`, i)
	}
	b.WriteString(`],"questions":[]}`)

	_, err := transfer.Decode([]byte(b.String()))
	if !errors.Is(err, apperror.ErrValidation) || !strings.Contains(err.Error(), "Subdecks must be at most 100") {
		t.Errorf("expected subdeck limit error, got %v", err)
	}
}
