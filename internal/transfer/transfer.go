// Package transfer reads and writes the deck exchange format
// {"deck": ..., "subdecks": [...], "questions": [...]}.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/decktree"
	"github.com/lshigami/studydeck/internal/model"
)

const (
	MaxQuestions      = 1000
	MaxSubdecks       = 100
	MaxTitleLength    = 200
	MaxDescLength     = 2000
	MaxQuestionLength = 2000
	MaxOptionLength   = 500
)

type Document struct {
	Deck      model.Deck       `json:"deck"`
	Subdecks  []model.Deck     `json:"subdecks" validate:"max=100,dive"`
	Questions []model.Question `json:"questions" validate:"max=1000,dive"`
}

var validate = validator.New()

// Export collects deckID, every deck beneath it and all their questions.
func Export(tree *decktree.Tree, deckID string) (*Document, error) {
	root, ok := tree.Deck(deckID)
	if !ok {
		return nil, apperror.NotFound("export deck", "deck %s not found", deckID)
	}
	subdecks := tree.Descendants(deckID)
	if subdecks == nil {
		subdecks = []model.Deck{}
	}
	questions := tree.AllQuestionsOf(deckID)
	if questions == nil {
		questions = []model.Question{}
	}
	return &Document{Deck: root, Subdecks: subdecks, Questions: questions}, nil
}

func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Decode parses and validates an exchange document.
func Decode(data []byte) (*Document, error) {
	const op = "decode deck"
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, apperror.Validation(op, "invalid JSON format: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks field limits and that every question's correctOptionId
// names one of its options.
func (d *Document) Validate() error {
	const op = "validate deck"
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.Validation(op, "%s", describe(verrs[0]))
		}
		return apperror.Validation(op, "%v", err)
	}
	for i := range d.Questions {
		if err := d.Questions[i].Check(); err != nil {
			return apperror.Validation(op, "questions[%d]: %s", i, apperror.Message(err))
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "max":
		return fmt.Sprintf("%s must be at most %s", path, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", path, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", path, fe.Tag())
	}
}

// Remap returns a copy of d with every id regenerated by newID and all
// references rewritten. The root deck is placed under parentID ("" for a
// root); subdecks or questions pointing at unknown decks attach to the root.
func (d *Document) Remap(parentID string, newID func() string) *Document {
	if newID == nil {
		newID = model.NewID
	}

	deckIDs := make(map[string]string, len(d.Subdecks)+1)
	root := d.Deck
	rootID := newID()
	if root.ID != "" {
		deckIDs[root.ID] = rootID
	}
	root.ID = rootID
	root.UserID = ""
	root.SetParent(parentID)

	subdecks := make([]model.Deck, len(d.Subdecks))
	for i, s := range d.Subdecks {
		id := newID()
		if s.ID != "" {
			deckIDs[s.ID] = id
		}
		s.ID = id
		s.UserID = ""
		s.Position = i
		subdecks[i] = s
	}
	for i := range subdecks {
		parent, ok := deckIDs[subdecks[i].ParentKey()]
		if !ok || parent == subdecks[i].ID {
			parent = rootID
		}
		subdecks[i].SetParent(parent)
	}
	detachLoops(rootID, subdecks)

	questions := make([]model.Question, len(d.Questions))
	for i, q := range d.Questions {
		optionIDs := make(map[string]string, len(q.Options))
		options := make([]model.QuestionOption, len(q.Options))
		for j, o := range q.Options {
			id := newID()
			optionIDs[o.ID] = id
			options[j] = model.QuestionOption{ID: id, Text: o.Text}
		}
		deck, ok := deckIDs[q.DeckID]
		if !ok {
			deck = rootID
		}
		questions[i] = model.Question{
			ID:              newID(),
			Text:            q.Text,
			Options:         options,
			CorrectOptionID: optionIDs[q.CorrectOptionID],
			DeckID:          deck,
			Position:        i,
		}
	}

	return &Document{Deck: root, Subdecks: subdecks, Questions: questions}
}

// Decks returns the root followed by its subdecks.
func (d *Document) Decks() []model.Deck {
	return append([]model.Deck{d.Deck}, d.Subdecks...)
}

// detachLoops reattaches to the root any subdeck whose parent chain never
// reaches it, which only happens when the imported parent links form a loop.
func detachLoops(rootID string, subdecks []model.Deck) {
	parents := make(map[string]string, len(subdecks))
	for _, s := range subdecks {
		parents[s.ID] = s.ParentKey()
	}
	for i := range subdecks {
		seen := map[string]bool{}
		id := subdecks[i].ID
		for id != rootID && id != "" && !seen[id] {
			seen[id] = true
			id = parents[id]
		}
		if id != rootID {
			subdecks[i].SetParent(rootID)
			parents[subdecks[i].ID] = rootID
		}
	}
}
