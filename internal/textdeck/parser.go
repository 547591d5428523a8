// Package textdeck parses the plain-text deck format:
//
//	Deck title
//
//	Question text
//	* correct option
//	- incorrect option
//	another incorrect option
//
// The first non-blank line is the title. Blank lines separate questions.
package textdeck

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/transfer"
)

const (
	correctMarker   = '*'
	incorrectMarker = '-'
)

// ParseError reports the first violation found. Line is 1-based, 0 when the
// problem is not tied to a single line.
type ParseError struct {
	Line     int
	Question string
	Msg      string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Question != "" {
		fmt.Fprintf(&b, "question %q ", e.Question)
	}
	b.WriteString(e.Msg)
	return b.String()
}

func (e *ParseError) Is(target error) bool { return target == apperror.ErrValidation }

// Result is a freshly identified root deck with its questions.
type Result struct {
	Deck      model.Deck
	Questions []model.Question
}

// Document converts the result to the import/export shape.
func (r *Result) Document() *transfer.Document {
	return &transfer.Document{Deck: r.Deck, Subdecks: []model.Deck{}, Questions: r.Questions}
}

type option struct {
	text    string
	correct bool
}

type block struct {
	text    string
	line    int
	options []option
}

func (b *block) hasCorrect() bool {
	for _, o := range b.options {
		if o.correct {
			return true
		}
	}
	return false
}

func isMarked(line string) bool {
	return line != "" && (line[0] == correctMarker || line[0] == incorrectMarker)
}

// Parse turns text into a deck. It fails on the first violation and never
// returns partial results.
func Parse(text string) (*Result, error) {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	titleIdx := -1
	for i, l := range lines {
		if l != "" {
			titleIdx = i
			break
		}
	}
	if titleIdx < 0 {
		return nil, &ParseError{Msg: "deck title is required"}
	}
	title := lines[titleIdx]
	if utf8.RuneCountInString(title) > transfer.MaxTitleLength {
		return nil, &ParseError{Line: titleIdx + 1, Msg: fmt.Sprintf("deck title must be at most %d characters", transfer.MaxTitleLength)}
	}

	res := &Result{Deck: model.Deck{ID: model.NewID(), Title: title}}

	var cur *block
	flush := func() error {
		q, err := buildQuestion(cur, res.Deck.ID, len(res.Questions))
		if err != nil {
			return err
		}
		res.Questions = append(res.Questions, q)
		cur = nil
		return nil
	}

	for i := titleIdx + 1; i < len(lines); i++ {
		line, lineNo := lines[i], i+1

		if line == "" {
			// a question with no options yet keeps collecting after the gap
			if cur != nil && len(cur.options) > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			continue
		}

		if isMarked(line) {
			if cur == nil {
				return nil, &ParseError{Line: lineNo, Msg: "found an option before any question"}
			}
			text := strings.TrimSpace(line[1:])
			if text == "" {
				return nil, &ParseError{Line: lineNo, Msg: "empty option text"}
			}
			if utf8.RuneCountInString(text) > transfer.MaxOptionLength {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("option text must be at most %d characters", transfer.MaxOptionLength)}
			}
			cur.options = append(cur.options, option{text: text, correct: line[0] == correctMarker})
			continue
		}

		if cur != nil && startsQuestion(cur, lines, i) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if cur == nil {
			if utf8.RuneCountInString(line) > transfer.MaxQuestionLength {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("question text must be at most %d characters", transfer.MaxQuestionLength)}
			}
			cur = &block{text: line, line: lineNo}
			continue
		}
		if utf8.RuneCountInString(line) > transfer.MaxOptionLength {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("option text must be at most %d characters", transfer.MaxOptionLength)}
		}
		cur.options = append(cur.options, option{text: line})
	}

	if cur != nil {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if len(res.Questions) == 0 {
		return nil, &ParseError{Msg: "no questions found"}
	}
	if len(res.Questions) > transfer.MaxQuestions {
		return nil, &ParseError{Msg: fmt.Sprintf("at most %d questions are allowed", transfer.MaxQuestions)}
	}
	return res, nil
}

// startsQuestion decides whether an unmarked line opens a new question without
// a separating blank line. That only happens when the current question already
// has its correct option and the next line marks another correct one, since
// both could not belong to the same question.
func startsQuestion(cur *block, lines []string, i int) bool {
	if len(cur.options) < model.MinOptions || !cur.hasCorrect() {
		return false
	}
	next := i + 1
	return next < len(lines) && lines[next] != "" && lines[next][0] == correctMarker
}

func buildQuestion(b *block, deckID string, position int) (model.Question, error) {
	if len(b.options) < model.MinOptions {
		return model.Question{}, &ParseError{Line: b.line, Question: b.text, Msg: fmt.Sprintf("must have at least %d options", model.MinOptions)}
	}
	if len(b.options) > model.MaxOptions {
		return model.Question{}, &ParseError{Line: b.line, Question: b.text, Msg: fmt.Sprintf("can have at most %d options", model.MaxOptions)}
	}

	q := model.Question{
		ID:       model.NewID(),
		Text:     b.text,
		DeckID:   deckID,
		Position: position,
		Options:  make([]model.QuestionOption, 0, len(b.options)),
	}
	correct := 0
	for _, o := range b.options {
		opt := model.QuestionOption{ID: model.NewID(), Text: o.text}
		if o.correct {
			correct++
			q.CorrectOptionID = opt.ID
		}
		q.Options = append(q.Options, opt)
	}
	switch {
	case correct == 0:
		return model.Question{}, &ParseError{Line: b.line, Question: b.text, Msg: "must have one correct option marked with *"}
	case correct > 1:
		return model.Question{}, &ParseError{Line: b.line, Question: b.text, Msg: "can only have one correct option"}
	}
	return q, nil
}
