package textdeck

import "errors"

type PreviewQuestion struct {
	Text          string `json:"text"`
	OptionCount   int    `json:"optionCount"`
	CorrectOption string `json:"correctOption"`
}

// Preview is a non-failing summary of a parse, for showing before import.
type Preview struct {
	Title         string            `json:"title,omitempty"`
	QuestionCount int               `json:"questionCount"`
	Questions     []PreviewQuestion `json:"questions"`
	Valid         bool              `json:"valid"`
	Error         string            `json:"error,omitempty"`
	ErrorLine     int               `json:"errorLine,omitempty"`
}

func PreviewText(text string) Preview {
	res, err := Parse(text)
	if err != nil {
		p := Preview{Questions: []PreviewQuestion{}, Error: err.Error()}
		var perr *ParseError
		if errors.As(err, &perr) {
			p.ErrorLine = perr.Line
		}
		return p
	}

	p := Preview{
		Title:         res.Deck.Title,
		QuestionCount: len(res.Questions),
		Questions:     make([]PreviewQuestion, 0, len(res.Questions)),
		Valid:         true,
	}
	for _, q := range res.Questions {
		correct, _ := q.Option(q.CorrectOptionID)
		p.Questions = append(p.Questions, PreviewQuestion{
			Text:          q.Text,
			OptionCount:   len(q.Options),
			CorrectOption: correct.Text,
		})
	}
	return p
}
