// Package decktree answers hierarchy questions over a snapshot of a user's decks.
// Every walk tracks visited decks so corrupted parent links cannot loop forever.
package decktree

import (
	"sort"

	"github.com/lshigami/studydeck/internal/model"
)

type Tree struct {
	decks     map[string]model.Deck
	children  map[string][]string
	questions map[string][]model.Question
}

// New indexes decks and questions. Children and questions keep their stored
// position order so past-paper decks come out in natural order.
func New(decks []model.Deck, questions []model.Question) *Tree {
	t := &Tree{
		decks:     make(map[string]model.Deck, len(decks)),
		children:  make(map[string][]string),
		questions: make(map[string][]model.Question),
	}

	sortedDecks := make([]model.Deck, len(decks))
	copy(sortedDecks, decks)
	sort.SliceStable(sortedDecks, func(i, j int) bool { return sortedDecks[i].Position < sortedDecks[j].Position })
	for _, d := range sortedDecks {
		t.decks[d.ID] = d
		t.children[d.ParentKey()] = append(t.children[d.ParentKey()], d.ID)
	}

	sortedQuestions := make([]model.Question, len(questions))
	copy(sortedQuestions, questions)
	sort.SliceStable(sortedQuestions, func(i, j int) bool { return sortedQuestions[i].Position < sortedQuestions[j].Position })
	for _, q := range sortedQuestions {
		t.questions[q.DeckID] = append(t.questions[q.DeckID], q)
	}
	return t
}

func (t *Tree) Deck(id string) (model.Deck, bool) {
	d, ok := t.decks[id]
	return d, ok
}

// SubdecksOf lists direct children; "" lists root decks.
func (t *Tree) SubdecksOf(parentID string) []model.Deck {
	ids := t.children[parentID]
	out := make([]model.Deck, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.decks[id])
	}
	return out
}

// QuestionsOf returns the questions directly owned by deckID.
func (t *Tree) QuestionsOf(deckID string) []model.Question {
	qs := t.questions[deckID]
	out := make([]model.Question, len(qs))
	copy(out, qs)
	return out
}

// AllQuestionsOf returns deckID's questions followed, depth first, by those of every subdeck.
func (t *Tree) AllQuestionsOf(deckID string) []model.Question {
	var out []model.Question
	t.walk(deckID, map[string]bool{}, func(id string) {
		out = append(out, t.questions[id]...)
	})
	return out
}

func (t *Tree) TotalQuestionCount(deckID string) int {
	n := 0
	t.walk(deckID, map[string]bool{}, func(id string) {
		n += len(t.questions[id])
	})
	return n
}

// Descendants returns every deck below deckID, depth first, excluding deckID itself.
func (t *Tree) Descendants(deckID string) []model.Deck {
	var out []model.Deck
	t.walk(deckID, map[string]bool{}, func(id string) {
		if id != deckID {
			out = append(out, t.decks[id])
		}
	})
	return out
}

func (t *Tree) walk(id string, visited map[string]bool, visit func(string)) {
	if visited[id] {
		return
	}
	visited[id] = true
	visit(id)
	for _, child := range t.children[id] {
		t.walk(child, visited, visit)
	}
}

// WouldCreateCycle reports whether moving childID under parentID would make
// childID its own ancestor. It walks up from parentID and stops at a root, a
// dangling parent link, or a deck it has already seen.
func (t *Tree) WouldCreateCycle(childID, parentID string) bool {
	if parentID == "" {
		return false
	}
	seen := map[string]bool{}
	for id := parentID; id != ""; {
		if id == childID {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		d, ok := t.decks[id]
		if !ok {
			return false
		}
		id = d.ParentKey()
	}
	return false
}

// Breadcrumb returns the chain from the root down to deckID. A missing deck
// yields nil; a corrupted chain is cut where it starts repeating.
func (t *Tree) Breadcrumb(deckID string) []model.Deck {
	var chain []model.Deck
	seen := map[string]bool{}
	for id := deckID; id != "" && !seen[id]; {
		seen[id] = true
		d, ok := t.decks[id]
		if !ok {
			break
		}
		chain = append(chain, d)
		id = d.ParentKey()
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
