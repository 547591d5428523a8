package decktree_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/lshigami/studydeck/internal/decktree"
	"github.com/lshigami/studydeck/internal/model"
)

func deck(id, parent string) model.Deck {
	d := model.Deck{ID: id, Title: "Deck " + id}
	d.SetParent(parent)
	return d
}

func question(id, deckID string) model.Question {
	return model.Question{ID: id, DeckID: deckID, Text: "Question " + id}
}

// root
// ├── a (q3, q4)
// │   └── a1 (q5)
// └── b (q6)
// root owns q1, q2.
func threeLevelTree() *decktree.Tree {
	decks := []model.Deck{deck("root", ""), deck("a", "root"), deck("b", "root"), deck("a1", "a"), deck("other", "")}
	questions := []model.Question{
		question("q1", "root"), question("q2", "root"),
		question("q3", "a"), question("q4", "a"),
		question("q5", "a1"),
		question("q6", "b"),
		question("q7", "other"),
	}
	return decktree.New(decks, questions)
}

func questionIDs(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func TestSubdecksOf(t *testing.T) {
	tree := threeLevelTree()
	var roots []string
	for _, d := range tree.SubdecksOf("") {
		roots = append(roots, d.ID)
	}
	if !equal(sorted(roots), []string{"other", "root"}) {
		t.Errorf("roots = %v", roots)
	}
	if got := tree.SubdecksOf("a1"); len(got) != 0 {
		t.Errorf("leaf should have no subdecks, got %v", got)
	}
}

func TestQuestionsOfIsDirectOnly(t *testing.T) {
	tree := threeLevelTree()
	if got := questionIDs(tree.QuestionsOf("a")); !equal(got, []string{"q3", "q4"}) {
		t.Errorf("QuestionsOf(a) = %v", got)
	}
}

func TestAllQuestionsOf(t *testing.T) {
	tree := threeLevelTree()

	all := questionIDs(tree.AllQuestionsOf("root"))
	if !equal(all, []string{"q1", "q2", "q3", "q4", "q5", "q6"}) {
		t.Fatalf("AllQuestionsOf(root) = %v", all)
	}

	// direct questions plus the union over every subdeck
	union := questionIDs(tree.QuestionsOf("root"))
	for _, sub := range tree.SubdecksOf("root") {
		union = append(union, questionIDs(tree.AllQuestionsOf(sub.ID))...)
	}
	if !equal(sorted(all), sorted(union)) {
		t.Errorf("AllQuestionsOf(root) = %v, union = %v", all, union)
	}

	if got := tree.TotalQuestionCount("a"); got != 3 {
		t.Errorf("TotalQuestionCount(a) = %d, want 3", got)
	}
	if got := tree.TotalQuestionCount("missing"); got != 0 {
		t.Errorf("TotalQuestionCount(missing) = %d, want 0", got)
	}
}

func TestQuestionsKeepStoredOrder(t *testing.T) {
	qs := []model.Question{
		{ID: "third", DeckID: "d", Position: 2},
		{ID: "first", DeckID: "d", Position: 0},
		{ID: "second", DeckID: "d", Position: 1},
	}
	tree := decktree.New([]model.Deck{deck("d", "")}, qs)
	if got := questionIDs(tree.AllQuestionsOf("d")); !equal(got, []string{"first", "second", "third"}) {
		t.Errorf("order = %v", got)
	}
}

func TestDescendantsAndBreadcrumb(t *testing.T) {
	tree := threeLevelTree()

	var desc []string
	for _, d := range tree.Descendants("root") {
		desc = append(desc, d.ID)
	}
	if !equal(sorted(desc), []string{"a", "a1", "b"}) {
		t.Errorf("Descendants(root) = %v", desc)
	}

	var crumbs []string
	for _, d := range tree.Breadcrumb("a1") {
		crumbs = append(crumbs, d.ID)
	}
	if !equal(crumbs, []string{"root", "a", "a1"}) {
		t.Errorf("Breadcrumb(a1) = %v", crumbs)
	}
	if got := tree.Breadcrumb("missing"); got != nil {
		t.Errorf("Breadcrumb(missing) = %v, want nil", got)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	tree := threeLevelTree()
	cases := []struct {
		child, parent string
		want          bool
	}{
		{"a", "a", true},
		{"root", "a1", true},
		{"a", "a1", true},
		{"a1", "b", false},
		{"b", "a1", false},
		{"a", "", false},
		{"a", "other", false},
		{"a", "nonexistent", false},
	}
	for _, tc := range cases {
		if got := tree.WouldCreateCycle(tc.child, tc.parent); got != tc.want {
			t.Errorf("WouldCreateCycle(%s, %s) = %v, want %v", tc.child, tc.parent, got, tc.want)
		}
	}
}

func TestCorruptedTreesTerminate(t *testing.T) {
	// x and y point at each other; z dangles under a deck that does not exist.
	decks := []model.Deck{deck("x", "y"), deck("y", "x"), deck("z", "ghost")}
	tree := decktree.New(decks, []model.Question{question("q", "x"), question("r", "y")})

	if tree.WouldCreateCycle("w", "x") {
		t.Error("unrelated deck reported as cycle")
	}
	if !tree.WouldCreateCycle("y", "x") {
		t.Error("expected y to be found among x's ancestors")
	}
	if tree.WouldCreateCycle("z", "z") != true {
		t.Error("a deck is always its own ancestor")
	}
	if got := len(tree.AllQuestionsOf("x")); got != 2 {
		t.Errorf("AllQuestionsOf(x) = %d questions, want 2", got)
	}
	if got := len(tree.Breadcrumb("x")); got != 2 {
		t.Errorf("Breadcrumb(x) has %d entries, want 2", got)
	}
	if got := len(tree.Breadcrumb("z")); got != 1 {
		t.Errorf("Breadcrumb(z) has %d entries, want 1", got)
	}
}

// randomForest builds n decks where every parent has a smaller index, so the
// result is acyclic by construction.
func randomForest(rng *rand.Rand, n int) ([]model.Deck, map[string]string) {
	decks := make([]model.Deck, n)
	parents := make(map[string]string, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("d%d", i)
		parent := ""
		if i > 0 && rng.Intn(4) != 0 {
			parent = fmt.Sprintf("d%d", rng.Intn(i))
		}
		decks[i] = deck(id, parent)
		parents[id] = parent
	}
	return decks, parents
}

func isDescendant(parents map[string]string, node, ancestor string) bool {
	for id := parents[node]; id != ""; id = parents[id] {
		if id == ancestor {
			return true
		}
	}
	return false
}

func TestWouldCreateCycle_RandomForests(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		decks, parents := randomForest(rng, 2+rng.Intn(25))
		tree := decktree.New(decks, nil)
		for _, a := range decks {
			for _, b := range decks {
				want := a.ID == b.ID || isDescendant(parents, b.ID, a.ID)
				if got := tree.WouldCreateCycle(a.ID, b.ID); got != want {
					t.Fatalf("round %d: WouldCreateCycle(%s, %s) = %v, want %v", round, a.ID, b.ID, got, want)
				}
			}
		}
	}
}
