package session_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/outbox"
	"github.com/lshigami/studydeck/internal/session"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

var user = model.UserContext{UserID: "user-1"}

type recordedAttempt struct {
	QuestionID string
	Correct    bool
	ResponseMs *int
}

type recordedTest struct {
	DeckID         string
	Total, Correct int
}

// memoryStore is an in-memory QuestionStore.
type memoryStore struct {
	mu         sync.Mutex
	history    map[string][]model.Attempt
	attempts   []recordedAttempt
	bank       []string
	tests      []recordedTest
	failWrites bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{history: map[string][]model.Attempt{}}
}

func (m *memoryStore) GetAttempts(_ context.Context, _ model.UserContext, ids []string) (map[string][]model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]model.Attempt{}
	for _, id := range ids {
		if h, ok := m.history[id]; ok {
			out[id] = append([]model.Attempt(nil), h...)
		}
	}
	return out, nil
}

func (m *memoryStore) RecordAttempt(_ context.Context, _ model.UserContext, questionID string, correct bool, ms *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("store unavailable")
	}
	m.attempts = append(m.attempts, recordedAttempt{QuestionID: questionID, Correct: correct, ResponseMs: ms})
	return nil
}

func (m *memoryStore) AddToBank(_ context.Context, _ model.UserContext, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("store unavailable")
	}
	for _, id := range m.bank {
		if id == questionID {
			return nil
		}
	}
	m.bank = append(m.bank, questionID)
	return nil
}

func (m *memoryStore) RemoveFromBank(_ context.Context, _ model.UserContext, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range m.bank {
		if id == questionID {
			m.bank = append(m.bank[:i], m.bank[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memoryStore) BankQuestionIDs(context.Context, model.UserContext) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.bank...), nil
}

func (m *memoryStore) RecordTestSession(_ context.Context, _ model.UserContext, deckID string, total, correct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests = append(m.tests, recordedTest{DeckID: deckID, Total: total, Correct: correct})
	return nil
}

func (m *memoryStore) snapshot() ([]recordedAttempt, []string, []recordedTest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bank := append([]string(nil), m.bank...)
	sort.Strings(bank)
	return append([]recordedAttempt(nil), m.attempts...), bank, append([]recordedTest(nil), m.tests...)
}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) session.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// fireAll runs every pending timer regardless of its deadline, simulating a
// late or duplicated callback.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.done
	t.done = true
	return wasActive
}

type fixture struct {
	store  *memoryStore
	clock  *fakeClock
	outbox *outbox.Outbox
	engine *session.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	clock := newFakeClock()
	out := outbox.New(time.Second)
	out.Start(2)
	t.Cleanup(func() { _ = out.Stop(context.Background()) })
	engine := session.NewEngine(store, out, session.Config{Clock: clock, Seed: 1})
	return &fixture{store: store, clock: clock, outbox: out, engine: engine}
}

func makeQuestions(deckID string, n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		id := fmt.Sprintf("q%d", i+1)
		qs[i] = model.Question{
			ID:     id,
			Text:   "Question " + id,
			DeckID: deckID,
			Options: []model.QuestionOption{
				{ID: id + "-right", Text: "right"},
				{ID: id + "-wrong", Text: "wrong"},
			},
			CorrectOptionID: id + "-right",
			Position:        i,
		}
	}
	return qs
}

func right(q model.Question) string { return q.ID + "-right" }
func wrong(q model.Question) string { return q.ID + "-wrong" }

func attemptAt(questionID string, correct bool, at time.Time) model.Attempt {
	return model.Attempt{ID: model.NewID(), QuestionID: questionID, IsCorrect: correct, CreatedAt: at}
}
