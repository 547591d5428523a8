package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// StreakGoal is the number of attempts a day needs to count towards the streak.
	StreakGoal     = 10
	streakLookback = 28
	weekDays       = 7
)

type Stats struct {
	From                string `json:"from"`
	To                  string `json:"to"`
	QuestionsAttempted  int    `json:"questionsAttempted"`
	QuestionsCorrect    int    `json:"questionsCorrect"`
	Accuracy            int    `json:"accuracy"`
	TestsTaken          int    `json:"testsTaken"`
	ActiveDays          int    `json:"activeDays"`
	AverageResponseMs   *int   `json:"averageResponseMs"`
	AverageResponseTime string `json:"averageResponseTime"`
}

type Day struct {
	Date      string `json:"date"`
	Attempted int    `json:"attempted"`
	GoalMet   bool   `json:"goalMet"`
}

// Weekly compares the last seven days, today included, with the seven before.
type Weekly struct {
	UserID      string    `json:"userId"`
	GeneratedAt time.Time `json:"generatedAt"`
	ThisWeek    Stats     `json:"thisWeek"`
	LastWeek    Stats     `json:"lastWeek"`
	Days        []Day     `json:"days"`
	Streak      int       `json:"streak"`
}

type Builder struct {
	store repository.ActivityStore
	now   func() time.Time
}

func NewBuilder(store repository.ActivityStore) *Builder {
	return &Builder{store: store, now: time.Now}
}

// WithClock returns a copy of b reading the current time from now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	return &Builder{store: b.store, now: now}
}

func (b *Builder) Build(ctx context.Context, user model.UserContext) (*Weekly, error) {
	now := b.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	thisFrom := today.AddDate(0, 0, -(weekDays - 1))
	lastFrom := thisFrom.AddDate(0, 0, -weekDays)
	end := today.AddDate(0, 0, 1)

	var (
		activity []model.DailyActivity
		attempts []model.Attempt
		tests    []model.TestSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activity, err = b.store.DailyActivity(gctx, user, model.ActivityDate(today.AddDate(0, 0, -streakLookback)), model.ActivityDate(today))
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = b.store.AttemptsBetween(gctx, user, lastFrom, end)
		return err
	})
	g.Go(func() error {
		var err error
		tests, err = b.store.TestSessionsBetween(gctx, user, lastFrom, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build weekly report for %s: %w", user.UserID, err)
	}

	byDate := make(map[string]model.DailyActivity, len(activity))
	for _, a := range activity {
		byDate[a.ActivityDate] = a
	}

	w := &Weekly{
		UserID:      user.UserID,
		GeneratedAt: now,
		ThisWeek:    summarize(byDate, attempts, tests, thisFrom, end),
		LastWeek:    summarize(byDate, attempts, tests, lastFrom, thisFrom),
		Streak:      Streak(byDate, today),
	}
	for d := thisFrom; d.Before(end); d = d.AddDate(0, 0, 1) {
		n := byDate[model.ActivityDate(d)].QuestionsAttempted
		w.Days = append(w.Days, Day{Date: model.ActivityDate(d), Attempted: n, GoalMet: n >= StreakGoal})
	}
	return w, nil
}

// summarize covers the half-open day range [from, to).
func summarize(byDate map[string]model.DailyActivity, attempts []model.Attempt, tests []model.TestSession, from, to time.Time) Stats {
	s := Stats{From: model.ActivityDate(from), To: model.ActivityDate(to.AddDate(0, 0, -1))}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		a, ok := byDate[model.ActivityDate(d)]
		if !ok {
			continue
		}
		s.QuestionsAttempted += a.QuestionsAttempted
		s.QuestionsCorrect += a.QuestionsCorrect
		if a.QuestionsAttempted > 0 {
			s.ActiveDays++
		}
	}
	if s.QuestionsAttempted > 0 {
		s.Accuracy = int(math.Round(float64(s.QuestionsCorrect) / float64(s.QuestionsAttempted) * 100))
	}

	for _, t := range tests {
		if within(t.CompletedAt, from, to) {
			s.TestsTaken++
		}
	}

	var total, timed int
	for _, a := range attempts {
		if a.ResponseTimeMs == nil || !within(a.CreatedAt, from, to) {
			continue
		}
		total += *a.ResponseTimeMs
		timed++
	}
	if timed > 0 {
		avg := int(math.Round(float64(total) / float64(timed)))
		s.AverageResponseMs = &avg
	}
	s.AverageResponseTime = FormatResponseTime(s.AverageResponseMs)
	return s
}

func within(t, from, to time.Time) bool {
	t = t.UTC()
	return !t.Before(from) && t.Before(to)
}

// Streak counts consecutive days meeting StreakGoal, ending today or, when
// today has not met it yet, yesterday.
func Streak(byDate map[string]model.DailyActivity, today time.Time) int {
	met := func(d time.Time) bool {
		return byDate[model.ActivityDate(d)].QuestionsAttempted >= StreakGoal
	}
	day := today
	if !met(day) {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for i := 0; i <= streakLookback && met(day); i++ {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func FormatResponseTime(ms *int) string {
	switch {
	case ms == nil:
		return "N/A"
	case *ms >= 60000:
		return fmt.Sprintf("%.1f min", float64(*ms)/60000)
	default:
		return fmt.Sprintf("%.1f sec", float64(*ms)/1000)
	}
}
