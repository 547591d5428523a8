package report

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/rs/zerolog/log"
)

// Notifier delivers a finished report.
type Notifier interface {
	SendWeeklyReport(ctx context.Context, report *Weekly) error
}

// LogNotifier writes reports to the application log.
type LogNotifier struct{}

func (LogNotifier) SendWeeklyReport(_ context.Context, r *Weekly) error {
	log.Info().
		Str("userID", r.UserID).
		Int("attempted", r.ThisWeek.QuestionsAttempted).
		Int("accuracy", r.ThisWeek.Accuracy).
		Int("accuracyLastWeek", r.LastWeek.Accuracy).
		Int("testsTaken", r.ThisWeek.TestsTaken).
		Int("activeDays", r.ThisWeek.ActiveDays).
		Str("avgResponse", r.ThisWeek.AverageResponseTime).
		Int("streak", r.Streak).
		Msg("Weekly report")
	return nil
}

// Scheduler sends the weekly report to every user active in the last two weeks.
type Scheduler struct {
	scheduler *gocron.Scheduler
	builder   *Builder
	store     repository.ActivityStore
	notifier  Notifier
	cron      string
}

func NewScheduler(builder *Builder, store repository.ActivityStore, notifier Notifier, cron string) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		builder:   builder,
		store:     store,
		notifier:  notifier,
		cron:      cron,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.cron).Do(s.runJob); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	log.Info().Str("cron", s.cron).Msg("Weekly report scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	sent, err := s.SendAll(ctx)
	if err != nil {
		log.Error().Err(err).Int("sent", sent).Msg("Weekly report run failed")
		return
	}
	log.Info().Int("sent", sent).Msg("Weekly report run completed")
}

// SendAll builds and delivers a report for each recently active user. A
// failure for one user is logged and does not stop the others.
func (s *Scheduler) SendAll(ctx context.Context) (int, error) {
	since := model.ActivityDate(s.builder.now().AddDate(0, 0, -2*weekDays+1))
	users, err := s.store.ActiveUsers(ctx, since)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, id := range users {
		user := model.UserContext{UserID: id}
		r, err := s.builder.Build(ctx, user)
		if err != nil {
			log.Error().Err(err).Str("userID", id).Msg("Failed to build weekly report")
			continue
		}
		if err := s.notifier.SendWeeklyReport(ctx, r); err != nil {
			log.Error().Err(err).Str("userID", id).Msg("Failed to send weekly report")
			continue
		}
		sent++
	}
	return sent, nil
}
