package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/studydeck/config"
	"github.com/lshigami/studydeck/database"
	_ "github.com/lshigami/studydeck/docs" // Swagger docs - generated by swag init
	"github.com/lshigami/studydeck/internal/controller"
	"github.com/lshigami/studydeck/internal/logger"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/outbox"
	"github.com/lshigami/studydeck/internal/report"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/scoring"
	"github.com/lshigami/studydeck/internal/service"
	"github.com/lshigami/studydeck/internal/session"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Studydeck API
// @version 1.0
// @description Decks of multiple-choice questions, weakest-first study sessions and timed practice tests.
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init("info", false)

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewDeckRepository,
			repository.NewAttemptRepository,
			repository.NewActivityRepository,
		),

		fx.Provide(
			NewScoringModel,
			NewOutbox,
			NewEngine,
			session.NewRegistry,
			func(cfg *config.Config) service.StudySettings {
				return service.StudySettings{TimedByDefault: cfg.Study.TimerEnabled}
			},
			report.NewBuilder,
			func() report.Notifier { return report.LogNotifier{} },
		),

		fx.Provide(
			service.NewDeckService,
			service.NewQuestionService,
			service.NewStudyService,
		),

		fx.Provide(controller.NewController),

		fx.Invoke(ConfigureLogger),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(ManageSessions),
		fx.Invoke(ScheduleReports),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

func ConfigureLogger(cfg *config.Config) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

func NewScoringModel(cfg *config.Config) scoring.Model {
	return scoring.Model{Decay: cfg.Study.ScoreDecay}
}

func NewOutbox() *outbox.Outbox {
	return outbox.New(10 * time.Second)
}

func NewEngine(store repository.QuestionStore, out *outbox.Outbox, scorer scoring.Model, cfg *config.Config) *session.Engine {
	return session.NewEngine(store, out, session.Config{
		Scoring:            scorer,
		SecondsPerQuestion: cfg.Study.SecondsPerQuestion,
	})
}

// ManageSessions runs the background writer for session results. On stop it
// disarms every live session timer first, then drains pending writes.
func ManageSessions(lc fx.Lifecycle, cfg *config.Config, registry *session.Registry, out *outbox.Outbox) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			out.Start(cfg.Study.OutboxWorkers)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			registry.CloseAll()
			return out.Stop(ctx)
		},
	})
}

func ScheduleReports(lc fx.Lifecycle, cfg *config.Config, builder *report.Builder, store repository.ActivityStore, notifier report.Notifier) {
	if !cfg.Report.Enabled {
		log.Info().Msg("Weekly report scheduler disabled")
		return
	}
	scheduler := report.NewScheduler(builder, store, notifier, cfg.Report.Cron)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", controller.UserHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	ctrl *controller.Controller,
) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Studydeck API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Deck{},
		&model.Question{},
		&model.Attempt{},
		&model.QuestionBankEntry{},
		&model.TestSession{},
		&model.DailyActivity{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
