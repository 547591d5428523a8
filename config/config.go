package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Study    Study
	Report   Report
	Log      Log
}

type Server struct {
	Port string
}

type Database struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string `json:"-"`
	Name     string
	Path     string // sqlite file
}

type Study struct {
	ScoreDecay         bool
	SecondsPerQuestion int
	TimerEnabled       bool
	OutboxWorkers      int
}

type Report struct {
	Enabled bool
	Cron    string
}

type Log struct {
	Level  string
	Pretty bool
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_PATH", "studydeck.db")
	viper.SetDefault("STUDY_SCORE_DECAY", false)
	viper.SetDefault("STUDY_SECONDS_PER_QUESTION", 60)
	viper.SetDefault("STUDY_TIMER_ENABLED", true)
	viper.SetDefault("STUDY_OUTBOX_WORKERS", 4)
	viper.SetDefault("REPORT_ENABLED", false)
	viper.SetDefault("REPORT_CRON", "0 8 * * 1")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Driver = viper.GetString("DATABASE_DRIVER")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.Path = viper.GetString("DATABASE_PATH")

	config.Study.ScoreDecay = viper.GetBool("STUDY_SCORE_DECAY")
	config.Study.SecondsPerQuestion = viper.GetInt("STUDY_SECONDS_PER_QUESTION")
	config.Study.TimerEnabled = viper.GetBool("STUDY_TIMER_ENABLED")
	config.Study.OutboxWorkers = viper.GetInt("STUDY_OUTBOX_WORKERS")

	config.Report.Enabled = viper.GetBool("REPORT_ENABLED")
	config.Report.Cron = viper.GetString("REPORT_CRON")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")

	log.Info().Interface("config", config).Msg("Config loaded")
	return &config, nil
}
