package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	App
	Blob
	Queue
	PostgreSQL
	HTTP
}

type App struct {
	ExtractionDelay   time.Duration
	AutoCompleteDelay time.Duration
	SyncStepDelay     time.Duration
}

type Blob struct {
	Backend   string
	Directory string
	GCSBucket string
}

type Queue struct {
	PollInterval time.Duration
	Workers      int
}

type PostgreSQL struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		App: App{
			ExtractionDelay:   cmd.Duration("extraction-delay"),
			AutoCompleteDelay: cmd.Duration("autocomplete-delay"),
			SyncStepDelay:     cmd.Duration("sync-step-delay"),
		},
		Blob: Blob{
			Backend:   cmd.String("blob-backend"),
			Directory: cmd.String("blob-dir"),
			GCSBucket: cmd.String("blob-gcs-bucket"),
		},
		Queue: Queue{
			PollInterval: cmd.Duration("queue-poll-interval"),
			Workers:      cmd.Int("queue-workers"),
		},
		PostgreSQL: PostgreSQL{
			Host:     cmd.String("pg-host"),
			Port:     cmd.String("pg-port"),
			Username: cmd.String("pg-username"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
	}
}
