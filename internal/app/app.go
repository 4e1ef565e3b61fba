package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docvaulthq/docvault/internal/blob"
	"github.com/docvaulthq/docvault/internal/config"
	v1 "github.com/docvaulthq/docvault/internal/controller/http/v1"
	"github.com/docvaulthq/docvault/internal/infrastructure/report_generator"
	"github.com/docvaulthq/docvault/internal/jobqueue"
	"github.com/docvaulthq/docvault/internal/processing"
	"github.com/docvaulthq/docvault/internal/push"
	"github.com/docvaulthq/docvault/internal/repository/postgresql"
)

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting app",
		slog.String("blob_backend", a.cfg.Blob.Backend),
		slog.Duration("queue_poll_interval", a.cfg.Queue.PollInterval),
		slog.Int("queue_workers", a.cfg.Queue.Workers),
	)

	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}

	documentsRepository := postgresql.NewDocumentsRepository(pool)
	workflowsRepository := postgresql.NewWorkflowsRepository(pool)
	syncJobsRepository := postgresql.NewSyncJobsRepository(pool)
	notificationsRepository := postgresql.NewNotificationsRepository(pool)
	txManager := postgresql.NewTxManager(pool)

	hub := push.NewHub(a.log)
	queue := jobqueue.New(a.log, jobqueue.NewStore(pool), a.cfg.Queue.PollInterval, a.cfg.Queue.Workers)

	// Jobs stranded in running by a crashed process go back to pending
	// before anything new is claimed.
	if err := queue.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover job queue: %w", err)
	}

	notifier := processing.NewNotifier(a.log, notificationsRepository, hub)

	uploader := processing.NewUploadCoordinator(a.log, blobs, documentsRepository, txManager, queue, hub, notifier)
	extractor := processing.NewExtractionWorker(a.log, documentsRepository, processing.NewSimulatedEngine(), hub, a.cfg.App.ExtractionDelay)
	bulkWorker := processing.NewBulkOperationWorker(a.log, documentsRepository, blobs, txManager, hub, report_generator.New(), notifier)
	workflows := processing.NewWorkflowManager(a.log, workflowsRepository, queue, hub, a.cfg.App.AutoCompleteDelay)
	syncWorker := processing.NewSyncWorker(a.log, syncJobsRepository, queue, hub, a.cfg.App.SyncStepDelay)

	queue.Register(processing.JobKindExtract, extractor.Handle)
	queue.Register(processing.JobKindBulk, bulkWorker.Handle)
	queue.Register(processing.JobKindWorkflowComplete, workflows.HandleAutoComplete)
	queue.Register(processing.JobKindRepositorySync, syncWorker.Handle)

	server := v1.NewServer(a.cfg.HTTP, v1.Handlers{
		Documents:     v1.NewDocumentsHandler(uploader, documentsRepository, bulkWorker, queue),
		Workflows:     v1.NewWorkflowsHandler(workflows),
		Events:        v1.NewEventsHandler(hub),
		Notifications: v1.NewNotificationsHandler(notificationsRepository, notifier),
		Repositories:  v1.NewRepositoriesHandler(syncWorker),
		Exports:       v1.NewExportsHandler(blobs),
	})

	return a.run(ctx, queue, server)
}

func (a *App) newBlobStore(ctx context.Context) (blob.Store, error) {
	switch a.cfg.Blob.Backend {
	case "fs":
		return blob.NewFilesystemStore(a.cfg.Blob.Directory), nil
	case "gcs":
		return blob.NewGCSStore(ctx, a.cfg.Blob.GCSBucket)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", a.cfg.Blob.Backend)
	}
}

func (a *App) run(ctx context.Context, queue *jobqueue.Queue, server *v1.Server) error {
	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "job queue started")
		return queue.Run(ctx)
	})

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	a.log.InfoContext(ctx, "all components started")

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "app stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "app stopped gracefully")

	return nil
}
