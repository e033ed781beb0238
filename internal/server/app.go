// Package server initializes and runs the upload server. It wires the
// admission pipeline together, handles graceful shutdown, and starts the
// HTTP endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tmc/langchaingo/llms/ollama"

	"filedepot/internal/filex"
	"filedepot/internal/kvstore"
	"filedepot/internal/logging"
	"filedepot/internal/server/banlist"
	"filedepot/internal/server/classify"
	"filedepot/internal/server/config"
	"filedepot/internal/server/confirm"
	"filedepot/internal/server/events"
	"filedepot/internal/server/httpapi"
	"filedepot/internal/server/moderation"
	"filedepot/internal/server/plans"
	"filedepot/internal/server/storage"
	"filedepot/internal/server/upload"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     *kvstore.RedisStore
	publisher *events.KafkaPublisher
	service   *upload.Service
	gateway   *storage.Gateway
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	store := kvstore.NewRedisStore(c.RedisAddr, c.RedisPassword)
	publisher := events.NewKafkaPublisher(c.KafkaBrokers)

	gateway, err := storage.NewGateway(ctx, storage.Options{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	llm, err := ollama.New(
		ollama.WithServerURL(c.OllamaEndpoint),
		ollama.WithModel(c.ModerationModel),
	)
	if err != nil {
		return nil, fmt.Errorf("llm init error: %w", err)
	}

	tmpDir, err := filex.EnsureDir(c.UploadTmpDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir init error: %w", err)
	}

	bans := banlist.NewService(store, publisher, c.BanRules, logger)
	detector := classify.NewDetector()
	moderator := moderation.NewClient(llm, logger)
	resolver := plans.NewResolver(c.PlanServiceURL, c.StorageUnitBytes, logger)
	synchronizer := confirm.NewSynchronizer(store, c.ConfirmTimeout, c.ConfirmPollInterval, logger)

	service := upload.NewService(bans, detector, moderator, resolver,
		gateway, publisher, synchronizer, tmpDir, logger)

	return &App{
		config:    c,
		logger:    logger,
		store:     store,
		publisher: publisher,
		service:   service,
		gateway:   gateway,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.service, app.gateway, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "failed to close event publisher", "error", err)
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "failed to close key-value store", "error", err)
	}
}
