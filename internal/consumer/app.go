package consumer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/segmentio/kafka-go"
	"github.com/tmc/langchaingo/llms/ollama"

	"filedepot/internal/consumer/config"
	"filedepot/internal/consumer/enrich"
	"filedepot/internal/consumer/metadata"
	"filedepot/internal/consumer/migrations"
	"filedepot/internal/kvstore"
	"filedepot/internal/logging"
	"filedepot/internal/server/events"
	"filedepot/internal/server/storage"
)

// App wires the drain loop to its backing services and owns their
// lifecycles.
type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	store     *kvstore.RedisStore
	publisher *events.KafkaPublisher
	reader    *kafka.Reader
	consumer  *Consumer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	repo := metadata.NewPostgresRepository(db)
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
		ollama.WithModel(c.EnrichModel),
	)
	if err != nil {
		return nil, fmt.Errorf("llm init error: %w", err)
	}

	enricher := enrich.NewEnricher(llm, logger)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.KafkaBrokers,
		GroupID: c.GroupID,
		Topic:   events.TopicMetadataRequests,
	})

	consumer := New(reader, gateway, enricher, repo, store, publisher,
		c.ConfirmTTL, "", logger)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		store:     store,
		publisher: publisher,
		reader:    reader,
		consumer:  consumer,
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting consumer...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.consumer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.reader.Close(); err != nil {
		app.logger.Error(ctx, "failed to close reader", "error", err)
	}
	if err := app.publisher.Close(); err != nil {
		app.logger.Error(ctx, "failed to close event publisher", "error", err)
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "failed to close key-value store", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "failed to close database", "error", err)
	}
}
