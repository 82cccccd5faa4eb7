// Package app wires configuration, storage, remote adapters and the HTTP
// surface into a runnable service.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	nats "github.com/nats-io/nats.go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/adapter/googlecal"
	"github.com/univel/meetsync/internal/adapter/memory"
	"github.com/univel/meetsync/internal/config"
	"github.com/univel/meetsync/internal/crypto"
	"github.com/univel/meetsync/internal/enrol"
	"github.com/univel/meetsync/internal/handler"
	"github.com/univel/meetsync/internal/notify"
	"github.com/univel/meetsync/internal/secret"
	"github.com/univel/meetsync/internal/session"
	"github.com/univel/meetsync/internal/store"
	"github.com/univel/meetsync/internal/sync"
)

// App holds the wired dependencies and the HTTP server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server

	natsConn   *nats.Conn
	subscriber *notify.EnrolmentSubscriber
}

// New wires the service. In dev mode every external collaborator is an
// in-memory fake, so the service runs without AWS, Google, Postgres or NATS.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	a := &App{cfg: cfg, logger: logger}

	var (
		st        store.Store
		roster    enrol.Roster
		cal       adapter.CalendarAdapter
		storage   adapter.StorageAdapter
		reports   adapter.ReportsAdapter
		publisher notify.Publisher
		locker    session.Locker
		jwtSecret string
	)

	if cfg.DevMode {
		logger.Info("running in dev mode, using in-memory collaborators")
		fake := memory.NewFake()
		cal, storage, reports = fake, fake, fake
		st = store.NewMemory()
		roster = enrol.NewMemoryRoster()
		publisher = notify.NewCapture()
		locker = session.NewMemoryLocker()
		jwtSecret = "dev-secret"
	} else {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		gormStore := store.NewGormStore(db)
		if err := gormStore.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
		gormRoster := enrol.NewGormRoster(db)
		if err := gormRoster.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("migrate roster schema: %w", err)
		}
		st = gormStore
		roster = gormRoster

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		locker = session.NewDynamoLocker(dynamodb.NewFromConfig(awsCfg), cfg.LockTableName)
		resolver := secret.NewSSMResolver(ssm.NewFromConfig(awsCfg), cfg.SecretPrefix)
		encryptor := crypto.NewKMSService(kms.NewFromConfig(awsCfg), cfg.KMSKeyID)

		credentials, err := loadCredentials(ctx, cfg, resolver, encryptor)
		if err != nil {
			return nil, err
		}
		services, err := googlecal.NewServices(ctx, credentials, cfg.CalendarOwner, cfg.CalendarID)
		if err != nil {
			return nil, fmt.Errorf("build Google services: %w", err)
		}
		cal, storage, reports = services.Calendar, services.Drive, services.Reports

		jwtSecret, err = resolver.Resolve(ctx, secret.JWTSigningKey)
		if err != nil {
			return nil, fmt.Errorf("resolve JWT secret: %w", err)
		}

		a.natsConn, err = nats.Connect(cfg.NATSURL,
			nats.DrainTimeout(cfg.ShutdownTimeout),
			nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
				logger.Error("nats error", "error", err)
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		publisher = notify.NewNATSPublisher(a.natsConn, cfg.NATSSubjectPrefix+".events", logger)
	}

	svc := sync.NewService(sync.Deps{
		Store:       st,
		Calendar:    cal,
		Storage:     storage,
		Reports:     reports,
		Roster:      roster,
		Publisher:   publisher,
		Locker:      locker,
		CallbackURL: cfg.WebhookURL,
		FetchWindow: cfg.RecordingsFetchWindow,
		CacheWindow: cfg.RecordingsCacheWindow,
		Logger:      logger,
	})

	if a.natsConn != nil {
		a.subscriber = notify.NewEnrolmentSubscriber(a.natsConn, svc, logger)
		if err := a.subscriber.Start(ctx, cfg.NATSSubjectPrefix); err != nil {
			return nil, fmt.Errorf("subscribe to enrolment events: %w", err)
		}
	}

	router := handler.SetupRouter(jwtSecret,
		handler.NewMeetingController(svc, st, logger),
		handler.NewRecordingController(svc, st, logger),
		handler.NewWebhookController(svc, logger),
	)
	a.server = &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// loadCredentials returns the service-account key: from a local file when
// configured, otherwise the resolved secret, which may hold a plain JSON key
// or a KMS-encrypted blob.
func loadCredentials(ctx context.Context, cfg *config.Config, resolver secret.Resolver, encryptor crypto.Encryptor) ([]byte, error) {
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	}

	value, err := resolver.Resolve(ctx, secret.CalendarCredentials)
	if err != nil {
		return nil, fmt.Errorf("resolve calendar credentials: %w", err)
	}
	if json.Valid([]byte(value)) {
		return []byte(value), nil
	}
	data, err := encryptor.Decrypt(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials blob: %w", err)
	}
	return data, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.subscriber != nil {
		a.subscriber.Stop()
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("failed to drain NATS connection", "error", err)
		}
	}
	return a.server.Shutdown(shutdownCtx)
}
