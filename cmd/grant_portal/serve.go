package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/grant-portal/internal/config"
	"github.com/jonathan/grant-portal/internal/db/memdb"
	"github.com/jonathan/grant-portal/internal/grants"
	"github.com/jonathan/grant-portal/internal/notify"
	"github.com/jonathan/grant-portal/internal/profile"
	"github.com/jonathan/grant-portal/internal/server"
	"github.com/jonathan/grant-portal/internal/server/ratelimit"
	"github.com/jonathan/grant-portal/internal/storage"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the account, researcher profile and
grant application endpoints. With --memory the server keeps all data in
process and needs no database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Use an in-memory store instead of PostgreSQL")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	pwCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store
	if serveMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		st = memdb.New()
	} else {
		var closeStore func()
		st, closeStore, err = openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
	}

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(notifier, logger, 0)
	// Let in-flight notifications finish before the notifier closes.
	defer dispatcher.Wait()

	files, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())
	defer limiter.Stop()

	srv := server.New(server.Deps{
		Users:   server.NewUserService(st, pwCfg, logger),
		JWT:     server.NewJWTService(jwtCfg),
		Profile: profile.NewService(st, logger),
		Grants: grants.NewService(st, files, dispatcher,
			grants.WithDeadline(cfg.Deadline),
			grants.WithLogger(logger)),
		Files:   files,
		Limiter: limiter,
		Health:  st,
		Logger:  logger,
	})

	logger.Info("grant portal configured",
		slog.Bool("kafka", cfg.Kafka.Enabled()),
		slog.Bool("s3", cfg.S3.Enabled()),
		slog.Time("deadline", cfg.Deadline))
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
}

// newNotifier publishes status changes to Kafka when brokers are configured
// and logs them otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func(), error) {
	if !cfg.Kafka.Enabled() {
		return notify.NewLogNotifier(logger), func() {}, nil
	}
	k, err := notify.NewKafkaNotifier(notify.KafkaConfig{
		Brokers:    cfg.Kafka.Brokers,
		Topic:      cfg.Kafka.Topic,
		MaxRetries: cfg.Kafka.MaxRetries,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return k, func() {
		if err := k.Close(); err != nil {
			logger.Warn("failed to close kafka writer", slog.Any("error", err))
		}
	}, nil
}

// newStorage stores uploads in S3 when a bucket is configured and under
// UPLOAD_DIR otherwise.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.S3.Enabled() {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			BaseEndpoint: cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
		})
	}
	return storage.NewDiskStorage(cfg.UploadDir, "")
}
