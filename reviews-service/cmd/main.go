package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/cache"
	"shopreviews/reviews-service/internal/app/reviews/config"
	"shopreviews/reviews-service/internal/app/reviews/database"
	"shopreviews/reviews-service/internal/app/reviews/handler"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure/messaging"
	"shopreviews/reviews-service/internal/app/reviews/processor"
	"shopreviews/reviews-service/internal/app/reviews/repository"
	"shopreviews/reviews-service/internal/app/reviews/schema"
	"shopreviews/reviews-service/internal/app/reviews/service"
)

const serviceName = "reviews-service"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Customers, items and their reviews",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newShowCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the customers, items and reviews tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.Database.Driver).Msg("Migrations applied")
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show <customer|item|review> <id>",
		Short:     "Print the serialized view of one entity",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"customer", "item", "review"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[1])
			}

			cfg, err := setup()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			view, err := loadView(cmd.Context(), db, args[0], id)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// setup загружает конфигурацию и настраивает логгер
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(serviceName, cfg.LogLevel)

	if cfg.Logstash != "" {
		if err := logger.InitLogstash(cfg.Logstash, serviceName, cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Logstash).Msg("Connected to Logstash")
		}
	}

	return cfg, nil
}

func loadView(ctx context.Context, db *gorm.DB, kind string, id int64) (schema.View, error) {
	switch kind {
	case "customer":
		customer, err := repository.NewCustomerRepository(db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return schema.Customer.ToView(customer)
	case "item":
		item, err := repository.NewItemRepository(db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return schema.Item.ToView(item)
	case "review":
		review, err := repository.NewReviewRepository(db).GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return schema.Review.ToView(review)
	default:
		return nil, fmt.Errorf("unknown kind %q, expected customer, item or review", kind)
	}
}

func serve(cfg *config.Config) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)
	logger.Info().
		Str("driver", cfg.Database.Driver).
		Msg("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient, err := cache.Connect(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Msg("Initialized Kafka producer")

	shopService := service.NewShopService(
		repository.NewCustomerRepository(db),
		repository.NewItemRepository(db),
		repository.NewReviewRepository(db),
		cache.NewViewCache(redisClient, cfg.Cache.TTL),
		kafkaProducer,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	warmer := processor.NewCacheWarmer(shopService)
	if err := warmer.Start(ctx, cfg.Cache.WarmSchedule); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Cache.WarmSchedule).Msg("Failed to start cache warmer")
	}
	defer warmer.Stop()

	router := handler.SetupRoutes(
		handler.NewShopHandler(shopService),
		handler.NewHealthCheckHandler(db, redisClient),
		cfg.CORS.AllowOrigins,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Reviews Service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("Reviews Service stopped gracefully")
	return nil
}
