package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"gorm.io/gorm"

	_ "github.com/andrewkhoh/farmstand-inventory/docs"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/client"
	httpDelivery "github.com/andrewkhoh/farmstand-inventory/internal/ledger/delivery/http"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	ledgerEvents "github.com/andrewkhoh/farmstand-inventory/internal/ledger/events"
	"github.com/andrewkhoh/farmstand-inventory/kafka"
	"github.com/andrewkhoh/farmstand-inventory/pkg/database"
	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
	"github.com/andrewkhoh/farmstand-inventory/pkg/metrics"
	"github.com/andrewkhoh/farmstand-inventory/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "ledger-service")
	environment := getEnv("ENVIRONMENT", "development")
	logger.Init(logger.Config{
		Service:     serviceName,
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: environment == "development",
	})

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", environment).
		Msg("Starting ledger service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "ledgerdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(&domain.InventoryItem{}, &domain.StockMovement{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Operation metrics
	telemetry := metrics.NewSink(nil)

	// Redis cache for permission grants
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", redisAddr).
			Msg("Failed to connect to Redis - permission caching will be disabled")
		redisClient = nil
	} else {
		logger.Logger.Info().
			Str("redis_addr", redisAddr).
			Msg("Connected to Redis for permission caching")
	}

	// Permission gate backed by the role service
	cacheTTL := 5 * time.Minute
	if raw := getEnv("PERMISSION_CACHE_TTL", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.Logger.Warn().Err(err).Str("value", raw).Msg("Invalid PERMISSION_CACHE_TTL, using default")
		} else {
			cacheTTL = parsed
		}
	}
	roleServiceURL := getEnv("ROLE_SERVICE_URL", "http://localhost:8080")
	gate := client.NewRoleServiceClient(roleServiceURL, redisClient, cacheTTL)

	logger.Logger.Info().
		Str("role_service_url", roleServiceURL).
		Dur("cache_ttl", cacheTTL).
		Msg("Permission gate initialized")

	// Kafka publisher for movement events
	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	var publisher domain.EventPublisher = ledgerEvents.NopPublisher{}
	kafkaPublisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Warn().
			Err(err).
			Strs("brokers", brokers).
			Msg("Failed to connect to Kafka - movement events will not be published")
	} else {
		defer kafkaPublisher.Close()
		publisher = ledgerEvents.NewKafkaPublisher(kafkaPublisher)
		logger.Logger.Info().Strs("brokers", brokers).Msg("Kafka publisher initialized")
	}

	// Initialize handler with Wire DI
	handler, err := ledger.InitializeHTTPHandler(db, gate, telemetry, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	// Consume completed orders so sales are deducted even when the order
	// service never calls the HTTP API
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if consumer := startOrderConsumer(consumerCtx, db, gate, telemetry, publisher, brokers); consumer != nil {
		defer consumer.Close()
	}

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8084")
	go startHTTPServer(handler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startOrderConsumer(
	ctx context.Context,
	db *gorm.DB,
	gate domain.PermissionGate,
	telemetry domain.TelemetrySink,
	publisher domain.EventPublisher,
	brokers []string,
) *kafka.Consumer {
	orderHandler, err := ledger.InitializeOrderHandler(db, gate, telemetry, publisher)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize order handler")
		return nil
	}

	groupID := getEnv("KAFKA_CONSUMER_GROUP", "ledger-service")
	consumer, err := kafka.NewConsumer(brokers, groupID, []string{kafka.TopicOrderCompleted})
	if err != nil {
		logger.Logger.Warn().
			Err(err).
			Strs("brokers", brokers).
			Msg("Failed to connect to Kafka - completed orders will not be consumed")
		return nil
	}

	consumer.RegisterHandler(kafka.EventTypeOrderCompleted, orderHandler.HandleOrderCompleted)
	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
		consumer.Close()
		return nil
	}

	logger.Logger.Info().
		Str("group_id", groupID).
		Str("topic", kafka.TopicOrderCompleted).
		Msg("Kafka consumer started")
	return consumer
}

func startHTTPServer(handler *httpDelivery.LedgerHandler, db *sql.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	// Get middleware configuration
	middlewareConfig := httpDelivery.DefaultMiddlewareConfig()

	// Register all middlewares using middleware registration system
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// CORS middleware
	c := httpDelivery.SetupCORS(middlewareConfig)

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Str("swagger_endpoint", "/swagger/index.html").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, c(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
