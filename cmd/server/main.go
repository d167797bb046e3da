package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/cache"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/consumer"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/httpapi"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/provider"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/publisher"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/service"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	logger.Info("commerce-core starting...")

	// Configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "localhost:9092")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGO_DB", "commerce")
	toolSecret := getEnv("TOOL_SECRET", "")
	serviceKey := getEnv("SERVICE_KEY", "")
	payBaseURL := getEnv("PAYMENT_BASE_URL", "https://pay.example.com")

	if toolSecret == "" && serviceKey == "" {
		logger.Warn("TOOL_SECRET and SERVICE_KEY are both unset, all tool endpoints will reject requests")
	}

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "commerce")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/repository/migrations")

	port, err := strconv.Atoi(dbPort)
	if err != nil {
		logger.Fatalw("invalid DB_PORT", "error", err)
	}

	creds := &repository.Credentials{
		Host:              dbHost,
		Port:              port,
		User:              dbUser,
		Password:          dbPass,
		DBName:            dbName,
		MigrationsDirPath: migrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		logger.Fatalw("failed to connect to postgres", "error", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatalw("failed to run migrations", "error", err)
	}
	logger.Info("database migrations completed")

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 15*time.Second)
	mongoDatabase, err := conversation.ConnectMongoDB(connectCtx, mongoURI, mongoDB)
	connectCancel()
	if err != nil {
		logger.Fatalw("failed to connect to mongodb", "error", err)
	}
	convs := conversation.NewMongoRepository(mongoDatabase)

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	shopifyClient := provider.NewShopifyClient(10 * time.Second)
	paymentLinks := service.NewPaymentLinkGenerator(payBaseURL)

	cartService := service.NewCartService(convs, repo, cartCache, logger)
	checkoutService := service.NewCheckoutService(convs, repo, cartCache, paymentLinks, logger)
	inventoryService := service.NewInventoryService(repo, repo, shopifyClient, logger)
	productService := service.NewProductService(repo)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Cart:       cartService,
		Checkout:   checkoutService,
		Inventory:  inventoryService,
		Products:   productService,
		Orders:     repo,
		ToolSecret: toolSecret,
		ServiceKey: serviceKey,
		Logger:     logger,
	})

	var wg sync.WaitGroup
	workerCtx, workerCancel := context.WithCancel(context.Background())

	outboxPoller := publisher.NewOutboxPoller(repo, logger, kafkaBrokers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxPoller.Run(workerCtx)
	}()

	orderConsumer := consumer.NewOrderEventsConsumer(convs, cartCache, logger, kafkaBrokers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		orderConsumer.Run(workerCtx)
	}()

	server := &http.Server{
		Addr:    ":" + httpPort,
		Handler: otelhttp.NewHandler(router, "commerce-core"),
	}

	go func() {
		logger.Infow("http server listening", "port", httpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http server shutdown error", "error", err)
	}

	workerCancel()
	orderConsumer.Close()
	wg.Wait()
	logger.Info("stopped")
}
