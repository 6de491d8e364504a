package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/kleankickx/storefront-api/internal/cache"
	"github.com/kleankickx/storefront-api/internal/catalog"
	"github.com/kleankickx/storefront-api/internal/customers"
	"github.com/kleankickx/storefront-api/internal/discounts"
	"github.com/kleankickx/storefront-api/internal/httpapi"
	"github.com/kleankickx/storefront-api/internal/image"
	"github.com/kleankickx/storefront-api/internal/notify"
	"github.com/kleankickx/storefront-api/internal/poller"
	"github.com/kleankickx/storefront-api/internal/repository"
	"github.com/kleankickx/storefront-api/internal/store"
	"github.com/kleankickx/storefront-api/internal/vouchers"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	KafkaBrokers    []string
	BackendBaseURL  string
	CatalogDBPath   string
	MigrationsPath  string
	BackendTimeout  time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "storefront"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		BackendBaseURL:  getEnv("BACKEND_BASE_URL", "http://localhost:8000/api"),
		CatalogDBPath:   getEnv("CATALOG_DB_PATH", "./catalog.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/catalog/migrations"),
		BackendTimeout:  10 * time.Second,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable snapshot storage
	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	repo := repository.NewMongoRepository(db)
	if err := repo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Read cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	// Notification queue
	notifier := notify.NewKafkaNotifier(cfg.KafkaBrokers...)
	defer notifier.Close()

	// Image pipeline. No HEIC converter is wired yet; HEIC uploads get
	// the actionable save-as-JPEG error.
	previews := image.NewPreviewRegistry()
	processor := image.NewProcessor(previews, nil)

	cartStore := store.New(repo, cartCache, notifier, previews)

	// Backend clients
	api := backend.NewClient("backend", cfg.BackendBaseURL, cfg.BackendTimeout)

	catalogCache, err := catalog.NewCache(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog cache: %v", err)
	}
	defer catalogCache.Close()
	if err := catalogCache.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run catalog migrations: %v", err)
	}
	resolver := catalog.NewResolver(api, catalogCache)

	discountClient := discounts.NewClient(api)
	voucherClient := vouchers.NewClient(api)
	customerClient := customers.NewClient(api)

	// Clear carts when orders complete
	orderPoller := poller.New(cartStore, cfg.KafkaBrokers...)
	defer orderPoller.Close()
	go orderPoller.Run(ctx)

	router := httpapi.NewRouter(
		httpapi.NewCartHandler(cartStore, processor, previews, cfg.RequestTimeout),
		httpapi.NewSummaryHandler(cartStore, resolver, discountClient, cfg.RequestTimeout),
		httpapi.NewVoucherHandler(cartStore, voucherClient, cfg.RequestTimeout),
		httpapi.NewCustomerHandler(customerClient, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
