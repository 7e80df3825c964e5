package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/bank-spn/manus-pos/internal/cache"
	"github.com/bank-spn/manus-pos/internal/cartstore"
	"github.com/bank-spn/manus-pos/internal/catalog"
	"github.com/bank-spn/manus-pos/internal/catalogstore"
	"github.com/bank-spn/manus-pos/internal/checkout"
	h "github.com/bank-spn/manus-pos/internal/http"
	"github.com/bank-spn/manus-pos/internal/notify"
	"github.com/bank-spn/manus-pos/internal/ordersink"
	"github.com/bank-spn/manus-pos/internal/orderstore"
	"github.com/bank-spn/manus-pos/internal/session"
)

type Config struct {
	HTTPPort   string
	TerminalID string
	TaxRate    string

	CatalogDBPath        string
	CatalogMigrationsDir string

	RedisAddr string

	KafkaBrokers     []string
	CatalogTopic     string
	OrdersTopic      string
	KafkaGroupPrefix string

	// CheckoutEndpoint switches the sink: set, checkouts are forwarded to
	// the remote ordering service; empty, the local Postgres store is used.
	CheckoutEndpoint string

	PostgresHost        string
	PostgresPort        int
	PostgresUser        string
	PostgresPassword    string
	PostgresDB          string
	OrdersMigrationsDir string

	MongoURI string
	MongoDB  string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid POSTGRES_PORT: %v", err)
	}

	return &Config{
		HTTPPort:   getEnv("HTTP_PORT", "8080"),
		TerminalID: getEnv("TERMINAL_ID", "terminal-1"),
		TaxRate:    getEnv("TAX_RATE", ""),

		CatalogDBPath:        getEnv("CATALOG_DB_PATH", "pos.db"),
		CatalogMigrationsDir: getEnv("CATALOG_MIGRATIONS_DIR", "./internal/catalogstore/migrations"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		KafkaBrokers:     splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
		CatalogTopic:     getEnv("CATALOG_TOPIC", "catalog-changes"),
		OrdersTopic:      getEnv("ORDERS_TOPIC", "order-events"),
		KafkaGroupPrefix: getEnv("KAFKA_GROUP_PREFIX", "pos-terminal"),

		CheckoutEndpoint: getEnv("CHECKOUT_ENDPOINT", ""),

		PostgresHost:        getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:        pgPort,
		PostgresUser:        getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:    getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:          getEnv("POSTGRES_DB", "pos_orders"),
		OrdersMigrationsDir: getEnv("ORDERS_MIGRATIONS_DIR", "./internal/orderstore/migrations"),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "pos"),

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

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog: sqlite store, optionally fronted by the Redis snapshot
	// cache, kept live by the Kafka change feed.
	catalogRepo, err := catalogstore.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("failed to open catalog db: %v", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsDir); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}

	catalogHub := notify.NewHub()
	var catalogSource catalog.CatalogSource = catalogstore.NewSource(catalogRepo, catalogHub)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to ping redis: %v", err)
		}
		defer redisClient.Close()
		catalogSource = cache.NewCachedSource(catalogSource, cache.NewRedisCache(redisClient))
		log.Printf("catalog cache enabled via %s", cfg.RedisAddr)
	}

	if len(cfg.KafkaBrokers) > 0 {
		feed := notify.NewFeed(catalogHub, cfg.CatalogTopic,
			cfg.KafkaGroupPrefix+"-"+cfg.TerminalID+"-catalog", cfg.KafkaBrokers...)
		defer feed.Close()
		go feed.Run(ctx)
		log.Printf("catalog change feed on %s", cfg.CatalogTopic)
	}

	view := catalog.NewLiveView(catalogSource)
	view.Start(ctx)
	defer view.Close()

	// Session: in-memory by default, write-behind to Mongo when configured.
	sess := session.New(cfg.TerminalID)
	if cfg.MongoURI != "" {
		mongoDB, err := cartstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		store := cartstore.NewMongoStore(mongoDB)
		if err := store.CreateIndexes(ctx); err != nil {
			log.Fatalf("failed to create cart indexes: %v", err)
		}
		sess = sess.WithStore(store)
		if err := sess.Restore(ctx); err != nil {
			log.Printf("warning: could not restore session: %v", err)
		}
	}

	// Order sink: remote ordering service or the local Postgres store.
	var sink checkout.OrderSink
	var advancer h.OrderAdvancer
	if cfg.CheckoutEndpoint != "" {
		sink = ordersink.NewHTTPSink(cfg.CheckoutEndpoint, notify.NewHub())
		log.Printf("forwarding checkouts to %s", cfg.CheckoutEndpoint)
	} else {
		orderRepo, err := orderstore.NewRepository(&orderstore.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPassword,
			DBName:            cfg.PostgresDB,
			MigrationsDirPath: cfg.OrdersMigrationsDir,
		})
		if err != nil {
			log.Fatalf("failed to open orders db: %v", err)
		}
		defer orderRepo.Close()

		if err := orderRepo.RunMigrations(&orderstore.Credentials{MigrationsDirPath: cfg.OrdersMigrationsDir}); err != nil {
			log.Fatalf("failed to run orders migrations: %v", err)
		}

		var publisher orderstore.EventPublisher
		if len(cfg.KafkaBrokers) > 0 {
			kafkaPublisher := notify.NewPublisher(cfg.OrdersTopic, cfg.KafkaBrokers...)
			defer kafkaPublisher.Close()
			publisher = kafkaPublisher
		}

		storeSink := orderstore.NewStoreSink(orderRepo, publisher)
		sink = storeSink
		advancer = storeSink
		log.Printf("storing orders locally in %s", cfg.PostgresDB)
	}

	orchestrator := checkout.NewOrchestrator(sess.Ledger(), sink).WithClear(sess.ClearCart)
	if cfg.TaxRate != "" {
		rate, err := decimal.NewFromString(cfg.TaxRate)
		if err != nil {
			log.Fatalf("invalid TAX_RATE: %v", err)
		}
		orchestrator = orchestrator.WithTaxRate(rate)
	}

	router := h.NewRouter(h.RouterConfig{
		Catalog:        h.NewCatalogHandler(view, catalogRepo, cfg.RequestTimeout),
		Cart:           h.NewCartHandler(sess, view),
		Checkout:       h.NewCheckoutHandler(orchestrator, sess, cfg.RequestTimeout),
		Orders:         h.NewOrdersHandler(sink, advancer, cfg.RequestTimeout),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("POS terminal %s starting on :%s", cfg.TerminalID, cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
