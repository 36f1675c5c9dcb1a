package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-gatepass/internal/auth"
	"ms-gatepass/internal/config"
	"ms-gatepass/internal/database/migrations"
	events_db "ms-gatepass/internal/events/db"
	"ms-gatepass/internal/events/events_api"
	"ms-gatepass/internal/kafka"
	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
	"ms-gatepass/internal/orders"
	orders_db "ms-gatepass/internal/orders/db"
	"ms-gatepass/internal/orders/order_api"
	"ms-gatepass/internal/scan"
	scan_db "ms-gatepass/internal/scan/db"
	"ms-gatepass/internal/scan/scan_api"
	"ms-gatepass/internal/sse"
	"ms-gatepass/internal/tickets"
	tickets_db "ms-gatepass/internal/tickets/db"
	"ms-gatepass/internal/tickets/ticket_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting scan gateway initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	migrateOpts := migrations.DefaultOptions()
	if migrateOpts.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrateOpts)
		if err := runner.MigrateUp(); err != nil {
			log.Warn("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderCompleted, cfg.Kafka.Topics.ScanRecorded)
		defer producer.Close()

		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCompleted,
			cfg.Kafka.Topics.ScanRecorded,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		log.Info("KAFKA", "Kafka producer initialized")
	} else {
		log.Warn("KAFKA", "Kafka disabled, order completion events will not be streamed")
	}

	scanDB := &scan_db.DB{Bun: bunDB}
	scanService := scan.NewScanService(scanDB, log)
	ticketService := tickets.NewTicketService(&tickets_db.DB{Bun: bunDB}, log)

	var orderPublisher orders.OrderEventPublisher
	if producer != nil {
		orderPublisher = producer
	}
	orderService := orders.NewOrderService(&orders_db.DB{Bun: bunDB}, ticketService, orderPublisher, log)

	assignmentDB := &auth.DB{Bun: bunDB}
	capCache := auth.NewRedisCapabilityCache(redisClient, cfg.Auth.CapabilityCacheTTL)
	authorizer := auth.NewAuthorizer(assignmentDB, capCache, log)

	feed := sse.NewScanFeed()

	scanHandler := &scan_api.Handler{
		ScanService: scanService,
		Authorizer:  authorizer,
		AuditDB:     scanDB,
		LastCodes:   scan_api.NewRedisLastCodeStore(redisClient, cfg.Scanner.DedupeTTL),
		Feed:        feed,
		Logger:      log,
	}
	if producer != nil {
		scanHandler.Publisher = producer
	}

	assignmentHandler := &auth.AssignmentHandler{DB: assignmentDB, Logger: log}
	ticketHandler := &ticket_api.Handler{TicketService: ticketService, Logger: log}
	orderHandler := &order_api.Handler{OrderService: orderService, Logger: log}
	eventHandler := &events_api.Handler{EventDB: &events_db.DB{Bun: bunDB}}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewOrderConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderCompleted, cfg.Kafka.GroupID, log)
		defer consumer.Close()

		go consumer.Start(ctx, func(ctx context.Context, order models.Order) {
			if order.Status != models.OrderStatusCompleted {
				return
			}
			if _, err := ticketService.IssueForOrder(ctx, order); err != nil {
				log.Error("TICKETS", fmt.Sprintf("Issuance for order %s failed: %v", order.OrderID, err))
			}
		})
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	eventHandler.RegisterRoutes(r)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		if cfg.Auth.SkipVerify {
			log.Warn("AUTH", "Token verification disabled (AUTH_SKIP_VERIFY)")
			r.Use(auth.UnverifiedMiddleware())
		} else {
			r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))
		}

		r.Route("/api", func(r chi.Router) {
			scanHandler.RegisterRoutes(r)
			ticketHandler.RegisterRoutes(r)
			orderHandler.RegisterRoutes(r)
			assignmentHandler.RegisterRoutes(r)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Scan gateway running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Scan gateway shutdown complete")
	}
}
