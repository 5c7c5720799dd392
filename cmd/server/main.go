package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/auth"
	"github.com/travelfair/service-promo/internal/config"
	"github.com/travelfair/service-promo/internal/database"
	"github.com/travelfair/service-promo/internal/handler"
	"github.com/travelfair/service-promo/internal/health"
	"github.com/travelfair/service-promo/internal/kafka"
	"github.com/travelfair/service-promo/internal/logger"
	"github.com/travelfair/service-promo/internal/middleware"
	"github.com/travelfair/service-promo/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-promo")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-promo",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.EventModel{},
			&repository.AgentModel{},
			&repository.PromoModel{},
			&repository.CodeModel{},
			&repository.BookingModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize repositories
	promoRepo := repository.NewGormPromoRepository(db)
	codeRegistry := repository.NewGormCodeRegistry(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	agentRepo := repository.NewGormAgentRepository(db)
	eventRepo := repository.NewGormEventRepository(db)

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, promoRepo, codeRegistry, agentRepo, eventRepo, kafkaProducer, zapLogger)
	promoService := application.NewPromoService(promoRepo, bookingRepo, zapLogger)
	codeService := application.NewCodeService(codeRegistry, promoRepo, zapLogger)
	agentService := application.NewAgentService(agentRepo, bookingRepo, zapLogger)
	eventService := application.NewEventService(eventRepo, zapLogger)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	promoHandler := handler.NewPromoHandler(promoService)
	codeHandler := handler.NewCodeHandler(codeService)
	agentHandler := handler.NewAgentHandler(agentService)
	eventHandler := handler.NewEventHandler(eventService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-promo")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(apiV1, jwtManager)
	promoHandler.RegisterRoutes(apiV1, jwtManager)
	codeHandler.RegisterRoutes(apiV1, jwtManager)
	agentHandler.RegisterRoutes(apiV1, jwtManager)
	eventHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-promo...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-promo stopped")
}
