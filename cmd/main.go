package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/secondstrikerr/secondstriker/brackets"
	"github.com/secondstrikerr/secondstriker/config"
	"github.com/secondstrikerr/secondstriker/db"
	"github.com/secondstrikerr/secondstriker/handlers"
	"github.com/secondstrikerr/secondstriker/payments/mpesa"
	"github.com/secondstrikerr/secondstriker/repositories"
	api "github.com/secondstrikerr/secondstriker/routes"
	"github.com/secondstrikerr/secondstriker/services"
	"github.com/secondstrikerr/secondstriker/storage"
)

const joinRequestSweepInterval = time.Minute

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Платёжный шлюз M-Pesa
	gateway := mpesa.NewClient(mpesa.Config{
		BaseURL:           cfg.MpesaBaseURL,
		ConsumerKey:       cfg.MpesaConsumerKey,
		ConsumerSecret:    cfg.MpesaConsumerSecret,
		ShortCode:         cfg.MpesaShortCode,
		Passkey:           cfg.MpesaPasskey,
		InitiatorName:     cfg.MpesaInitiatorName,
		InitiatorPassword: cfg.MpesaInitiatorPassword,
		CallbackBaseURL:   cfg.MpesaCallbackBaseURL,
	})

	// WebSocket-хаб живых обновлений
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository()
	leagueRepo := repositories.NewPostgresLeagueRepository()
	tournamentRepo := repositories.NewPostgresTournamentRepository()
	fixtureRepo := repositories.NewPostgresFixtureRepository()
	standingRepo := repositories.NewPostgresStandingRepository()
	transactionRepo := repositories.NewPostgresTransactionRepository()
	joinRequestRepo := repositories.NewPostgresJoinRequestRepository()

	// Сервисы
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(dbConn, logger, userRepo, emailService)
	userService := services.NewUserService(dbConn, userRepo)
	walletService := services.NewWalletService(dbConn, logger, gateway, userRepo, transactionRepo)
	leagueService := services.NewLeagueService(dbConn, logger, wsHub, uploader, leagueRepo, userRepo, fixtureRepo, standingRepo)
	tournamentService := services.NewTournamentService(dbConn, logger, wsHub, uploader, tournamentRepo, userRepo, fixtureRepo, standingRepo)
	joinRequestService := services.NewJoinRequestService(dbConn, logger, joinRequestRepo, userRepo, leagueRepo, tournamentRepo)
	logger.Info("services initialized")

	// Фоновая зачистка просроченных приглашений
	go func() {
		ticker := time.NewTicker(joinRequestSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := joinRequestService.ExpireOverdue(context.Background()); err != nil {
				logger.Error("failed to expire overdue join requests", slog.Any("error", err))
			}
		}
	}()

	// Обработчики HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	leagueHandler := handlers.NewLeagueHandler(leagueService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	walletHandler := handlers.NewWalletHandler(walletService)
	joinRequestHandler := handlers.NewJoinRequestHandler(joinRequestService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	// Маршрутизатор
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		leagueHandler,
		tournamentHandler,
		walletHandler,
		joinRequestHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
