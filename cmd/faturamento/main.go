package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"faturamento/internal/amqp"
	"faturamento/internal/config"
	httpserver "faturamento/internal/http"
	"faturamento/internal/log"
	"faturamento/internal/portal"
	"faturamento/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	logger.Info("Starting faturamento API")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	portalOpts := portal.Options{
		BaseURL:   cfg.PortalBaseURL,
		UserAgent: cfg.PortalUserAgent,
		Timeout:   cfg.PortalTimeout,
		Ordem:     portalOrdem(cfg.PortalOrdem),
	}

	// Histórico é opcional: HISTORY_BACKEND=none desliga a persistência.
	var history httpserver.HistoryStore
	if cfg.HistoryBackend == "sqlite" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		history = repo
		logger.Info("Consulta history enabled", "path", cfg.SQLiteDBPath)
	} else {
		logger.Info("Consulta history disabled")
	}

	// Sem AMQP a exportação fica só no ciclo periódico do worker.
	var notifier httpserver.SyncNotifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqpClient
		logger.Info("AMQP sync notifications enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := httpserver.NewServer(":"+cfg.Port, portalOpts, history, notifier)
	srv.ReadTimeout = 10 * time.Second
	// respostas esperam a raspagem do portal inteiro
	srv.WriteTimeout = cfg.PortalTimeout + 30*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped")
}

// portalOrdem mapeia o valor já validado pelo config para o enum do portal.
func portalOrdem(s string) portal.Ordem {
	if s == "desconhecida" {
		return portal.OrdemDesconhecida
	}
	return portal.OrdemDecrescente
}
