package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"faturamento/internal/amqp"
	"faturamento/internal/config"
	"faturamento/internal/log"
	"faturamento/internal/sheets"
	gsheet "faturamento/internal/sheets/google"
	"faturamento/internal/sheets/memory"
	"faturamento/internal/storage"
	"faturamento/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting faturamento-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	// O worker lê as consultas pendentes direto do mesmo banco da API.
	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Sem planilha configurada os registros ficam num destino em memória,
	// útil para rodar a pilha completa em desenvolvimento.
	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Info("Google Sheets disabled - exporting to in-memory store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reportWorker := worker.NewReportWorker(sqliteRepo, writer, cfg.SyncBatchSize)

	// On startup, export any pending consultas that might have been missed
	logger.Info("Performing startup sync check...")
	if err := reportWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
		// Don't exit - continue with normal operation
	}

	// Consome notificações da API quando há broker; sem ele o ticker
	// periódico abaixo é o único gatilho de exportação.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			handler := func(msg *amqp.ConsultaSyncMessage) error {
				return reportWorker.HandleSyncMessage(ctx, msg)
			}
			if err := amqpClient.ConsumeConsultaSync(ctx, handler); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", log.FieldError, err)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic sync only")
	}

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := reportWorker.ProcessPendingConsultas(ctx); err != nil {
					logger.Error("Periodic sync failed", log.FieldError, err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Worker shutdown complete")
}
