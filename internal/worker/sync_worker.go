// Package worker exporta consultas gravadas no histórico para a planilha
// de acompanhamento. As mensagens AMQP são o gatilho normal; a varredura
// periódica de pendentes cobre mensagens perdidas.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"faturamento/internal/amqp"
	"faturamento/internal/sheets"
	"faturamento/internal/storage"
)

// ReportWorker handles exporting consultas from SQLite to the report sheet
type ReportWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.ReportWriter
	batchSize int
}

func NewReportWorker(storage *storage.SQLiteRepository, writer sheets.ReportWriter, batchSize int) *ReportWorker {
	return &ReportWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single consulta sync message from AMQP
func (w *ReportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ConsultaSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"versao", msg.Versao)

	if err := w.exportConsulta(ctx, msg.ID); err != nil {
		return fmt.Errorf("export consulta %d: %w", msg.ID, err)
	}
	return nil
}

// ProcessPendingConsultas exports any consultas that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ReportWorker) ProcessPendingConsultas(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncConsultas(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending consultas: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending consultas", "count", len(pending))

	for _, p := range pending {
		if err := w.exportConsulta(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export consulta", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck verifies and exports any pending consultas at worker
// startup, recovering from missed messages or worker downtime.
func (w *ReportWorker) StartupSyncCheck(ctx context.Context) error {
	// lote maior na partida
	pending, err := w.storage.GetPendingSyncConsultas(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending consultas for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending consultas found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending consultas on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.exportConsulta(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export consulta during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *ReportWorker) exportConsulta(ctx context.Context, id int64) error {
	reg, err := w.storage.GetConsulta(ctx, id)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get consulta from storage: %w", err)
	}

	ref, err := w.writer.AppendConsulta(ctx, reg)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// a exportação aconteceu; só o marcador falhou
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported consulta",
		"id", id,
		"sheet_ref", ref,
		"cnpj", reg.CNPJ,
		"periodo", reg.Periodo())

	return nil
}
