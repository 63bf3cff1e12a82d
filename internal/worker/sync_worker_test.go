package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"faturamento/internal/amqp"
	"faturamento/internal/core"
	"faturamento/internal/sheets/memory"
	"faturamento/internal/storage"
)

func repoDeTeste(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "faturamento.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func salvaConsulta(t *testing.T, repo *storage.SQLiteRepository) core.ConsultaRegistro {
	t.Helper()
	reg, err := repo.SaveConsulta(context.Background(), core.ConsultaRegistro{
		CNPJ:                  "12.345.678/0001-90",
		RazaoSocial:           "ACME SERVICOS LTDA",
		Ano:                   2025,
		QuantidadeAutorizadas: 2,
		TotalAutorizado:       core.Money{Centavos: 150050},
		PorMes:                map[string]core.Money{"03/2025": {Centavos: 150050}},
	})
	if err != nil {
		t.Fatalf("save consulta: %v", err)
	}
	return reg
}

func TestHandleSyncMessage(t *testing.T) {
	repo := repoDeTeste(t)
	store := memory.New()
	w := NewReportWorker(repo, store, 10)
	ctx := context.Background()

	reg := salvaConsulta(t, repo)

	msg := amqp.NewConsultaSyncMessage(reg.ID, reg.Versao)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	exported := store.Registros()
	if len(exported) != 1 || exported[0].CNPJ != reg.CNPJ {
		t.Fatalf("expected exported record, got %+v", exported)
	}

	pending, err := repo.GetPendingSyncConsultas(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("consulta should be marked synced, still pending: %+v", pending)
	}
}

func TestHandleSyncMessageConsultaInexistente(t *testing.T) {
	repo := repoDeTeste(t)
	w := NewReportWorker(repo, memory.New(), 10)

	msg := amqp.NewConsultaSyncMessage(999, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for missing consulta")
	}
}

type writerComFalha struct{}

func (writerComFalha) AppendConsulta(context.Context, core.ConsultaRegistro) (string, error) {
	return "", errors.New("sheet unavailable")
}

func TestExportFailureMarksError(t *testing.T) {
	repo := repoDeTeste(t)
	w := NewReportWorker(repo, writerComFalha{}, 10)
	ctx := context.Background()

	salvaConsulta(t, repo)

	if err := w.ProcessPendingConsultas(ctx); err != nil {
		t.Fatalf("process pending should swallow per-item errors: %v", err)
	}

	pending, err := repo.GetPendingSyncConsultas(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed consulta should be marked as error, still pending: %+v", pending)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo := repoDeTeste(t)
	store := memory.New()
	w := NewReportWorker(repo, store, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		salvaConsulta(t, repo)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup sync: %v", err)
	}

	// batchSize*5 cobre as três de uma vez
	if got := len(store.Registros()); got != 3 {
		t.Fatalf("expected 3 exported records, got %d", got)
	}
}
