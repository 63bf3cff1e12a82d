// Package storage persiste o histórico de consultas em SQLite. O registro
// guarda só o resumo agregado; credenciais nunca chegam aqui.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"faturamento/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveConsulta grava o resumo de uma consulta concluída e devolve o
// registro com ID e versão preenchidos.
func (r *SQLiteRepository) SaveConsulta(ctx context.Context, reg core.ConsultaRegistro) (core.ConsultaRegistro, error) {
	detalhamento, err := marshalDetalhamento(reg.PorMes)
	if err != nil {
		return core.ConsultaRegistro{}, fmt.Errorf("marshal detalhamento: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO consultas (
			cnpj, razao_social, ano, mes_filtrado,
			quantidade_autorizadas, total_autorizado_centavos, detalhamento_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reg.CNPJ, reg.RazaoSocial, reg.Ano, reg.MesFiltrado,
		reg.QuantidadeAutorizadas, reg.TotalAutorizado.Centavos, detalhamento,
	)
	if err != nil {
		return core.ConsultaRegistro{}, fmt.Errorf("insert consulta: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.ConsultaRegistro{}, fmt.Errorf("last insert id: %w", err)
	}
	reg.ID = id
	reg.Versao = 1

	slog.InfoContext(ctx, "Consulta saved to SQLite",
		"id", reg.ID,
		"cnpj", reg.CNPJ,
		"periodo", reg.Periodo(),
		"quantidade", reg.QuantidadeAutorizadas,
		"total_centavos", reg.TotalAutorizado.Centavos)

	return reg, nil
}

// GetConsulta retrieves a single consulta by ID
func (r *SQLiteRepository) GetConsulta(ctx context.Context, id int64) (core.ConsultaRegistro, error) {
	var (
		reg          core.ConsultaRegistro
		detalhamento string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, version, cnpj, razao_social, ano, mes_filtrado,
		       quantidade_autorizadas, total_autorizado_centavos, detalhamento_json
		FROM consultas WHERE id = ?`, id,
	).Scan(
		&reg.ID, &reg.Versao, &reg.CNPJ, &reg.RazaoSocial, &reg.Ano, &reg.MesFiltrado,
		&reg.QuantidadeAutorizadas, &reg.TotalAutorizado.Centavos, &detalhamento,
	)
	if err != nil {
		return core.ConsultaRegistro{}, fmt.Errorf("get consulta by id: %w", err)
	}

	reg.PorMes, err = unmarshalDetalhamento(detalhamento)
	if err != nil {
		return core.ConsultaRegistro{}, fmt.Errorf("unmarshal detalhamento: %w", err)
	}
	return reg, nil
}

// PendingSyncConsulta represents minimal data needed for sync queue messages
type PendingSyncConsulta struct {
	ID        int64
	Versao    int64
	CreatedAt time.Time
}

// GetPendingSyncConsultas returns consultas that still need to be exported
func (r *SQLiteRepository) GetPendingSyncConsultas(ctx context.Context, limit int) ([]PendingSyncConsulta, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM consultas
		WHERE sync_status = 'pending'
		ORDER BY id
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get pending sync consultas: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncConsulta
	for rows.Next() {
		var (
			p         PendingSyncConsulta
			createdAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Versao, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending consulta: %w", err)
		}
		p.CreatedAt = createdAt.Time
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced marks a consulta as successfully exported
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE consultas SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark consulta synced: %w", err)
	}
	slog.InfoContext(ctx, "Consulta marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a consulta as having export errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE consultas SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark consulta sync error: %w", err)
	}
	slog.WarnContext(ctx, "Consulta marked with sync error", "id", id)
	return nil
}

// o detalhamento persiste centavos por competência; reais só na borda HTTP
func marshalDetalhamento(porMes map[string]core.Money) (string, error) {
	centavos := make(map[string]int64, len(porMes))
	for chave, v := range porMes {
		centavos[chave] = v.Centavos
	}
	data, err := json.Marshal(centavos)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalDetalhamento(data string) (map[string]core.Money, error) {
	var centavos map[string]int64
	if err := json.Unmarshal([]byte(data), &centavos); err != nil {
		return nil, err
	}
	porMes := make(map[string]core.Money, len(centavos))
	for chave, v := range centavos {
		porMes[chave] = core.Money{Centavos: v}
	}
	return porMes, nil
}
