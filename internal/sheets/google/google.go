// Package google exporta consultas para uma planilha do Google Sheets
// usando credenciais de service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"faturamento/internal/core"
	ports "faturamento/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

type Options struct {
	SpreadsheetID string
	SheetName     string
	// Um dos dois: JSON inline ou caminho do arquivo de credenciais.
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	credentials := []byte(opts.CredentialsJSON)
	if len(credentials) == 0 {
		if opts.CredentialsFile == "" {
			return nil, errors.New("missing service account credentials")
		}
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = data
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
	}, nil
}

// AppendConsulta grava uma linha de resumo na planilha e devolve a
// referência da faixa atualizada.
func (c *Client) AppendConsulta(ctx context.Context, reg core.ConsultaRegistro) (string, error) {
	row := []interface{}{
		time.Now().Format(time.RFC3339),
		reg.CNPJ,
		reg.RazaoSocial,
		reg.Periodo(),
		reg.QuantidadeAutorizadas,
		reg.TotalAutorizado.Reais(),
		formatDetalhamento(reg.PorMes),
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	res, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:G", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append consulta row: %w", err)
	}
	if res.Updates == nil {
		return "", nil
	}
	return res.Updates.UpdatedRange, nil
}

// formatDetalhamento compacta o detalhamento mensal numa célula só, em
// ordem de competência ("01/2025=0.00; 02/2025=150.00; ...").
func formatDetalhamento(porMes map[string]core.Money) string {
	chaves := make([]string, 0, len(porMes))
	for chave := range porMes {
		chaves = append(chaves, chave)
	}
	// "MM/AAAA": ano antes do mês para ordenar cronologicamente
	sort.Slice(chaves, func(i, j int) bool {
		a, b := chaves[i], chaves[j]
		if a[3:] != b[3:] {
			return a[3:] < b[3:]
		}
		return a[:2] < b[:2]
	})

	partes := make([]string, 0, len(chaves))
	for _, chave := range chaves {
		partes = append(partes, fmt.Sprintf("%s=%.2f", chave, porMes[chave].Reais()))
	}
	return strings.Join(partes, "; ")
}
