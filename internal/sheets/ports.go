package sheets

import (
	"context"

	"faturamento/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter exporta o resumo de uma consulta para a planilha de
	// acompanhamento.
	ReportWriter interface {
		AppendConsulta(ctx context.Context, reg core.ConsultaRegistro) (rowRef string, err error)
	}
)
