package portal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"faturamento/internal/core"
)

// ConsultarNotas pagina a listagem de notas emitidas a partir da página 1,
// estritamente em sequência (as condições de parada dependem da ordem das
// páginas), até o scraper sinalizar parada ou o link "Próxima" sumir.
func (c *Client) ConsultarNotas(ctx context.Context, f core.Filtro) ([]core.Nota, error) {
	var todas []core.Nota
	for pagina := 1; ; pagina++ {
		req := c.http.R().SetContext(ctx)
		if pagina > 1 {
			req.SetQueryParam("pg", strconv.Itoa(pagina))
		}
		res, err := req.Get(emitidasPath)
		if err != nil {
			return nil, &FetchError{Pagina: pagina, Err: err}
		}
		if !res.IsSuccess() {
			return nil, &FetchError{Pagina: pagina, Err: fmt.Errorf("status %d", res.StatusCode())}
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if err != nil {
			return nil, &FetchError{Pagina: pagina, Err: err}
		}

		notas, continuar := parsePagina(doc, f, c.ordem)
		todas = append(todas, notas...)
		slog.DebugContext(ctx, "página processada",
			"pagina", pagina, "notas", len(notas), "continuar", continuar)

		if !continuar || !temProximaPagina(doc) {
			return todas, nil
		}
	}
}
