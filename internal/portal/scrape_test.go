package portal

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"faturamento/internal/core"
)

type linhaFixture struct {
	competencia string
	situacao    string
	valor       string
}

func paginaHTML(t *testing.T, linhas []linhaFixture, proxima bool) *goquery.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<html><body><table><tbody>`)
	for _, l := range linhas {
		fmt.Fprintf(&b,
			`<tr data-situacao="%s"><td class="td-competencia">%s</td><td class="td-valor">%s</td></tr>`,
			l.situacao, l.competencia, l.valor)
	}
	b.WriteString(`</tbody></table>`)
	if proxima {
		b.WriteString(`<div class="paginacao"><a title="Próxima" href="?pg=2">&gt;</a></div>`)
	}
	b.WriteString(`</body></html>`)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParsePaginaRetemSomenteGeradasDoAno(t *testing.T) {
	doc := paginaHTML(t, []linhaFixture{
		{"05/2025", "NFS-e GERADA", "1.000,00"},
		{"04/2025", "NFS-e CANCELADA", "500,00"},
		{"03/2025", "GERADA", "250,50"},
	}, false)

	notas, continuar := parsePagina(doc, core.Filtro{Ano: 2025}, OrdemDecrescente)
	if !continuar {
		t.Fatal("expected continuation, every row is in scope")
	}
	if len(notas) != 2 {
		t.Fatalf("expected 2 notas, got %d: %+v", len(notas), notas)
	}
	if notas[0].Valor.Centavos != 100000 || notas[1].Valor.Centavos != 25050 {
		t.Fatalf("unexpected values: %+v", notas)
	}
	if notas[1].Competencia.Chave() != "03/2025" {
		t.Fatalf("unexpected competencia: %+v", notas[1])
	}
}

func TestParsePaginaParaNoAnoAnterior(t *testing.T) {
	doc := paginaHTML(t, []linhaFixture{
		{"01/2025", "GERADA", "100,00"},
		{"12/2024", "GERADA", "999,99"},
		{"11/2024", "GERADA", "999,99"},
	}, true)

	notas, continuar := parsePagina(doc, core.Filtro{Ano: 2025}, OrdemDecrescente)
	if continuar {
		t.Fatal("expected early stop at the first out-of-year row")
	}
	if len(notas) != 1 || notas[0].Competencia.Chave() != "01/2025" {
		t.Fatalf("expected only 01/2025, got %+v", notas)
	}
}

func TestParsePaginaParaNoMesAnteriorAoFiltrado(t *testing.T) {
	doc := paginaHTML(t, []linhaFixture{
		{"07/2025", "GERADA", "10,00"},
		{"06/2025", "GERADA", "20,00"},
		{"05/2025", "GERADA", "30,00"},
	}, true)

	notas, continuar := parsePagina(doc, core.Filtro{Ano: 2025, Mes: 6}, OrdemDecrescente)
	if continuar {
		t.Fatal("expected early stop below the filtered month")
	}
	if len(notas) != 1 || notas[0].Valor.Centavos != 2000 {
		t.Fatalf("expected only 06/2025, got %+v", notas)
	}
}

func TestParsePaginaOrdemDesconhecidaVarreTudo(t *testing.T) {
	doc := paginaHTML(t, []linhaFixture{
		{"12/2024", "GERADA", "10,00"},
		{"05/2025", "GERADA", "20,00"},
		{"01/2025", "GERADA", "30,00"},
	}, false)

	notas, continuar := parsePagina(doc, core.Filtro{Ano: 2025}, OrdemDesconhecida)
	if !continuar {
		t.Fatal("unknown ordering must never stop early")
	}
	if len(notas) != 2 {
		t.Fatalf("expected the two 2025 rows, got %+v", notas)
	}
}

func TestParsePaginaDescartaLinhaMalformada(t *testing.T) {
	doc := paginaHTML(t, []linhaFixture{
		{"sem data", "GERADA", "10,00"},
		{"04/2025", "GERADA", "10,5"}, // valor fora do formato do portal
		{"03/2025", "GERADA", "10,00"},
	}, false)

	notas, continuar := parsePagina(doc, core.Filtro{Ano: 2025}, OrdemDecrescente)
	if !continuar {
		t.Fatal("malformed rows must not stop the scan")
	}
	if len(notas) != 1 || notas[0].Competencia.Chave() != "03/2025" {
		t.Fatalf("expected only the well-formed row, got %+v", notas)
	}
}

func TestParsePaginaSemTabela(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>vazio</p></body></html>`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	notas, continuar := parsePagina(doc, core.Filtro{Ano: 2025}, OrdemDecrescente)
	if len(notas) != 0 || continuar {
		t.Fatalf("page without tbody must stop pagination, got %d notas continuar=%v", len(notas), continuar)
	}
}

func TestTemProximaPagina(t *testing.T) {
	com := paginaHTML(t, nil, true)
	sem := paginaHTML(t, nil, false)
	if !temProximaPagina(com) {
		t.Fatal("expected next-page link to be detected")
	}
	if temProximaPagina(sem) {
		t.Fatal("did not expect a next-page link")
	}
}
