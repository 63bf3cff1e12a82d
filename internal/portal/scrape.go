package portal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"faturamento/internal/core"
)

var competenciaRe = regexp.MustCompile(`(\d{2})/(\d{4})`)

// parsePagina varre as linhas de uma página da listagem de notas emitidas.
//
// Retorna as notas autorizadas retidas e um indicador de continuação:
// false quando, em OrdemDecrescente, uma linha sai do escopo do filtro
// (ano diferente, ou mês anterior ao filtrado), porque pela ordenação tudo
// depois dela também está fora. Linha malformada é descartada sem abortar
// a página.
func parsePagina(doc *goquery.Document, f core.Filtro, ordem Ordem) ([]core.Nota, bool) {
	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, false
	}

	var notas []core.Nota
	continuar := true
	tbody.Find("tr").EachWithBreak(func(_ int, linha *goquery.Selection) bool {
		comp := strings.TrimSpace(linha.Find("td.td-competencia").First().Text())
		m := competenciaRe.FindStringSubmatch(comp)
		if m == nil {
			return true
		}
		mes, _ := strconv.Atoi(m[1])
		ano, _ := strconv.Atoi(m[2])

		if ano != f.Ano {
			if ordem == OrdemDecrescente {
				continuar = false
				return false
			}
			return true
		}
		if f.Mes != 0 {
			if mes < f.Mes && ordem == OrdemDecrescente {
				continuar = false
				return false
			}
			if mes != f.Mes {
				return true
			}
		}

		if !strings.Contains(linha.AttrOr("data-situacao", ""), core.SituacaoGerada) {
			return true
		}

		centavos, err := core.ParseValorBR(linha.Find("td.td-valor").First().Text())
		if err != nil {
			return true
		}
		notas = append(notas, core.Nota{
			Competencia: core.Competencia{Mes: mes, Ano: ano},
			Valor:       core.Money{Centavos: centavos},
		})
		return true
	})
	return notas, continuar
}

// temProximaPagina verifica o controle de paginação da listagem.
func temProximaPagina(doc *goquery.Document) bool {
	return doc.Find(`div.paginacao a[title="Próxima"]`).Length() > 0
}
