package portal

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Contribuinte é o fragmento de perfil exibido no topo da listagem.
type Contribuinte struct {
	CNPJ        string
	RazaoSocial string
}

const perfilIndisponivel = "N/A"

// Perfil extrai razão social e CNPJ do dropdown de perfil da listagem.
// Best-effort: qualquer falha devolve placeholders em vez de abortar a
// consulta.
func (c *Client) Perfil(ctx context.Context) Contribuinte {
	indisponivel := Contribuinte{CNPJ: perfilIndisponivel, RazaoSocial: perfilIndisponivel}

	res, err := c.http.R().SetContext(ctx).Get(emitidasPath)
	if err != nil || !res.IsSuccess() {
		return indisponivel
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return indisponivel
	}

	header := doc.Find("li.dropdown.perfil li.dropdown-header").First()
	if header.Length() == 0 {
		return indisponivel
	}

	perfil := indisponivel
	for _, linha := range strings.Split(header.Text(), "\n") {
		if nome := strings.TrimSpace(linha); nome != "" {
			perfil.RazaoSocial = nome
			break
		}
	}
	if cnpj := strings.TrimSpace(header.Find("span.cnpj").First().Text()); cnpj != "" {
		perfil.CNPJ = cnpj
	}
	return perfil
}
