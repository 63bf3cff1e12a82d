package portal

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var naoDigitos = regexp.MustCompile(`\D`)

// LoginSenha autentica com inscrição (CNPJ, só dígitos) e senha. O
// formulário de login embute um token anti-forgery por sessão que precisa
// voltar no POST.
func (c *Client) LoginSenha(ctx context.Context, cnpj, senha string) error {
	res, err := c.http.R().SetContext(ctx).Get(emissorPath)
	if err != nil {
		return fmt.Errorf("%w: carregar página de login: %v", ErrAutenticacao, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("%w: página de login ilegível: %v", ErrAutenticacao, err)
	}
	token := doc.Find("input[name=__RequestVerificationToken]").AttrOr("value", "")

	_, err = c.http.R().
		SetContext(ctx).
		SetQueryParam("ReturnUrl", emissorPath).
		SetFormData(map[string]string{
			"__RequestVerificationToken": token,
			"Inscricao":                  naoDigitos.ReplaceAllString(cnpj, ""),
			"Senha":                      senha,
		}).
		Post(loginPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAutenticacao, err)
	}
	if !c.autenticado() {
		return ErrAutenticacao
	}
	return nil
}
