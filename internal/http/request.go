package http

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"faturamento/internal/core"
)

// Métodos de autenticação aceitos em auth_method.
const (
	AuthCertificado = 1
	AuthSenha       = 2
)

// ConsultaRequest é o corpo JSON de POST /consultar. Credenciais chegam no
// corpo e nunca são logadas nem persistidas.
type ConsultaRequest struct {
	AuthMethod int `json:"auth_method"`
	Ano        int `json:"ano"`
	Mes        int `json:"mes,omitempty"`

	// auth_method = 1
	CertBase64 string `json:"cert_base64,omitempty"`
	CertSenha  string `json:"cert_senha,omitempty"`

	// auth_method = 2
	CNPJ  string `json:"cnpj,omitempty"`
	Senha string `json:"senha,omitempty"`
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func campoObrigatorio(nome string) error {
	return &validationError{msg: "Campo obrigatório: " + nome}
}

// Validate verifica o período e a presença das credenciais do método
// escolhido antes de qualquer tráfego com o portal.
func (r ConsultaRequest) Validate() error {
	switch r.AuthMethod {
	case AuthCertificado:
		if r.CertBase64 == "" {
			return campoObrigatorio("cert_base64")
		}
		if r.CertSenha == "" {
			return campoObrigatorio("cert_senha")
		}
	case AuthSenha:
		if r.CNPJ == "" {
			return campoObrigatorio("cnpj")
		}
		if r.Senha == "" {
			return campoObrigatorio("senha")
		}
	default:
		return &validationError{msg: "auth_method deve ser 1 (certificado) ou 2 (login/senha)"}
	}

	if r.Ano == 0 {
		return campoObrigatorio("ano")
	}
	if err := r.Filtro().Validate(); err != nil {
		return &validationError{msg: err.Error()}
	}
	return nil
}

func (r ConsultaRequest) Filtro() core.Filtro {
	return core.Filtro{Ano: r.Ano, Mes: r.Mes}
}

// fingerprint identifica credencial+período para o cache de respostas e o
// dedupe de consultas em voo. Só o digest circula; o material sensível não
// entra em chave de mapa em claro.
func (r ConsultaRequest) fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|", r.AuthMethod, r.Ano, r.Mes)
	switch r.AuthMethod {
	case AuthCertificado:
		fmt.Fprintf(h, "%s|%s", r.CertBase64, r.CertSenha)
	case AuthSenha:
		fmt.Fprintf(h, "%s|%s", r.CNPJ, r.Senha)
	}
	return hex.EncodeToString(h.Sum(nil))
}
