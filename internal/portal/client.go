// Package portal implementa o acesso autenticado ao Emissor Nacional de
// NFS-e: autenticação por certificado digital ou login/senha, scraping da
// listagem paginada de notas emitidas e extração do perfil do contribuinte.
//
// O scraper assume a estrutura atual das páginas do portal; mudança de
// markup quebra a extração e não há fallback além do descarte por linha.
package portal

import (
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL   = "https://www.nfse.gov.br"
	DefaultUserAgent = "Mozilla/5.0"
	DefaultTimeout   = 30 * time.Second

	emissorPath     = "/EmissorNacional"
	loginPath       = "/EmissorNacional/Login"
	certificadoPath = "/EmissorNacional/Certificado"
	emitidasPath    = "/EmissorNacional/Notas/Emitidas"

	// Cookie que o portal emite para sessões autenticadas.
	cookieSessao = "Emissor"
)

// Ordem declara a ordenação da listagem que o scraper pode assumir.
//
// O portal lista por competência decrescente mas nunca declara isso. Se a
// premissa quebrar, OrdemDesconhecida varre todas as páginas e filtra linha
// a linha em vez de parar cedo.
type Ordem int

const (
	OrdemDecrescente Ordem = iota
	OrdemDesconhecida
)

// Options configura um Client. Nada aqui é estado de processo: cada
// consulta constrói o próprio cliente e a própria sessão.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Ordem     Ordem
}

// Client é uma sessão com o portal. Sessões autenticadas por certificado
// carregam material de chave em arquivos temporários; Close remove tudo.
type Client struct {
	baseURL *url.URL
	http    *resty.Client
	ordem   Ordem

	// diretório com cert.pem/key.pem de sessões por certificado
	tempDir string
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))

	return &Client{baseURL: baseURL, http: client, ordem: opts.Ordem}, nil
}

// Close libera o material temporário de credencial da sessão. Falha na
// remoção é registrada e ignorada: a limpeza nunca mascara o erro primário.
func (c *Client) Close() {
	if c.tempDir == "" {
		return
	}
	if err := os.RemoveAll(c.tempDir); err != nil {
		slog.Warn("falha ao remover material temporário de certificado",
			"dir", c.tempDir, "error", err)
	}
	c.tempDir = ""
}

// autenticado verifica o marcador de sessão do portal no cookie jar.
func (c *Client) autenticado() bool {
	jar := c.http.GetClient().Jar
	if jar == nil {
		return false
	}
	for _, ck := range jar.Cookies(c.baseURL) {
		if ck.Name == cookieSessao {
			return true
		}
	}
	return false
}
