package portal

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoginCertificado autentica a sessão com um bundle PKCS#12 em base64.
//
// Certificado e chave são exportados em PEM para um diretório temporário
// atrelado à sessão (removido em Close) e apresentados como certificado de
// cliente na chamada de credenciamento do portal.
func (c *Client) LoginCertificado(ctx context.Context, certBase64, senha string) error {
	bundle, err := base64.StdEncoding.DecodeString(normalizaBase64(certBase64))
	if err != nil {
		return fmt.Errorf("%w: base64 inválido: %v", ErrCredencial, err)
	}
	blocks, err := pkcs12.ToPEM(bundle, senha)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredencial, err)
	}

	var certPEM, keyPEM []byte
	for _, b := range blocks {
		switch {
		case b.Type == "CERTIFICATE" && certPEM == nil:
			// o primeiro bloco do bundle é o certificado da folha
			certPEM = pem.EncodeToMemory(b)
		case strings.Contains(b.Type, "PRIVATE KEY") && keyPEM == nil:
			keyPEM = pem.EncodeToMemory(b)
		}
	}
	if certPEM == nil || keyPEM == nil {
		return fmt.Errorf("%w: bundle sem certificado ou chave privada", ErrCredencial)
	}

	dir, err := os.MkdirTemp("", "nfse-cert-")
	if err != nil {
		return fmt.Errorf("criar diretório temporário: %w", err)
	}
	c.tempDir = dir
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		return fmt.Errorf("gravar certificado: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("gravar chave: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredencial, err)
	}
	c.http.SetCertificates(cert)

	if _, err := c.http.R().SetContext(ctx).Get(certificadoPath); err != nil {
		return fmt.Errorf("%w: %v", ErrAutenticacao, err)
	}
	if !c.autenticado() {
		return ErrAutenticacao
	}
	return nil
}

// Exportadores costumam quebrar o base64 em linhas; remove todo espaço.
func normalizaBase64(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}
