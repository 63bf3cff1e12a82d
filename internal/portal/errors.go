package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrCredencial indica bundle de certificado corrompido, base64
	// inválido ou senha de exportação incorreta. Detectado antes de
	// qualquer tráfego de rede.
	ErrCredencial = errors.New("erro ao carregar certificado")

	// ErrAutenticacao indica que o portal rejeitou as credenciais ou que
	// a sessão resultante não tem o marcador de autenticada.
	ErrAutenticacao = errors.New("falha na autenticação")
)

// FetchError sinaliza falha de transporte ou status não-2xx durante a
// paginação, apontando a página que falhou. A consulta inteira falha: não
// há resultado parcial nesse caminho.
type FetchError struct {
	Pagina int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("erro ao consultar página %d: %v", e.Pagina, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
