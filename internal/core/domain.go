package core

import (
	"errors"
	"fmt"
	"strconv"
)

// SituacaoGerada é o marcador de situação que o portal usa para notas
// autorizadas. Linhas com qualquer outra situação (canceladas etc.) são
// descartadas durante o scraping e nunca chegam ao agregador.
const SituacaoGerada = "GERADA"

type (
	Money struct {
		Centavos int64
	}

	// Competencia identifica o período (mês/ano) de uma nota.
	Competencia struct {
		Mes int // 1-12
		Ano int
	}

	// Nota é uma nota fiscal autorizada extraída da listagem do portal.
	Nota struct {
		Competencia Competencia
		Valor       Money
	}

	// Filtro delimita uma consulta: ano obrigatório, mês opcional
	// (0 = ano inteiro).
	Filtro struct {
		Ano int
		Mes int
	}
)

var (
	ErrAnoInvalido   = errors.New("ano deve estar entre 2000 e 2100")
	ErrMesInvalido   = errors.New("mês deve estar entre 1 e 12")
	ErrValorInvalido = errors.New("valor monetário inválido")
)

// Reais retorna o valor em reais para exibição. Cálculos usam centavos.
func (m Money) Reais() float64 {
	return float64(m.Centavos) / 100.0
}

// Chave devolve o rótulo "MM/AAAA" usado no detalhamento mensal.
func (c Competencia) Chave() string {
	return fmt.Sprintf("%02d/%d", c.Mes, c.Ano)
}

func (f Filtro) Validate() error {
	if f.Ano < 2000 || f.Ano > 2100 {
		return ErrAnoInvalido
	}
	if f.Mes != 0 && (f.Mes < 1 || f.Mes > 12) {
		return ErrMesInvalido
	}
	return nil
}

// AnoInteiro reporta se a consulta cobre os doze meses do ano.
func (f Filtro) AnoInteiro() bool {
	return f.Mes == 0
}

// ConsultaRegistro é o registro persistido de uma consulta concluída,
// consumido pelo histórico em SQLite e pela exportação assíncrona.
type ConsultaRegistro struct {
	ID                    int64
	Versao                int64
	CNPJ                  string
	RazaoSocial           string
	Ano                   int
	MesFiltrado           int // 0 = ano inteiro
	QuantidadeAutorizadas int
	TotalAutorizado       Money
	PorMes                map[string]Money
}

// Periodo formata o período consultado ("2025" ou "03/2025").
func (c ConsultaRegistro) Periodo() string {
	if c.MesFiltrado == 0 {
		return strconv.Itoa(c.Ano)
	}
	return Competencia{Mes: c.MesFiltrado, Ano: c.Ano}.Chave()
}
