// Package core contém o domínio da consulta de faturamento: notas,
// competências, dinheiro em centavos e a totalização mensal.
package core

import "strings"

// ParseValorBR converte um valor monetário no formato do portal para
// centavos. O formato é estrito: separador de milhar "." em grupos de três
// dígitos e exatamente duas casas decimais após a vírgula.
//
// Exemplos:
//
//	ParseValorBR("1.234,56") -> 123456, nil
//	ParseValorBR("0,00")     -> 0, nil
//	ParseValorBR("10,5")     -> 0, ErrValorInvalido
//
// Linhas com valor fora do formato são descartadas pelo scraper; o parse
// nunca arredonda nem adivinha separadores.
func ParseValorBR(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrValorInvalido
	}
	partes := strings.Split(s, ",")
	if len(partes) != 2 {
		return 0, ErrValorInvalido
	}
	inteiro, frac := partes[0], partes[1]
	if len(frac) != 2 || !soDigitos(frac) {
		return 0, ErrValorInvalido
	}
	if inteiro == "" {
		return 0, ErrValorInvalido
	}

	// Com pontos, os grupos de milhar precisam ser exatos: o primeiro com
	// 1 a 3 dígitos, os demais com exatamente 3.
	grupos := strings.Split(inteiro, ".")
	for i, g := range grupos {
		if !soDigitos(g) {
			return 0, ErrValorInvalido
		}
		if i == 0 {
			if len(g) == 0 || (len(grupos) > 1 && len(g) > 3) {
				return 0, ErrValorInvalido
			}
			continue
		}
		if len(g) != 3 {
			return 0, ErrValorInvalido
		}
	}

	digitos := strings.Join(grupos, "")
	// Proteção contra overflow ao acumular em centavos.
	const maxDigitos = 16
	if len(digitos) > maxDigitos {
		return 0, ErrValorInvalido
	}

	var reais int64
	for _, r := range digitos {
		reais = reais*10 + int64(r-'0')
	}
	centavos := reais*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	return centavos, nil
}

func soDigitos(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
