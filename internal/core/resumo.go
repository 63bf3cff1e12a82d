package core

// Resumo agrega as notas autorizadas de uma consulta.
type Resumo struct {
	QuantidadeAutorizadas int
	TotalAutorizado       Money
	// TotalCancelado é sempre zero: notas canceladas são descartadas no
	// scraping e nunca materializadas.
	TotalCancelado Money
	PorMes         map[string]Money
}

// Totalizar reduz as notas a totais por mês. Todos os meses do escopo são
// semeados com zero antes da soma, então meses sem notas aparecem com 0,00.
// A função é pura: totalizar a mesma lista duas vezes produz o mesmo resumo.
func Totalizar(notas []Nota, f Filtro) Resumo {
	porMes := make(map[string]Money)
	if f.AnoInteiro() {
		for m := 1; m <= 12; m++ {
			porMes[Competencia{Mes: m, Ano: f.Ano}.Chave()] = Money{}
		}
	} else {
		porMes[Competencia{Mes: f.Mes, Ano: f.Ano}.Chave()] = Money{}
	}

	r := Resumo{PorMes: porMes}
	for _, n := range notas {
		chave := n.Competencia.Chave()
		if atual, ok := porMes[chave]; ok {
			porMes[chave] = Money{Centavos: atual.Centavos + n.Valor.Centavos}
		}
		r.QuantidadeAutorizadas++
		r.TotalAutorizado.Centavos += n.Valor.Centavos
	}
	return r
}
