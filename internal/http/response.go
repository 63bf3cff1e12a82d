package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"faturamento/internal/core"
	"faturamento/internal/portal"
)

// ConsultaResponse é o resumo devolvido por POST /consultar. Valores
// monetários saem em reais; internamente tudo é centavos.
type ConsultaResponse struct {
	CNPJ                  string             `json:"cnpj"`
	RazaoSocial           string             `json:"razao_social"`
	Ano                   int                `json:"ano"`
	MesFiltrado           *int               `json:"mes_filtrado"`
	QuantidadeAutorizadas int                `json:"quantidade_autorizadas"`
	TotalAutorizado       float64            `json:"total_autorizado"`
	TotalCancelado        float64            `json:"total_cancelado"`
	DetalhamentoPorMes    map[string]float64 `json:"detalhamento_por_mes"`
}

func novaConsultaResponse(perfil portal.Contribuinte, f core.Filtro, resumo core.Resumo) ConsultaResponse {
	resp := ConsultaResponse{
		CNPJ:                  perfil.CNPJ,
		RazaoSocial:           perfil.RazaoSocial,
		Ano:                   f.Ano,
		QuantidadeAutorizadas: resumo.QuantidadeAutorizadas,
		TotalAutorizado:       resumo.TotalAutorizado.Reais(),
		TotalCancelado:        resumo.TotalCancelado.Reais(),
		DetalhamentoPorMes:    make(map[string]float64, len(resumo.PorMes)),
	}
	if !f.AnoInteiro() {
		mes := f.Mes
		resp.MesFiltrado = &mes
	}
	for chave, v := range resumo.PorMes {
		resp.DetalhamentoPorMes[chave] = v.Reais()
	}
	return resp
}

type apiError struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, apiError{Detail: detail})
}

// statusParaErro mapeia as classes de erro da consulta para HTTP.
func statusParaErro(err error) (int, string) {
	var ve *validationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.msg
	}
	if errors.Is(err, portal.ErrCredencial) {
		return http.StatusBadRequest, err.Error()
	}
	if errors.Is(err, portal.ErrAutenticacao) {
		return http.StatusUnauthorized, err.Error()
	}
	var fe *portal.FetchError
	if errors.As(err, &fe) {
		return http.StatusInternalServerError, fe.Error()
	}
	return http.StatusInternalServerError, "Erro inesperado: " + err.Error()
}
