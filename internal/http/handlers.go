package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"faturamento/internal/core"
	"faturamento/internal/portal"
)

// corpo máximo aceito: um PKCS#12 em base64 cabe folgado em 1 MiB
const maxCorpoConsulta = 1 << 20

func (s *Server) handleConsultar(w http.ResponseWriter, r *http.Request) {
	var req ConsultaRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCorpoConsulta))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if err := req.Validate(); err != nil {
		status, detail := statusParaErro(err)
		writeError(w, status, detail)
		return
	}

	chave := req.fingerprint()
	if resp, ok := s.respostaCache.Get(chave); ok {
		slog.DebugContext(r.Context(), "Consulta cache hit", "ano", req.Ano, "mes", req.Mes)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// consultas idênticas em voo compartilham uma única sessão com o portal
	v, err, compartilhado := s.emVoo.Do(chave, func() (any, error) {
		resp, err := s.consultar(r.Context(), req)
		if err != nil {
			return nil, err
		}
		s.respostaCache.Set(chave, resp)
		return resp, nil
	})
	if err != nil {
		status, detail := statusParaErro(err)
		slog.ErrorContext(r.Context(), "Consulta failed",
			"status", status, "ano", req.Ano, "mes", req.Mes, "error", err)
		writeError(w, status, detail)
		return
	}
	if compartilhado {
		slog.DebugContext(r.Context(), "Consulta deduplicated", "ano", req.Ano, "mes", req.Mes)
	}
	writeJSON(w, http.StatusOK, v.(ConsultaResponse))
}

// consultar executa a consulta completa: sessão nova, autenticação,
// paginação, agregação e registro no histórico.
func (s *Server) consultar(ctx context.Context, req ConsultaRequest) (ConsultaResponse, error) {
	cli, err := portal.NewClient(s.portalOpts)
	if err != nil {
		return ConsultaResponse{}, err
	}
	// remove o material temporário de credencial mesmo em erro
	defer cli.Close()

	switch req.AuthMethod {
	case AuthCertificado:
		err = cli.LoginCertificado(ctx, req.CertBase64, req.CertSenha)
	case AuthSenha:
		err = cli.LoginSenha(ctx, req.CNPJ, req.Senha)
	}
	if err != nil {
		return ConsultaResponse{}, err
	}

	f := req.Filtro()
	notas, err := cli.ConsultarNotas(ctx, f)
	if err != nil {
		return ConsultaResponse{}, err
	}

	perfil := cli.Perfil(ctx)
	resumo := core.Totalizar(notas, f)
	resp := novaConsultaResponse(perfil, f, resumo)

	s.registrarHistorico(ctx, perfil, f, resumo)
	return resp, nil
}

// registrarHistorico grava a consulta e anuncia para exportação.
// Best-effort: erro aqui só gera log, a resposta já está pronta.
func (s *Server) registrarHistorico(ctx context.Context, perfil portal.Contribuinte, f core.Filtro, resumo core.Resumo) {
	if s.history == nil {
		return
	}
	reg, err := s.history.SaveConsulta(ctx, core.ConsultaRegistro{
		CNPJ:                  perfil.CNPJ,
		RazaoSocial:           perfil.RazaoSocial,
		Ano:                   f.Ano,
		MesFiltrado:           f.Mes,
		QuantidadeAutorizadas: resumo.QuantidadeAutorizadas,
		TotalAutorizado:       resumo.TotalAutorizado,
		PorMes:                resumo.PorMes,
	})
	if err != nil {
		slog.ErrorContext(ctx, "History save failed", "cnpj", perfil.CNPJ, "ano", f.Ano, "error", err)
		return
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyConsulta(ctx, reg.ID, reg.Versao); err != nil {
		slog.ErrorContext(ctx, "Sync notify failed", "consulta_id", reg.ID, "error", err)
	}
}
