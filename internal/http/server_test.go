package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"faturamento/internal/core"
	"faturamento/internal/portal"
)

type fakeHistory struct {
	mu    sync.Mutex
	saved []core.ConsultaRegistro
}

func (h *fakeHistory) SaveConsulta(_ context.Context, reg core.ConsultaRegistro) (core.ConsultaRegistro, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	reg.ID = int64(len(h.saved) + 1)
	reg.Versao = 1
	h.saved = append(h.saved, reg)
	return reg, nil
}

type fakeNotifier struct {
	mu  sync.Mutex
	ids []int64
}

func (n *fakeNotifier) NotifyConsulta(_ context.Context, id, _ int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
	return nil
}

// portalFake emula o Emissor Nacional: login por senha e uma listagem de
// página única com o perfil do contribuinte.
func portalFake(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /EmissorNacional", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		fmt.Fprint(w, `<html><body><form><input name="__RequestVerificationToken" value="tok"/></form></body></html>`)
	})
	mux.HandleFunc("POST /EmissorNacional/Login", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if r.FormValue("Inscricao") == "12345678000190" && r.FormValue("Senha") == "segredo" {
			http.SetCookie(w, &http.Cookie{Name: "Emissor", Value: "sessao", Path: "/"})
		}
	})
	mux.HandleFunc("GET /EmissorNacional/Notas/Emitidas", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		fmt.Fprint(w, `<html><body>
<ul><li class="dropdown perfil"><ul><li class="dropdown-header">
ACME SERVICOS LTDA
<span class="cnpj">12.345.678/0001-90</span>
</li></ul></li></ul>
<table><tbody>
<tr data-situacao="GERADA"><td class="td-competencia">03/2025</td><td class="td-valor">1.000,00</td></tr>
<tr data-situacao="CANCELADA"><td class="td-competencia">03/2025</td><td class="td-valor">999,99</td></tr>
<tr data-situacao="GERADA"><td class="td-competencia">01/2025</td><td class="td-valor">500,50</td></tr>
</tbody></table>
</body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func servidorDeTeste(t *testing.T, portalURL string, hist HistoryStore, notif SyncNotifier) *Server {
	t.Helper()
	s := NewServer("127.0.0.1:0", portal.Options{BaseURL: portalURL}, hist, notif)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func postConsultar(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/consultar", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func TestEndpointsDeServico(t *testing.T) {
	s := servidorDeTeste(t, "http://127.0.0.1:1", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	var health map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", health)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", w.Code)
	}
	var index map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &index); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if _, ok := index["POST /consultar"]; !ok {
		t.Fatalf("index must list the consulta operation: %v", index)
	}
}

func TestConsultarFluxoCompleto(t *testing.T) {
	var hits int
	fake := portalFake(t, &hits)
	hist := &fakeHistory{}
	notif := &fakeNotifier{}
	s := servidorDeTeste(t, fake.URL, hist, notif)

	w := postConsultar(t, s, `{"auth_method":2,"ano":2025,"cnpj":"12.345.678/0001-90","senha":"segredo"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ConsultaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CNPJ != "12.345.678/0001-90" || resp.RazaoSocial != "ACME SERVICOS LTDA" {
		t.Fatalf("unexpected contribuinte: %+v", resp)
	}
	if resp.QuantidadeAutorizadas != 2 {
		t.Fatalf("expected 2 notas autorizadas, got %d", resp.QuantidadeAutorizadas)
	}
	if resp.TotalAutorizado != 1500.50 {
		t.Fatalf("expected total 1500.50, got %v", resp.TotalAutorizado)
	}
	if resp.TotalCancelado != 0 {
		t.Fatalf("cancelled total must be zero, got %v", resp.TotalCancelado)
	}
	if resp.MesFiltrado != nil {
		t.Fatalf("year query must return null mes_filtrado, got %v", *resp.MesFiltrado)
	}
	if len(resp.DetalhamentoPorMes) != 12 {
		t.Fatalf("expected 12 seeded months, got %d", len(resp.DetalhamentoPorMes))
	}
	if resp.DetalhamentoPorMes["03/2025"] != 1000.00 || resp.DetalhamentoPorMes["02/2025"] != 0 {
		t.Fatalf("unexpected breakdown: %v", resp.DetalhamentoPorMes)
	}

	if len(hist.saved) != 1 || hist.saved[0].QuantidadeAutorizadas != 2 {
		t.Fatalf("expected history record, got %+v", hist.saved)
	}
	if len(notif.ids) != 1 || notif.ids[0] != 1 {
		t.Fatalf("expected sync notification for id 1, got %v", notif.ids)
	}
}

func TestConsultarValidacaoAntesDaRede(t *testing.T) {
	var hits int
	fake := portalFake(t, &hits)
	s := servidorDeTeste(t, fake.URL, nil, nil)

	cases := []struct {
		name   string
		body   string
		detail string
	}{
		{"json inválido", `{auth`, "Corpo da requisição inválido"},
		{"auth_method desconhecido", `{"auth_method":3,"ano":2025}`, "auth_method"},
		{"sem cnpj", `{"auth_method":2,"ano":2025,"senha":"x"}`, "Campo obrigatório: cnpj"},
		{"sem senha", `{"auth_method":2,"ano":2025,"cnpj":"1"}`, "Campo obrigatório: senha"},
		{"sem cert", `{"auth_method":1,"ano":2025,"cert_senha":"x"}`, "Campo obrigatório: cert_base64"},
		{"sem senha do cert", `{"auth_method":1,"ano":2025,"cert_base64":"x"}`, "Campo obrigatório: cert_senha"},
		{"sem ano", `{"auth_method":2,"cnpj":"1","senha":"x"}`, "Campo obrigatório: ano"},
		{"ano fora da faixa", `{"auth_method":2,"ano":1999,"cnpj":"1","senha":"x"}`, "ano"},
		{"mes fora da faixa", `{"auth_method":2,"ano":2025,"mes":13,"cnpj":"1","senha":"x"}`, "mês"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postConsultar(t, s, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			var e apiError
			if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if !strings.Contains(e.Detail, tc.detail) {
				t.Fatalf("expected detail containing %q, got %q", tc.detail, e.Detail)
			}
		})
	}
	if hits != 0 {
		t.Fatalf("validation failures must not reach the portal, got %d hits", hits)
	}
}

func TestConsultarAutenticacaoRecusada(t *testing.T) {
	var hits int
	fake := portalFake(t, &hits)
	s := servidorDeTeste(t, fake.URL, nil, nil)

	w := postConsultar(t, s, `{"auth_method":2,"ano":2025,"cnpj":"12345678000190","senha":"errada"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConsultarCredencialInvalida(t *testing.T) {
	var hits int
	fake := portalFake(t, &hits)
	s := servidorDeTeste(t, fake.URL, nil, nil)

	w := postConsultar(t, s, `{"auth_method":1,"ano":2025,"cert_base64":"%%%","cert_senha":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if hits != 0 {
		t.Fatalf("credential errors must not reach the portal, got %d hits", hits)
	}
}

func TestConsultarFalhaDeBusca(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /EmissorNacional", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><input name="__RequestVerificationToken" value="tok"/></body></html>`)
	})
	mux.HandleFunc("POST /EmissorNacional/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "Emissor", Value: "sessao", Path: "/"})
	})
	mux.HandleFunc("GET /EmissorNacional/Notas/Emitidas", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "indisponível", http.StatusBadGateway)
	})
	fake := httptest.NewServer(mux)
	defer fake.Close()

	s := servidorDeTeste(t, fake.URL, nil, nil)
	w := postConsultar(t, s, `{"auth_method":2,"ano":2025,"cnpj":"1","senha":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	var e apiError
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if !strings.Contains(e.Detail, "página 1") {
		t.Fatalf("expected page index in detail, got %q", e.Detail)
	}
}

func TestConsultarRespostaCacheada(t *testing.T) {
	var hits int
	fake := portalFake(t, &hits)
	s := servidorDeTeste(t, fake.URL, nil, nil)

	body := `{"auth_method":2,"ano":2025,"mes":3,"cnpj":"12345678000190","senha":"segredo"}`
	if w := postConsultar(t, s, body); w.Code != http.StatusOK {
		t.Fatalf("first query failed: %d %s", w.Code, w.Body.String())
	}
	depoisDaPrimeira := hits

	w := postConsultar(t, s, body)
	if w.Code != http.StatusOK {
		t.Fatalf("cached query failed: %d %s", w.Code, w.Body.String())
	}
	if hits != depoisDaPrimeira {
		t.Fatalf("cached query must not hit the portal: %d -> %d", depoisDaPrimeira, hits)
	}

	var resp ConsultaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MesFiltrado == nil || *resp.MesFiltrado != 3 {
		t.Fatalf("expected mes_filtrado 3, got %+v", resp.MesFiltrado)
	}
	if len(resp.DetalhamentoPorMes) != 1 {
		t.Fatalf("filtered month must seed a single entry, got %v", resp.DetalhamentoPorMes)
	}
}
