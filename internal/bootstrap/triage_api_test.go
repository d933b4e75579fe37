package bootstrap

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"triage_server/adapter/out/provider"
	"triage_server/config"
	"triage_server/core/domain"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini serves generateContent for two models. The primary answers with
// primaryStatus; the secondary always returns text.
type fakeGemini struct {
	srv           *httptest.Server
	primaryStatus int
	primaryHits   atomic.Int32
	secondaryHits atomic.Int32
}

const geminiAnswer = "Classificação: Produtivo\nJustificativa: solicita suporte técnico\nConfiança: 9\nRecomendação: Olá! Já estamos verificando."

func newFakeGemini(t *testing.T, primaryStatus int) *fakeGemini {
	f := &fakeGemini{primaryStatus: primaryStatus}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := `{"candidates":[{"content":{"parts":[{"text":` + quote(geminiAnswer) + `}]}}]}`
		switch {
		case strings.Contains(r.URL.Path, "primary"):
			f.primaryHits.Add(1)
			if f.primaryStatus != http.StatusOK {
				w.WriteHeader(f.primaryStatus)
				return
			}
		default:
			f.secondaryHits.Add(1)
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestAPI(t *testing.T, gemini *fakeGemini) *fiber.App {
	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Models = []domain.ModelEndpoint{
		{Name: "primary", URL: gemini.srv.URL + "/models/primary:generateContent", MaxTokens: 50},
		{Name: "secondary", URL: gemini.srv.URL + "/models/secondary:generateContent", MaxTokens: 100},
	}

	router := provider.NewRouter(provider.RouterConfig{GeminiAPIKey: cfg.GeminiAPIKey}, gemini.srv.Client())
	return NewApp(cfg, NewDependenciesWith(cfg, router))
}

func post(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	return resp.StatusCode, decoded
}

func TestAPI_ClassifyEndToEnd(t *testing.T) {
	gemini := newFakeGemini(t, http.StatusOK)
	app := newTestAPI(t, gemini)

	email := base64.StdEncoding.EncodeToString([]byte("Olá equipe,\n\nO sistema de notas fiscais\tparou de funcionar hoje."))
	status, body := post(t, app, `{"body":"`+email+`","isBase64Encoded":true,"options":{"include_response":true,"confidence":0.2}}`)

	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "sucesso", body["status"])
	assert.Equal(t, "Produtivo", body["classificacao"])
	assert.Equal(t, "solicita suporte técnico", body["justificativa"])
	assert.EqualValues(t, 90, body["confianca"])
	assert.Equal(t, "Olá! Já estamos verificando.", body["recomendacao_resposta"])
	assert.Equal(t, "Olá equipe, O sistema de notas fiscais parou de funcionar hoje.", body["texto"])

	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "primary", meta["modelo_info"])
	assert.Equal(t, "TXT", meta["tipo_arquivo"])
	assert.EqualValues(t, 1, gemini.primaryHits.Load())
	assert.Zero(t, gemini.secondaryHits.Load())
}

func TestAPI_FallsBackOnHTTPError(t *testing.T) {
	gemini := newFakeGemini(t, http.StatusBadRequest)
	app := newTestAPI(t, gemini)

	status, body := post(t, app, `{"body":"Por favor confirmem o agendamento da reunião de amanhã."}`)

	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "secondary", body["metadata"].(map[string]any)["modelo_info"])
	assert.EqualValues(t, 1, gemini.primaryHits.Load())
	assert.EqualValues(t, 1, gemini.secondaryHits.Load())
}

func TestAPI_ShortTextNeverReachesModel(t *testing.T) {
	gemini := newFakeGemini(t, http.StatusOK)
	app := newTestAPI(t, gemini)

	status, body := post(t, app, `{"body":"oi"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Texto muito curto para classificação", body["erro"])
	assert.Zero(t, gemini.primaryHits.Load()+gemini.secondaryHits.Load())
}

func TestAPI_InvalidBase64NeverReachesModel(t *testing.T) {
	gemini := newFakeGemini(t, http.StatusOK)
	app := newTestAPI(t, gemini)

	status, body := post(t, app, `{"body":"***","isBase64Encoded":true}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["erro"], "Erro ao decodificar base64")
	assert.Zero(t, gemini.primaryHits.Load()+gemini.secondaryHits.Load())
}

func TestAPI_HealthModel(t *testing.T) {
	gemini := newFakeGemini(t, http.StatusOK)
	app := newTestAPI(t, gemini)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/model", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 200, body["response_code"])
	assert.EqualValues(t, 1, gemini.primaryHits.Load())
}
