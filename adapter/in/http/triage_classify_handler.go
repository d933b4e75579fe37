package http

import (
	"bytes"
	"errors"
	"math"
	"time"
	"unicode/utf8"

	"triage_server/core/domain"
	"triage_server/core/port/in"
	"triage_server/infra/middleware"
	"triage_server/pkg/apperr"
	"triage_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// DefaultPreviewChars caps the "texto" field of a successful response.
const DefaultPreviewChars = 2000

type ClassifyOptions struct {
	Confidence      float64 `json:"confidence"`
	Detailed        bool    `json:"detailed"`
	IncludeResponse bool    `json:"include_response"`
}

// ClassifyRequest is the inbound JSON envelope.
type ClassifyRequest struct {
	Body            string          `json:"body"`
	IsBase64Encoded bool            `json:"isBase64Encoded"`
	Options         ClassifyOptions `json:"options"`
}

type DebugInfo struct {
	Tentativas int    `json:"tentativas"`
	RequestID  string `json:"request_id"`
}

// ClassifyResponse is the success body.
type ClassifyResponse struct {
	Status               string    `json:"status"`
	Classificacao        string    `json:"classificacao"`
	Justificativa        string    `json:"justificativa"`
	Confianca            int       `json:"confianca"`
	RecomendacaoResposta *string   `json:"recomendacao_resposta"`
	Texto                string    `json:"texto"`
	Metadata             fiber.Map `json:"metadata"`
	Debug                DebugInfo `json:"debug"`
}

// ClassifyFailure is the body sent when every model failed.
type ClassifyFailure struct {
	Status   string    `json:"status"`
	Erro     string    `json:"erro"`
	Detalhes string    `json:"detalhes"`
	Metadata fiber.Map `json:"metadata"`
}

type ClassifyHandler struct {
	service      in.ClassifyService
	credentials  func() error
	previewChars int
}

// NewClassifyHandler creates the handler. credentials is checked on every
// request so a missing provider key surfaces as a 500 instead of a boot failure.
func NewClassifyHandler(service in.ClassifyService, credentials func() error, previewChars int) *ClassifyHandler {
	if credentials == nil {
		credentials = func() error { return nil }
	}
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return &ClassifyHandler{
		service:      service,
		credentials:  credentials,
		previewChars: previewChars,
	}
}

func (h *ClassifyHandler) Register(router fiber.Router) {
	router.Post("/", h.Classify)
	router.Post("/classify", h.Classify)
}

func (h *ClassifyHandler) Classify(c *fiber.Ctx) error {
	if err := h.credentials(); err != nil {
		return err
	}

	raw := c.Body()
	if len(bytes.TrimSpace(raw)) == 0 {
		return apperr.BadRequest("Nenhum body recebido")
	}

	var req ClassifyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return apperr.InvalidJSON(err)
	}

	input := in.ClassifyInput{
		Body:            req.Body,
		IsBase64Encoded: req.IsBase64Encoded,
		Confidence:      req.Options.Confidence,
		Detailed:        req.Options.Detailed,
		IncludeResponse: req.Options.IncludeResponse,
	}

	out, err := h.service.Classify(c.UserContext(), input)
	if err != nil {
		var appErr *apperr.AppError
		if out != nil && errors.As(err, &appErr) && appErr.Code == apperr.CodeClassificationFailed {
			logger.WithContext(c.UserContext()).WithError(err).Error("classification failed")
			return c.Status(fiber.StatusInternalServerError).JSON(NewClassifyFailure(out, appErr, req.Options))
		}
		return err
	}

	return c.JSON(NewClassifyResponse(out, req.Options, middleware.GetRequestID(c), h.previewChars))
}

// NewClassifyResponse renders a successful pipeline run.
func NewClassifyResponse(out *in.ClassifyOutput, opts ClassifyOptions, requestID string, previewChars int) ClassifyResponse {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return ClassifyResponse{
		Status:               "sucesso",
		Classificacao:        out.Verdict.Category,
		Justificativa:        out.Verdict.Justification,
		Confianca:            out.Verdict.Confidence,
		RecomendacaoResposta: out.Verdict.SuggestedReply,
		Texto:                Preview(out.Normalized.ProcessedText, previewChars),
		Metadata:             successMetadata(out, opts),
		Debug: DebugInfo{
			Tentativas: out.Result.AttemptCount,
			RequestID:  requestID,
		},
	}
}

// NewClassifyFailure renders a run whose remote classification failed.
func NewClassifyFailure(out *in.ClassifyOutput, appErr *apperr.AppError, opts ClassifyOptions) ClassifyFailure {
	detail, _ := appErr.Details["detalhes"].(string)
	return ClassifyFailure{
		Status:   "erro",
		Erro:     appErr.Message,
		Detalhes: detail,
		Metadata: failureMetadata(out, opts),
	}
}

// Preview returns text unchanged when shorter than limit, otherwise its first
// limit characters followed by "...".
func Preview(text string, limit int) string {
	if utf8.RuneCountInString(text) < limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}

func documentMetadata(doc domain.ExtractedDocument) fiber.Map {
	m := fiber.Map{"tipo_arquivo": string(doc.FileKind)}
	if doc.FileKind == domain.FileKindPDF && doc.PageCount != nil {
		m["paginas"] = *doc.PageCount
		m["tamanho_extraido"] = utf8.RuneCountInString(doc.Text)
	} else {
		m["tamanho_original"] = utf8.RuneCountInString(doc.Text)
	}
	return m
}

func runMetadata(m fiber.Map, elapsed time.Duration, opts ClassifyOptions) fiber.Map {
	m["processing_time_ms"] = math.Round(float64(elapsed.Microseconds())/10) / 100
	m["timestamp"] = middleware.Timestamp(time.Now())
	m["configuracoes"] = fiber.Map{
		"confidence":       opts.Confidence,
		"detailed":         opts.Detailed,
		"include_response": opts.IncludeResponse,
	}
	return m
}

func failureMetadata(out *in.ClassifyOutput, opts ClassifyOptions) fiber.Map {
	return runMetadata(documentMetadata(out.Document), out.Elapsed, opts)
}

func successMetadata(out *in.ClassifyOutput, opts ClassifyOptions) fiber.Map {
	m := documentMetadata(out.Document)
	m["texto_original"] = out.Normalized.OriginalText
	m["texto_processado"] = out.Normalized.ProcessedText
	m["tamanho_original"] = out.Normalized.OriginalLength
	m["tamanho_processado"] = out.Normalized.ProcessedLength
	m["foi_truncado"] = out.Normalized.WasTruncated
	m["modelo_info"] = out.Result.ModelUsed
	return runMetadata(m, out.Elapsed, opts)
}
