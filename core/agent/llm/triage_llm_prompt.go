package llm

import (
	"fmt"

	"triage_server/core/domain"
)

// Token budgets per template.
const (
	MaxTokensWithReply = 400
	MaxTokensDetailed  = 150
	MaxTokensSimple    = 20
)

// Fixed sampling parameters sent with every classification call.
const (
	TopP = 0.8
	TopK = 40
)

const basePrompt = `
Você é um assistente especializado que classifica emails em duas categorias:

- Produtivo: Emails que requerem uma ação ou resposta específica (ex.: solicitações de suporte técnico, atualização sobre casos em aberto, dúvidas sobre o sistema, agendamentos, confirmações necessárias).
- Não produtivo: Emails que são apenas informativos, publicitários, newsletters ou não exigem ação imediata.

IMPORTANTE: Analise cuidadosamente o contexto e a intenção do email. Emails que parecem informativos mas requerem confirmação ou ação são PRODUTIVOS.
`

const withReplyTemplate = `
Classifique o email abaixo e forneça:
1. Classificação: "Produtivo" ou "Não produtivo"
2. Justificativa: Explique em 1-2 frases o motivo da classificação
3. Confiança: Indique sua confiança de 1-10
4. Recomendação de Resposta: Forneça uma sugestão de resposta apropriada (máximo 200 palavras)

Formato da resposta:
Classificação: [Produtivo/Não produtivo]
Justificativa: [Sua explicação]
Confiança: [1-10]
Recomendação: [Sugestão de resposta ou "Não requer resposta" se for não produtivo]
`

const detailedTemplate = `
Classifique o email abaixo e forneça:
1. Classificação: "Produtivo" ou "Não produtivo"
2. Justificativa: Explique em 1-2 frases o motivo da classificação
3. Confiança: Indique sua confiança de 1-10

Formato da resposta:
Classificação: [Produtivo/Não produtivo]
Justificativa: [Sua explicação]
Confiança: [1-10]
`

const simpleTemplate = "Classifique o seguinte email e responda apenas com 'Produtivo' ou 'Não produtivo':"

// HealthPrompt is the tiny prompt used to probe the primary model.
const HealthPrompt = "Classifique: 'Email teste'. Responda apenas 'Produtivo' ou 'Não produtivo'."

// BuildPrompt picks the template for req and derives the token budget and temperature.
// IncludeResponse wins over Detailed.
func BuildPrompt(req domain.ClassificationRequest) domain.GenerationRequest {
	template, maxTokens := simpleTemplate, MaxTokensSimple
	switch {
	case req.IncludeResponse:
		template, maxTokens = withReplyTemplate, MaxTokensWithReply
	case req.Detailed:
		template, maxTokens = detailedTemplate, MaxTokensDetailed
	}

	return domain.GenerationRequest{
		Prompt:      fmt.Sprintf("%s\n%s\n\nEmail:\n\"\"\"%s\"\"\"", basePrompt, template, req.Text),
		MaxTokens:   maxTokens,
		Temperature: req.ClampedConfidence() * 0.3,
	}
}

// HealthRequest is the generation request used by the model health probe.
func HealthRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:      HealthPrompt,
		MaxTokens:   10,
		Temperature: 0,
	}
}
