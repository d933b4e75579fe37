package llm

import (
	"strings"
	"testing"

	"triage_server/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name              string
		raw               string
		includeResponse   bool
		wantCategory      string
		wantJustification string
		wantConfidence    int
		wantReply         *string
	}{
		{
			name:              "structured answer",
			raw:               "Classificação: Produtivo\nJustificativa: urgente\nConfiança: 8",
			wantCategory:      "Produtivo",
			wantJustification: "urgente",
			wantConfidence:    80,
		},
		{
			name:              "coarse sniff only",
			raw:               "não produtivo",
			wantCategory:      domain.CategoryNotProductive,
			wantJustification: defaultJustification,
			wantConfidence:    50,
		},
		{
			name:              "productive sniff",
			raw:               "Este email é PRODUTIVO pois pede suporte.",
			wantCategory:      domain.CategoryProductive,
			wantJustification: defaultJustification,
			wantConfidence:    50,
		},
		{
			name:              "nothing recognizable",
			raw:               "Sem opinião.",
			wantCategory:      domain.CategoryUnclassified,
			wantJustification: defaultJustification,
			wantConfidence:    50,
		},
		{
			name:              "structured category overrides sniff",
			raw:               "À primeira vista parece não produtivo.\nClassificação: Produtivo",
			wantCategory:      "Produtivo",
			wantJustification: defaultJustification,
			wantConfidence:    50,
		},
		{
			name:              "justification cut at next marker on the same line",
			raw:               "Classificação: Não produtivo\nJustificativa: é uma newsletter Confiança: 9",
			wantCategory:      "Não produtivo",
			wantJustification: "é uma newsletter",
			wantConfidence:    90,
		},
		{
			name:              "confidence clamped to 100",
			raw:               "Classificação: Produtivo\nConfiança: 15",
			wantCategory:      "Produtivo",
			wantJustification: defaultJustification,
			wantConfidence:    100,
		},
		{
			name:              "confidence overflow",
			raw:               "Confiança: 99999999999999999999999",
			wantCategory:      domain.CategoryUnclassified,
			wantJustification: defaultJustification,
			wantConfidence:    100,
		},
		{
			name:              "english markers",
			raw:               "Classification: Not productive\nJustification: marketing blast\nConfidence: 7",
			wantCategory:      "Not productive",
			wantJustification: "marketing blast",
			wantConfidence:    70,
		},
		{
			name:              "case insensitive markers",
			raw:               "CLASSIFICAÇÃO: Produtivo\njustificativa: pedido de reunião\nconfiança: 6",
			wantCategory:      "Produtivo",
			wantJustification: "pedido de reunião",
			wantConfidence:    60,
		},
		{
			name:              "reply block up to blank line",
			raw:               "Classificação: Produtivo\nJustificativa: pede suporte\nConfiança: 9\nRecomendação: Olá,\nvamos verificar.\n\nObs: nada",
			includeResponse:   true,
			wantCategory:      "Produtivo",
			wantJustification: "pede suporte",
			wantConfidence:    90,
			wantReply:         ptr("Olá,\nvamos verificar."),
		},
		{
			name:              "reply block to end of text",
			raw:               "Classificação: Não produtivo\nRecomendação: Não requer resposta",
			includeResponse:   true,
			wantCategory:      "Não produtivo",
			wantJustification: defaultJustification,
			wantConfidence:    50,
			wantReply:         ptr("Não requer resposta"),
		},
		{
			name:              "reply requested but missing",
			raw:               "Classificação: Produtivo",
			includeResponse:   true,
			wantCategory:      "Produtivo",
			wantJustification: defaultJustification,
			wantConfidence:    50,
			wantReply:         ptr(missingReply),
		},
		{
			name:              "reply ignored when not requested",
			raw:               "Classificação: Produtivo\nRecomendação: responder hoje",
			wantCategory:      "Produtivo",
			wantJustification: defaultJustification,
			wantConfidence:    50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.raw, tt.includeResponse)

			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantJustification, got.Justification)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			if tt.wantReply == nil {
				assert.Nil(t, got.SuggestedReply)
				return
			}
			require.NotNil(t, got.SuggestedReply)
			assert.Equal(t, *tt.wantReply, *got.SuggestedReply)
		})
	}
}

func TestParseResponse_ConfidenceAlwaysInRange(t *testing.T) {
	for _, n := range []string{"0", "1", "10", "11", "100", strings.Repeat("9", 40)} {
		got := ParseResponse("Confiança: "+n, false)
		assert.GreaterOrEqual(t, got.Confidence, 0)
		assert.LessOrEqual(t, got.Confidence, 100)
	}
}

func TestFaultVerdict(t *testing.T) {
	got := faultVerdict("  Produtivo\nresto da resposta", true)

	assert.Equal(t, "Produtivo", got.Category)
	assert.Equal(t, fallbackJustification, got.Justification)
	assert.Equal(t, fallbackConfidence, got.Confidence)
	require.NotNil(t, got.SuggestedReply)
	assert.Equal(t, fallbackReply, *got.SuggestedReply)

	assert.Nil(t, faultVerdict("Produtivo", false).SuggestedReply)
}

func TestSimpleVerdict(t *testing.T) {
	got := SimpleVerdict("  Não produtivo\n")

	assert.Equal(t, "Não produtivo", got.Category)
	assert.Equal(t, 95, got.Confidence)
	assert.Equal(t, simpleJustification, got.Justification)
	assert.Nil(t, got.SuggestedReply)
}

func ptr(s string) *string { return &s }
