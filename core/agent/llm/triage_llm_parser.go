package llm

import (
	"regexp"
	"strconv"
	"strings"

	"triage_server/core/domain"
)

const (
	defaultJustification  = "Não foi possível extrair a justificativa."
	defaultConfidence     = 50
	missingReply          = "Não foi possível gerar recomendação de resposta."
	fallbackJustification = "Classificação baseada em análise automática."
	fallbackConfidence    = 90
	fallbackReply         = "Erro ao processar recomendação."

	simpleJustification = "Classificação baseada em análise automática do conteúdo."
	simpleConfidence    = 95
)

var (
	categoryRe      = regexp.MustCompile(`(?im)(?:Classificação|Classification):\s*(.+)`)
	justificationRe = regexp.MustCompile(`(?im)(?:Justificativa|Justification):\s*(.+)`)
	nextSectionRe   = regexp.MustCompile(`(?i)(?:Confiança:|Recomendação:|Confidence:|Recommendation:)`)
	confidenceRe    = regexp.MustCompile(`(?im)(?:Confiança|Confidence):\s*(\d+)`)
	replyStartRe    = regexp.MustCompile(`(?i)(?:Recomendação|Recommendation):\s*`)
)

// ParseResponse extracts a structured verdict from the model's free text.
// It never fails: unmatched fields keep their defaults and an internal fault
// degrades to the first line of raw.
func ParseResponse(raw string, includeResponse bool) (result domain.ParsedClassification) {
	defer func() {
		if r := recover(); r != nil {
			result = faultVerdict(raw, includeResponse)
		}
	}()

	result = domain.ParsedClassification{
		Category:      domain.CategoryUnclassified,
		Justification: defaultJustification,
		Confidence:    defaultConfidence,
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "não produtivo") || strings.Contains(lower, "not productive"):
		result.Category = domain.CategoryNotProductive
	case strings.Contains(lower, "produtivo") || strings.Contains(lower, "productive"):
		result.Category = domain.CategoryProductive
	}

	if m := categoryRe.FindStringSubmatch(raw); m != nil {
		result.Category = strings.TrimSpace(m[1])
	}

	if m := justificationRe.FindStringSubmatch(raw); m != nil {
		j := m[1]
		if loc := nextSectionRe.FindStringIndex(j); loc != nil {
			j = j[:loc[0]]
		}
		result.Justification = strings.TrimSpace(j)
	}

	if m := confidenceRe.FindStringSubmatch(raw); m != nil {
		result.Confidence = scaleConfidence(m[1])
	}

	if includeResponse {
		reply := missingReply
		if loc := replyStartRe.FindStringIndex(raw); loc != nil {
			block := raw[loc[1]:]
			if end := strings.Index(block, "\n\n"); end >= 0 {
				block = block[:end]
			}
			if b := strings.TrimSpace(block); b != "" {
				reply = b
			}
		}
		result.SuggestedReply = &reply
	}

	return result
}

// SimpleVerdict wraps a category-only answer without parsing it.
func SimpleVerdict(raw string) domain.ParsedClassification {
	return domain.ParsedClassification{
		Category:      strings.TrimSpace(raw),
		Justification: simpleJustification,
		Confidence:    simpleConfidence,
	}
}

// scaleConfidence maps the model's 1-10 score onto 0-100.
func scaleConfidence(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// only overflow reaches here since digits matched \d+
		return 100
	}
	if n > 10 {
		return 100
	}
	return n * 10
}

func faultVerdict(raw string, includeResponse bool) domain.ParsedClassification {
	first := strings.TrimSpace(raw)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = strings.TrimSpace(first[:i])
	}

	v := domain.ParsedClassification{
		Category:      first,
		Justification: fallbackJustification,
		Confidence:    fallbackConfidence,
	}
	if includeResponse {
		reply := fallbackReply
		v.SuggestedReply = &reply
	}
	return v
}
