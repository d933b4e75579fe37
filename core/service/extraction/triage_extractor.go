package extraction

import (
	"strings"
	"unicode/utf8"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/apperr"
)

// Extractor reads the text out of decoded payload bytes.
type Extractor struct {
	pdf out.PDFReader
}

func NewExtractor(pdfReader out.PDFReader) *Extractor {
	return &Extractor{pdf: pdfReader}
}

// Extract routes PDF bytes to the PDF reader and everything else through UTF-8 decoding.
func (e *Extractor) Extract(data []byte) (*domain.ExtractedDocument, error) {
	if !IsPDF(data) {
		if !utf8.Valid(data) {
			return nil, apperr.EncodingError(domain.ErrInvalidEncoding)
		}
		return &domain.ExtractedDocument{
			Text:     string(data),
			FileKind: domain.FileKindTXT,
		}, nil
	}

	res, err := e.pdf.ExtractText(data)
	if err != nil {
		return nil, apperr.ExtractError(err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, apperr.EmptyExtraction().WithError(domain.ErrEmptyExtraction)
	}

	pages := res.PageCount
	return &domain.ExtractedDocument{
		Text:      res.Text,
		PageCount: &pages,
		FileKind:  domain.FileKindPDF,
	}, nil
}
