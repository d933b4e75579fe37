package extraction

import (
	"errors"
	"testing"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/apperr"
	"triage_server/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDFReader struct {
	calls int
	res   out.PDFText
	err   error
}

func (f *fakePDFReader) ExtractText([]byte) (out.PDFText, error) {
	f.calls++
	return f.res, f.err
}

func TestExtractor_PlainText(t *testing.T) {
	pdf := &fakePDFReader{}
	e := NewExtractor(pdf)

	doc, err := e.Extract([]byte("Olá, poderiam confirmar a reunião?"))
	require.NoError(t, err)

	assert.Equal(t, domain.FileKindTXT, doc.FileKind)
	assert.Equal(t, "Olá, poderiam confirmar a reunião?", doc.Text)
	assert.Nil(t, doc.PageCount)
	assert.Zero(t, pdf.calls, "non-PDF bytes must not reach the PDF reader")
}

func TestExtractor_InvalidUTF8(t *testing.T) {
	pdf := &fakePDFReader{}
	e := NewExtractor(pdf)

	_, err := e.Extract([]byte{0xff, 0xfe, 0xfd, 'a'})
	require.Error(t, err)

	appErr := apperr.AsAppError(err)
	assert.Equal(t, apperr.CodeEncodingError, appErr.Code)
	assert.Equal(t, "Não foi possível decodificar o texto", appErr.Message)
	assert.ErrorIs(t, err, domain.ErrInvalidEncoding)
	assert.Zero(t, pdf.calls)
}

func TestExtractor_PDF(t *testing.T) {
	tests := []struct {
		name     string
		reader   *fakePDFReader
		wantCode string
		wantText string
		wantMsg  string
	}{
		{
			name:     "text extracted",
			reader:   &fakePDFReader{res: out.PDFText{Text: "Página um.Página dois.", PageCount: 2}},
			wantText: "Página um.Página dois.",
		},
		{
			name:     "blank text",
			reader:   &fakePDFReader{res: out.PDFText{Text: " \n ", PageCount: 3}},
			wantCode: apperr.CodeEmptyExtraction,
			wantMsg:  "PDF não contém texto extraível ou está protegido",
		},
		{
			name:     "cannot open",
			reader:   &fakePDFReader{err: errors.New("malformed xref")},
			wantCode: apperr.CodeExtractError,
			wantMsg:  "Erro ao processar PDF: malformed xref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.reader)
			doc, err := e.Extract([]byte("%PDF-1.4 ..."))
			assert.Equal(t, 1, tt.reader.calls)

			if tt.wantCode != "" {
				require.Error(t, err)
				appErr := apperr.AsAppError(err)
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Equal(t, tt.wantMsg, appErr.Message)
				assert.Equal(t, 400, appErr.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.FileKindPDF, doc.FileKind)
			assert.Equal(t, tt.wantText, doc.Text)
			require.NotNil(t, doc.PageCount)
			assert.Equal(t, tt.reader.res.PageCount, *doc.PageCount)
		})
	}
}

func TestExtractor_RealPDF(t *testing.T) {
	e := NewExtractor(NewPDFTextReader(logger.Nop()))

	doc, err := e.Extract(buildPDF("Favor confirmar o agendamento"))
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Favor confirmar o agendamento")
	assert.Equal(t, 1, *doc.PageCount)

	_, err = e.Extract(buildPDF(""))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEmptyExtraction, apperr.AsAppError(err).Code)
}
