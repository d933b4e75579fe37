package extraction

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"triage_server/core/port/out"
	"triage_server/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// PDFTextReader reads PDF text with github.com/ledongthuc/pdf.
// A page that fails to extract is logged and skipped.
type PDFTextReader struct {
	log *logger.Logger
}

func NewPDFTextReader(log *logger.Logger) *PDFTextReader {
	if log == nil {
		log = logger.Default()
	}
	return &PDFTextReader{log: log.WithField("component", "pdf")}
}

var _ out.PDFReader = (*PDFTextReader)(nil)

func (r *PDFTextReader) ExtractText(data []byte) (result out.PDFText, err error) {
	// the library panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			result = out.PDFText{}
			err = fmt.Errorf("falha ao abrir documento: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return out.PDFText{}, err
	}

	pages := doc.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		text, perr := r.pageText(doc, i)
		if perr != nil {
			r.log.WithError(perr).WithField("page", i).Warn("failed to extract page %d", i)
			continue
		}
		if r.log.Enabled(logger.LevelDebug) {
			r.log.WithField("page", i).Debug("page %d: %d chars extracted", i, utf8.RuneCountInString(text))
		}
		sb.WriteString(text)
	}

	return out.PDFText{Text: sb.String(), PageCount: pages}, nil
}

func (r *PDFTextReader) pageText(doc *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic reading page: %v", rec)
		}
	}()

	p := doc.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
