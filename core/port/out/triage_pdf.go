package out

// PDFText is what a PDF reader returns.
type PDFText struct {
	Text      string
	PageCount int
}

// PDFReader extracts the concatenated text of a PDF document.
type PDFReader interface {
	ExtractText(data []byte) (PDFText, error)
}
