// Package extraction turns an inbound payload into clean text ready for classification.
package extraction

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"

	"triage_server/pkg/apperr"
)

var pdfMagic = []byte("%PDF")

// IsPDF reports whether b starts with the PDF magic bytes.
func IsPDF(b []byte) bool {
	return bytes.HasPrefix(b, pdfMagic)
}

// DecodePayload returns the raw bytes carried by body.
// When isBase64 is set the body may carry a data URL prefix and line breaks,
// and must otherwise be padded standard-alphabet base64.
func DecodePayload(body string, isBase64 bool) ([]byte, error) {
	if !isBase64 {
		return []byte(body), nil
	}

	b, err := decodeBase64(body)
	if err != nil {
		return nil, apperr.DecodeError(err)
	}
	return b, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, errors.New("empty base64 payload")
	}

	return base64.StdEncoding.DecodeString(s)
}
