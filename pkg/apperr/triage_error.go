package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Client input errors
	CodeBadRequest    = "BAD_REQUEST"
	CodeInvalidJSON   = "INVALID_JSON"
	CodeEmptyContent  = "EMPTY_CONTENT"
	CodeDecodeError   = "DECODE_ERROR"
	CodeEncodingError = "ENCODING_ERROR"
	CodeTextTooShort  = "TEXT_TOO_SHORT"

	// Extraction errors
	CodeExtractError    = "EXTRACT_ERROR"
	CodeEmptyExtraction = "EMPTY_EXTRACTION"

	// Remote classification errors
	CodeClassificationFailed = "CLASSIFICATION_FAILED"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError represents a structured application error.
// Message is shown to the caller verbatim; Err stays server-side.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Client input errors
func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func InvalidJSON(err error) *AppError {
	return &AppError{
		Code:    CodeInvalidJSON,
		Message: "JSON inválido no body",
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func EmptyContent() *AppError {
	return &AppError{
		Code:    CodeEmptyContent,
		Message: "Conteúdo vazio",
		Status:  http.StatusBadRequest,
	}
}

func DecodeError(err error) *AppError {
	return &AppError{
		Code:    CodeDecodeError,
		Message: fmt.Sprintf("Erro ao decodificar base64: %v", err),
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func EncodingError(err error) *AppError {
	return &AppError{
		Code:    CodeEncodingError,
		Message: "Não foi possível decodificar o texto",
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func TextTooShort(minimum, received int) *AppError {
	return &AppError{
		Code:    CodeTextTooShort,
		Message: "Texto muito curto para classificação",
		Status:  http.StatusBadRequest,
		Details: map[string]any{
			"minimo_caracteres":    minimum,
			"caracteres_recebidos": received,
		},
	}
}

// Extraction errors
func ExtractError(err error) *AppError {
	return &AppError{
		Code:    CodeExtractError,
		Message: fmt.Sprintf("Erro ao processar PDF: %v", err),
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func EmptyExtraction() *AppError {
	return &AppError{
		Code:    CodeEmptyExtraction,
		Message: "PDF não contém texto extraível ou está protegido",
		Status:  http.StatusBadRequest,
	}
}

// Remote classification errors
func ClassificationFailed(message, details string, err error) *AppError {
	return &AppError{
		Code:    CodeClassificationFailed,
		Message: message,
		Status:  http.StatusInternalServerError,
		Details: map[string]any{"detalhes": details},
		Err:     err,
	}
}

// Internal errors
func InternalWithError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "Erro interno do servidor",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func ConfigError(message string) *AppError {
	return &AppError{
		Code:    CodeConfigError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// MissingCredential reports a provider key that was never configured.
func MissingCredential(envKey string) *AppError {
	return ConfigError(fmt.Sprintf("%s não configurada", envKey))
}

// AsAppError returns err as an AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}
