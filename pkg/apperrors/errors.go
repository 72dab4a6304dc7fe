package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInputMissing       = errors.New("required input missing")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrEmptyResponse      = errors.New("empty response from language model")
	ErrInvalidWorkbook    = errors.New("invalid expectations workbook")
)
