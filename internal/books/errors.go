package books

import (
	"errors"
	"strings"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorNotFound       = errors.New("book not found")
	ErrorCreationFailed = errors.New("book creation failed")
	ErrorImageRequired  = errors.New("cover image is required")
	ErrorInvalidInput   = errors.New("invalid input")
)

// FieldError describe un campo del formulario que no pasó la validación.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError agrupa los campos inválidos de un request.
// errors.Is(err, ErrorInvalidInput) es true para cualquier ValidationError.
type ValidationError struct {
	Fields []FieldError
}

func (validationError *ValidationError) Error() string {
	return "invalid input: " + validationError.describe()
}

func (validationError *ValidationError) Unwrap() error {
	return ErrorInvalidInput
}

// Message es el texto que ve el cliente.
func (validationError *ValidationError) Message() string {
	if len(validationError.Fields) == 0 {
		return "Invalid input"
	}
	return "Invalid input: " + validationError.describe()
}

func (validationError *ValidationError) describe() string {
	parts := make([]string, 0, len(validationError.Fields))
	for _, field := range validationError.Fields {
		parts = append(parts, field.Field+" "+field.Message)
	}
	return strings.Join(parts, "; ")
}

func (validationError *ValidationError) add(field, message string) {
	validationError.Fields = append(validationError.Fields, FieldError{Field: field, Message: message})
}

// errOrNil evita devolver un *ValidationError nil dentro de una interfaz no nil.
func (validationError *ValidationError) errOrNil() error {
	if len(validationError.Fields) == 0 {
		return nil
	}
	return validationError
}
