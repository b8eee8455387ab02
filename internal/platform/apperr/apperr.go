package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind clasifica errores de dominio para que la capa HTTP los traduzca sin
// conocer cada sentinel.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindInvalidOperation Kind = "invalid_operation"
	KindUnauthorized     Kind = "unauthorized"
	KindValidation       Kind = "validation"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ReplaceAll(string(e.Kind), "_", " ")
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is permite errors.Is(err, apperr.ErrNotFound) contra cualquier NotFound.
// Un sentinel con mensaje solo matchea consigo mismo.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" {
		return t == e
	}
	return t.Kind == e.Kind
}

// Sentinels por kind (sin mensaje).
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrValidation       = &Error{Kind: KindValidation}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(msg string) *Error         { return New(KindNotFound, msg) }
func InvalidOperation(msg string) *Error { return New(KindInvalidOperation, msg) }
func Validation(msg string) *Error       { return New(KindValidation, msg) }

// Validationf envuelve un error de parsing/validación conservando la causa.
func Validationf(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// KindOf devuelve el kind del primer *Error en la cadena, o "" si no hay.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// HTTPStatus mapea el kind al status code que exponen los handlers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage es el texto seguro para devolver al cliente.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return "internal error"
}
