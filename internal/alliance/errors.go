package alliance

import (
	"errors"
	"fmt"
)

// Errores del subsistema de alianzas. PermissionDenied se reporta al
// actor, no es una falla del sistema. NotFederated es un estado benigno
// (el grupo opera solo), se informa, no se loguea como error.
var (
	ErrPermissionDenied = errors.New("alliance: permiso denegado")
	ErrNotFederated     = errors.New("alliance: el grupo no pertenece a ninguna alianza")
)

// ValidationError es una precondición de lifecycle incumplida: menos de
// dos grupos, grupo ya federado, el ancla intentando salir, etc.
// Distinguible de PermissionDenied por tipo y por mensaje.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("alliance: validación fallida: %s", e.Reason)
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reporta si err es un error de validación.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
