package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy сентинел для errors.Is, когда в полете уже есть операция.
	ErrBusy = errors.New("another operation is in flight")
)

// ValidationError локальная проверка предусловий. До сети такие запросы не доходят.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// Required короткий конструктор для обязательных полей.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// ConcurrencyError возвращается, если пользователь пытается запустить
// вторую операцию, пока первая еще в состоянии Loading.
type ConcurrencyError struct {
	Running   Operation
	Requested Operation
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("cannot start %s: %s is still loading", e.Requested, e.Running)
}

func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrBusy
}
