package engine

import (
	"errors"
	"strings"

	"github.com/xela07ax/mdm-merge-console/internal/connectors"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// ErrorKind сводит ошибку к метке для метрик и логов.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	if errors.Is(err, domain.ErrBusy) {
		return "concurrency"
	}
	var tErr *connectors.TransportError
	if errors.As(err, &tErr) {
		return strings.ToLower(string(tErr.Kind))
	}
	return "internal"
}
