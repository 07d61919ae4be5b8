package connectors

import (
	"errors"
	"fmt"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// TransportKind классифицирует исход одного HTTP-вызова.
type TransportKind string

const (
	KindNetwork TransportKind = "NETWORK" // ответа не было
	KindHTTP    TransportKind = "HTTP"    // ответ пришел, но статус не 2xx
	KindDecode  TransportKind = "DECODE"  // статус 2xx, но тело не JSON
)

type TransportError struct {
	Kind       TransportKind
	Operation  domain.Operation
	Method     string
	URL        string
	StatusCode int // только для KindHTTP
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s %s: HTTP error, status %d", e.Method, e.URL, e.StatusCode)
	case KindDecode:
		return fmt.Sprintf("%s %s: response is not valid JSON: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: network failure: %v", e.Method, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNetwork хелпер для предохранителя: только отсутствие ответа считается отказом бэкенда.
func IsNetwork(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr) && tErr.Kind == KindNetwork
}
