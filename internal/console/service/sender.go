package service

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// Sender описывает требования сервисов к транспорту.
// Реализуется connectors.HTTPAdapter и engine.ReliabilityWrapper.
type Sender interface {
	Send(ctx context.Context, op domain.Operation, pathParams map[string]string, query url.Values, body any) (json.RawMessage, error)
}

// call общий путь для операций без параметров.
func call(ctx context.Context, s Sender, op domain.Operation) (json.RawMessage, error) {
	return s.Send(ctx, op, nil, nil, nil)
}
