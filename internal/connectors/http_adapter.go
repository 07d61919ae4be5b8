package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/infra"
	"go.uber.org/zap"
)

// HTTPAdapter исполняет ровно один HTTP-запрос на вызов Send.
// Ретраев нет: повтор делает сам пользователь.
type HTTPAdapter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPAdapter создает адаптер. timeout == 0 означает таймаут окружения (его нет).
func NewHTTPAdapter(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPAdapter, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	return &HTTPAdapter{
		baseURL: normalized,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("transport"),
	}, nil
}

// normalizeBaseURL добавляет схему, если ее нет, и убирает завершающий слэш.
// Префикс пути сохраняется: бэкенд может жить за reverse-proxy.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("host is empty in %q", raw)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}

func (a *HTTPAdapter) BaseURL() string { return a.baseURL }

// Send строит адрес из базового URL, шаблона пути и query-параметров,
// исполняет запрос и классифицирует исход (NETWORK / HTTP / DECODE).
func (a *HTTPAdapter) Send(ctx context.Context, op domain.Operation, pathParams map[string]string, query url.Values, body any) (json.RawMessage, error) {
	route, ok := domain.RouteFor(op)
	if !ok {
		return nil, &domain.ValidationError{Field: "operation", Reason: "unknown operation " + string(op)}
	}

	path, err := renderPath(route.Path, pathParams)
	if err != nil {
		return nil, err
	}
	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	// 1. Тело только для маршрутов, которые его объявляют
	var reader io.Reader
	if route.HasBody && body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target, reader)
	if err != nil {
		return nil, &TransportError{Kind: KindNetwork, Operation: op, Method: route.Method, URL: target, Err: err}
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	traceID := infra.TraceID(ctx)
	req.Header.Set(infra.TraceHeader, traceID)

	// 2. Одна попытка
	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Debug("backend unreachable",
			zap.String("op", string(op)),
			zap.String("url", target),
			zap.String("trace_id", traceID),
			zap.Error(err))
		return nil, &TransportError{Kind: KindNetwork, Operation: op, Method: route.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)

	a.logger.Debug("backend call finished",
		zap.String("op", string(op)),
		zap.String("method", route.Method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("trace_id", traceID))

	// 3. Не-2xx считаем ошибкой, что бы ни было в теле
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Kind: KindHTTP, Operation: op, Method: route.Method, URL: target, StatusCode: resp.StatusCode}
	}
	if readErr != nil {
		return nil, &TransportError{Kind: KindNetwork, Operation: op, Method: route.Method, URL: target, Err: readErr}
	}
	if !json.Valid(raw) {
		return nil, &TransportError{Kind: KindDecode, Operation: op, Method: route.Method, URL: target, Err: fmt.Errorf("%d bytes of non-JSON body", len(raw))}
	}

	return json.RawMessage(raw), nil
}

// renderPath подставляет {name} из pathParams. Пустое значение дает ошибку валидации.
func renderPath(template string, params map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("malformed path template %q", template)
		}
		name := rest[open+1 : open+end]
		value := strings.TrimSpace(params[name])
		if value == "" {
			return "", domain.Required(name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[open+end+1:]
	}
}
