// Package present отвечает только за внешний вид: категории статусов и форматирование значений.
package present

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
)

// NA заглушка для отсутствующих значений.
const NA = "N/A"

// Category визуальная категория статуса аудита.
type Category string

const (
	Positive       Category = "positive"
	Negative       Category = "negative"
	NeutralWarning Category = "neutral-warning"
	NeutralUnknown Category = "neutral-unknown"
)

func StatusCategory(s domain.AuditStatus) Category {
	switch s {
	case domain.AuditSuccess:
		return Positive
	case domain.AuditFailed:
		return Negative
	case domain.AuditPending:
		return NeutralWarning
	default:
		return NeutralUnknown
	}
}

// зона-less форматы, в которых бэкенд отдает LocalDateTime
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateTime,
}

// Formatter форматирует время в заданной зоне и раскладке.
type Formatter struct {
	Layout   string
	Location *time.Location
}

// DefaultFormatter: локальная зона и "2006-01-02 15:04:05".
func DefaultFormatter() Formatter {
	return Formatter{Layout: time.DateTime, Location: time.Local}
}

// FormatTimestamp принимает сырое значение createdAt и всегда возвращает строку.
func (f Formatter) FormatTimestamp(v any) string {
	t, ok := parseTimestamp(v, f.location())
	if !ok {
		return NA
	}
	layout := f.Layout
	if layout == "" {
		layout = time.DateTime
	}
	return t.In(f.location()).Format(layout)
}

func (f Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// FormatTimestamp то же с настройками по умолчанию.
func FormatTimestamp(v any) string { return DefaultFormatter().FormatTimestamp(v) }

func parseTimestamp(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		// epoch в миллисекундах; 0 тоже валидная дата (1970 год)
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	case int:
		return time.UnixMilli(int64(t)), true
	case string:
		return parseTimestampString(strings.TrimSpace(t), loc)
	case []any:
		return parseTimestampArray(t, loc)
	case time.Time:
		return t, !t.IsZero()
	}
	return time.Time{}, false
}

func parseTimestampString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// parseTimestampArray разбирает форму [год, месяц, день, час, минута, секунда, наносекунды].
func parseTimestampArray(parts []any, loc *time.Location) (time.Time, bool) {
	if len(parts) < 3 {
		return time.Time{}, false
	}
	var n [7]int
	for i := 0; i < len(parts) && i < len(n); i++ {
		f, ok := parts[i].(float64)
		if !ok {
			return time.Time{}, false
		}
		n[i] = int(f)
	}
	return time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], n[6], loc), true
}

// OrNA разыменовывает опциональную строку.
func OrNA(s *string) string {
	if s == nil || *s == "" {
		return NA
	}
	return *s
}

// FormatScore оценка уверенности с двумя знаками.
func FormatScore(v *float64) string {
	if v == nil {
		return NA
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatDuration время исполнения в миллисекундах.
func FormatDuration(v *float64) string {
	if v == nil {
		return NA
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "ms"
}

// AuditLine собирает строку аудита с уже вычисленными презентационными полями.
func (f Formatter) AuditLine(e domain.AuditLogEntry) domain.AuditLogLine {
	return domain.AuditLogLine{
		AuditLogEntry: e,
		Category:      string(StatusCategory(e.Status)),
		CreatedAtText: f.FormatTimestamp(e.CreatedAt),
	}
}

// AuditView переводит нормализованную страницу аудита в представление.
func (f Formatter) AuditView(page domain.AuditLogPage) *domain.AuditView {
	lines := make([]domain.AuditLogLine, 0, len(page.Entries))
	for _, e := range page.Entries {
		lines = append(lines, f.AuditLine(e))
	}
	return &domain.AuditView{
		Entries:    lines,
		Statistics: page.Statistics,
		EntityID:   page.EntityID,
		AgentID:    page.AgentID,
	}
}
