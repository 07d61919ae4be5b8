package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Фазы State Machine запроса
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseLoading   Phase = "LOADING"
	PhaseSucceeded Phase = "SUCCEEDED"
	PhaseFailed    Phase = "FAILED"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Lifecycle единственное изменяемое состояние контроллера.
// Вместо набора флагов loading/error/result хранится ровно один вариант,
// поэтому комбинация "loading + старая ошибка" невозможна.
type Lifecycle struct {
	Phase     Phase           `json:"phase"`
	Operation Operation       `json:"operation,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"` // только для Succeeded
	Message   string          `json:"message,omitempty"` // только для Failed

	StartedAt time.Time `json:"startedAt,omitzero"`
	SettledAt time.Time `json:"settledAt,omitzero"`
}

func Idle() Lifecycle { return Lifecycle{Phase: PhaseIdle} }

func Loading(op Operation, at time.Time) Lifecycle {
	return Lifecycle{Phase: PhaseLoading, Operation: op, StartedAt: at}
}

// Settle переводит Loading в терминальное состояние. Предыдущий результат
// не переживает новый старт: Payload и Message пишутся только здесь.
func (l Lifecycle) Settle(payload json.RawMessage, failure string, at time.Time) Lifecycle {
	next := Lifecycle{Operation: l.Operation, StartedAt: l.StartedAt, SettledAt: at}
	if failure != "" {
		next.Phase = PhaseFailed
		next.Message = failure
		return next
	}
	next.Phase = PhaseSucceeded
	next.Payload = payload
	return next
}

// CanTransitionTo проверяет правила конечного автомата:
// Idle|Succeeded|Failed -> Loading, Loading -> Succeeded|Failed.
func (l Lifecycle) CanTransitionTo(next Phase) error {
	switch l.Phase {
	case PhaseLoading:
		if next == PhaseSucceeded || next == PhaseFailed {
			return nil
		}
	case PhaseIdle, PhaseSucceeded, PhaseFailed, "":
		if next == PhaseLoading {
			return nil
		}
	}
	return ErrInvalidTransition
}

func (l Lifecycle) IsLoading() bool  { return l.Phase == PhaseLoading }
func (l Lifecycle) IsTerminal() bool { return l.Phase == PhaseSucceeded || l.Phase == PhaseFailed }

// Duration сколько длилась последняя завершенная операция.
func (l Lifecycle) Duration() time.Duration {
	if l.StartedAt.IsZero() || l.SettledAt.IsZero() {
		return 0
	}
	return l.SettledAt.Sub(l.StartedAt)
}
