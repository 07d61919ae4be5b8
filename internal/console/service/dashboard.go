package service

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/engine"
	"github.com/xela07ax/mdm-merge-console/internal/normalize"
	"github.com/xela07ax/mdm-merge-console/internal/present"
	"go.uber.org/zap"
)

// Dashboard фасад, через который работают все представления (TUI, локальный API, run).
// Владеет контроллером и производными представлениями.
type Dashboard struct {
	backend   string
	composer  *Composer
	ctrl      *engine.Controller
	metrics   *engine.Metrics
	formatter present.Formatter
	logger    *zap.Logger
	ctrlOpts  []engine.Option // только на время сборки

	mu          sync.RWMutex
	agentStatus *domain.AgentStatusView
	audit       *domain.AuditView
	rules       []domain.Rule
}

type DashboardOption func(*Dashboard)

func WithMetrics(m *engine.Metrics) DashboardOption {
	return func(d *Dashboard) { d.metrics = m }
}

func WithFormatter(f present.Formatter) DashboardOption {
	return func(d *Dashboard) { d.formatter = f }
}

// WithObservers передает дополнительных наблюдателей в контроллер (например, TUI).
func WithObservers(obs ...engine.Observer) DashboardOption {
	return func(d *Dashboard) {
		for _, o := range obs {
			d.ctrlOpts = append(d.ctrlOpts, engine.WithObserver(o))
		}
	}
}

func NewDashboard(backend string, composer *Composer, logger *zap.Logger, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		backend:   backend,
		composer:  composer,
		formatter: present.DefaultFormatter(),
		logger:    logger.Named("dashboard"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = engine.NewMetrics(nil)
	}

	ctrlOpts := append([]engine.Option{
		engine.WithObserver(d.metrics.Observer()),
		engine.WithObserver(d.derive),
	}, d.ctrlOpts...)
	d.ctrl = engine.NewController(logger, ctrlOpts...)
	d.ctrlOpts = nil
	return d
}

// Dispatch запускает операцию. Неизвестная операция и занятый автомат
// возвращаются ошибкой без перехода; все остальное приходит как Failed.
func (d *Dashboard) Dispatch(ctx context.Context, op domain.Operation, p domain.Params) (<-chan domain.Lifecycle, error) {
	work, err := d.composer.Work(op, p)
	if err != nil {
		return nil, err
	}
	done, err := d.ctrl.Start(ctx, op, d.metrics.Instrument(op, work))
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			d.metrics.RejectedTotal.Inc()
			d.logger.Debug("operation rejected, another one is loading", zap.String("op", string(op)))
		}
		return nil, err
	}
	return done, nil
}

// Run Dispatch плюс ожидание терминального состояния.
func (d *Dashboard) Run(ctx context.Context, op domain.Operation, p domain.Params) (domain.Lifecycle, error) {
	done, err := d.Dispatch(ctx, op, p)
	if err != nil {
		return d.ctrl.Current(), err
	}
	return <-done, nil
}

func (d *Dashboard) Lifecycle() domain.Lifecycle { return d.ctrl.Current() }

func (d *Dashboard) Busy() bool { return d.ctrl.Current().IsLoading() }

func (d *Dashboard) Backend() string { return d.backend }

func (d *Dashboard) Formatter() present.Formatter { return d.formatter }

// Snapshot согласованный срез для отрисовки.
func (d *Dashboard) Snapshot() domain.DashboardSnapshot {
	lc := d.ctrl.Current()

	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := domain.DashboardSnapshot{
		Backend:   d.backend,
		Lifecycle: lc,
		Rules:     slices.Clone(d.rules),
	}
	if d.agentStatus != nil {
		v := *d.agentStatus
		snap.AgentStatus = &v
	}
	if d.audit != nil {
		v := *d.audit
		snap.Audit = &v
	}
	return snap
}

// derive пересчитывает производные представления после успешной операции.
// Представление заменяется целиком, слияния со старым нет.
func (d *Dashboard) derive(prev, next domain.Lifecycle) {
	if next.Phase != domain.PhaseSucceeded {
		return
	}

	switch next.Operation {
	case domain.OpAgentStatus:
		v := normalize.AgentStatus(next.Payload)
		d.mu.Lock()
		d.agentStatus = &v
		d.mu.Unlock()

	case domain.OpAuditLogs, domain.OpEntityAuditLogs, domain.OpAgentAuditLogs:
		v := d.formatter.AuditView(normalize.AuditLogs(next.Payload))
		d.mu.Lock()
		d.audit = v
		d.mu.Unlock()

	case domain.OpListRules, domain.OpListRulesByDomain:
		rules := normalize.Rules(next.Payload)
		d.mu.Lock()
		d.rules = rules
		d.mu.Unlock()
	}
}
