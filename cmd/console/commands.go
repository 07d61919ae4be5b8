package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/xela07ax/mdm-merge-console/internal/console/handler"
	"github.com/xela07ax/mdm-merge-console/internal/console/server"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/tui"
	"go.uber.org/zap"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive dashboard (default)",
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := buildApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	model := tui.New(a.dash, tui.Options{
		EntityID1: a.cfg.Dashboard.EntityID1,
		EntityID2: a.cfg.Dashboard.EntityID2,
		Color:     term.IsTerminal(int(os.Stdout.Fd())),
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func newRunCmd() *cobra.Command {
	var p domain.Params
	cmd := &cobra.Command{
		Use:   "run <operation>",
		Short: "Run one operation and print the result",
		Long: "Run one operation and print the result as JSON.\n" +
			"Operation names accept both LIST_RULES and list-rules forms, see `ops`.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := domain.ParseOperation(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			a, err := buildApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			lc, err := a.dash.Run(ctx, op, p)
			if err != nil {
				return err
			}
			if lc.Phase == domain.PhaseFailed {
				return errors.New(lc.Message)
			}
			return printResult(cmd, a.dash.Snapshot())
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.EntityID1, "entity-id1", "", "first entity for MERGE_ENTITIES")
	f.StringVar(&p.EntityID2, "entity-id2", "", "second entity for MERGE_ENTITIES")
	f.StringVar(&p.EntityID, "entity-id", "", "entity for ENTITY_AUDIT_LOGS")
	f.StringVar(&p.AgentID, "agent-id", "", "agent for AGENT_AUDIT_LOGS")
	f.StringVar(&p.Domain, "domain", "", "domain for LIST_RULES_BY_DOMAIN")
	f.IntVar(&p.Limit, "limit", 0, "page size for AUDIT_LOGS (0 uses the configured default)")
	return cmd
}

// printResult печатает нормализованное представление, если оно есть, иначе ответ бэкенда.
func printResult(cmd *cobra.Command, snap domain.DashboardSnapshot) error {
	var v any = snap.Lifecycle.Payload
	switch snap.Lifecycle.Operation {
	case domain.OpAgentStatus:
		v = snap.AgentStatus
	case domain.OpAuditLogs, domain.OpEntityAuditLogs, domain.OpAgentAuditLogs:
		v = snap.Audit
	case domain.OpListRules, domain.OpListRulesByDomain:
		v = snap.Rules
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List supported operations and their backend routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tSLUG\tMETHOD\tPATH\tQUERY")
			for _, op := range domain.Operations() {
				r, _ := domain.RouteFor(op)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", op, op.Slug(), r.Method, r.Path, strings.Join(r.Query, ","))
			}
			return w.Flush()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the dashboard as a local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			var limiter *rate.Limiter
			if a.cfg.Server.RateLimit > 0 {
				limiter = rate.NewLimiter(rate.Limit(a.cfg.Server.RateLimit), a.cfg.Server.RateBurst)
			}
			opsH := handler.NewOperationHandler(a.dash, limiter, a.logger)
			api := server.NewConsoleServer(a.logger, a.dash.Backend(), a.registry, opsH)

			srv := &http.Server{
				Addr:         a.cfg.Server.Addr(),
				Handler:      api,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("console API started", zap.String("addr", srv.Addr), zap.String("backend", a.dash.Backend()))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("console API stopping")
			// Даем 5 секунд на завершение запросов
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			a.logger.Info("console API exited properly")
			return nil
		},
	}
}
