// cmd/acmeblogs/main.go
//
// This is the entry point for the acmeblogs CLI.
//
// Without -employee it launches the TUI (and the event bridge when enabled).
// With -employee it runs one selection, optionally expands every comment
// section, prints the resulting outline and exits.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/kingrea/acme-blogs/internal/bridge"
	"github.com/kingrea/acme-blogs/internal/config"
	"github.com/kingrea/acme-blogs/internal/gateway"
	"github.com/kingrea/acme-blogs/internal/logging"
	"github.com/kingrea/acme-blogs/internal/render"
	"github.com/kingrea/acme-blogs/internal/tui"
)

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	employee := flag.String("employee", "", "render this employee's posts, print the outline and exit")
	expand := flag.Bool("expand", false, "with -employee, show every comment section before printing")
	forceBridge := flag.Bool("bridge", false, "start the event bridge regardless of config")
	logLevel := flag.String("log-level", "info", "log level for .acmeblogs/logs/acmeblogs.log")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitAppDir(absoluteProject); err != nil {
		die("init %s: %v", config.AppDir, err)
	}
	logger, err := logging.New(absoluteProject, logging.ParseLevel(*logLevel))
	if err != nil {
		die("%v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *employee != "" {
		cfg, err := config.NewConfig(absoluteProject)
		if err != nil {
			die("load config: %v", err)
		}
		if err := printSelection(ctx, os.Stdout, cfg, logger.Fields(), *employee, *expand); err != nil {
			logger.Fields().WithError(err).Error("one-shot render failed")
			die("%v", err)
		}
		return
	}

	if err := runTUI(ctx, absoluteProject, logger, *forceBridge); err != nil {
		die("%v", err)
	}
}

// printSelection renders one employee's posts and writes the outline to w.
func printSelection(ctx context.Context, w io.Writer, cfg *config.Config, log logrus.FieldLogger, value string, expand bool) error {
	gw := gateway.NewClient(cfg.APIBaseURL(),
		gateway.WithTimeout(cfg.APITimeout()),
		gateway.WithLogger(log))
	session := render.NewSession()
	builder := render.NewBuilder(gw,
		render.WithEnrichment(render.ParseEnrichment(cfg.Enrichment()), cfg.MaxParallel()),
		render.WithBuilderLogger(log))
	orch := render.NewOrchestrator(session, builder, render.WithOrchestratorLogger(log))
	selector := render.NewSelector(gw, orch, cfg.DefaultEmployee())

	result, err := selector.OnSelectionChange(ctx, &render.SelectionEvent{Value: value})
	if err != nil {
		return fmt.Errorf("render employee %s: %w", value, err)
	}
	if expand {
		for _, id := range session.PostIDs() {
			session.Click(id)
		}
	}
	fmt.Fprintf(w, "employee %d · %d post(s)\n", result.UserID, len(result.Posts))
	_, err = fmt.Fprintln(w, session.Outline())
	return err
}

func runTUI(ctx context.Context, projectDir string, logger *logging.Logger, forceBridge bool) error {
	app, err := tui.NewApp(projectDir, tui.WithLogger(logger.Fields()))
	if err != nil {
		return fmt.Errorf("start app: %w", err)
	}
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	settings := bridge.SettingsFromConfig(app.Config())
	if forceBridge {
		settings.Enabled = true
	}
	if settings.Enabled {
		processor := bridge.NewSessionProcessor(app.Selector(), app.Session(), func(applied bridge.Applied) {
			evt := applied.Event
			detail := evt.Value
			if evt.Type == bridge.TypeToggle {
				detail = "post " + strconv.Itoa(evt.PostID)
			}
			program.Send(tui.ExternalChangeMsg{Kind: evt.Type, Detail: detail, UserID: applied.UserID})
		})
		server := bridge.NewServer(settings,
			bridge.WithProcessor(processor),
			bridge.WithViewer(app.Session()),
			bridge.WithLogger(logger))
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
