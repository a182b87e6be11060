// Package internal provides the App struct that wires all components of
// taskdeck together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tasknest/taskdeck/internal/cli"
	"github.com/tasknest/taskdeck/internal/core"
	"github.com/tasknest/taskdeck/internal/observability"
	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/internal/storage"
	"github.com/tasknest/taskdeck/pkg/models"
)

// App holds all service dependencies for the taskdeck client.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Storage layer
	Credentials storage.CredentialStore

	// Remote service
	Remote remote.Client

	// Core services
	Session   *core.SessionManager
	View      *core.ViewModel
	Mutations *core.MutationController

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the client. basePath is the
// directory holding the config file, credentials, and event log
// (typically ~/.taskdeck).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.Validate(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Credentials = storage.NewCredentialStore(basePath)

	// --- Session + remote service ---
	// The session manager is the client's token source, so the two are
	// wired in two steps: a placeholder source first, then the manager.
	tokenSource := &sessionTokenSource{}
	app.Remote = remote.NewClient(cfg.ServerURL, time.Duration(cfg.TimeoutSeconds)*time.Second, tokenSource)

	app.Session, err = core.NewSessionManager(app.Remote, app.Credentials)
	if err != nil {
		return nil, err
	}
	tokenSource.session = app.Session

	// --- Core services ---
	app.View = core.NewViewModel()
	app.Mutations = core.NewMutationController(app.Remote, app.View, app.Session.Expire)

	// --- Observability ---
	if cfg.EventsEnabled {
		eventLogPath := filepath.Join(basePath, "events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without event recording.
			app.EventLog = observability.NewNopEventLog()
		}
	} else {
		app.EventLog = observability.NewNopEventLog()
	}
	app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	if cfg.WebhookURL != "" {
		app.Notifier = observability.NewWebhookNotifier(cfg.WebhookURL)
	}

	// --- CLI layer ---
	cli.Config = app.Config
	cli.Remote = app.Remote
	cli.Session = app.Session
	cli.View = app.View
	cli.Mutations = app.Mutations
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// sessionTokenSource adapts the SessionManager to remote.TokenSource,
// breaking the construction cycle between client and session.
type sessionTokenSource struct {
	session *core.SessionManager
}

func (s *sessionTokenSource) Token() string {
	if s.session == nil {
		return ""
	}
	return s.session.Token()
}

// ResolveBasePath determines where taskdeck keeps its state:
// TASKDECK_HOME when set, otherwise ~/.taskdeck.
func ResolveBasePath() string {
	if home := os.Getenv("TASKDECK_HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".taskdeck")
}
