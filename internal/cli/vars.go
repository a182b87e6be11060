package cli

import (
	"github.com/tasknest/taskdeck/internal/core"
	"github.com/tasknest/taskdeck/internal/observability"
	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/pkg/models"
)

// Service instances, set during app initialization in internal/app.go.
var (
	Config      *models.Config
	Remote      remote.Client
	Session     *core.SessionManager
	View        *core.ViewModel
	Mutations   *core.MutationController
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
