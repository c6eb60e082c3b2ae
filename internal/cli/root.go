package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexanderramin/crawl/internal/service"
	"github.com/alexanderramin/crawl/internal/watch"
	"github.com/spf13/cobra"
)

// App holds references to the services and process settings used by CLI
// commands.
type App struct {
	Catalog service.CatalogService
	Imports service.ImportService

	// Now is the clock used for schedule evaluation. Nil means time.Now.
	Now func() time.Time
	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Nil uses a huh confirm form.
	Confirm func(title string) (bool, error)

	// Watch starts the external change sources for the TUI. Nil disables
	// live updates.
	Watch func(ctx context.Context) (<-chan watch.Event, error)
	// RefreshInterval is how often the TUI re-evaluates schedules while
	// inactive nodes are hidden.
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "crawl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "crawl",
		Short:         "Manage the ticker content catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Catalog.Load(cmd.Context())
		},
	}

	root.AddCommand(
		newTreeCmd(app),
		newFindCmd(app),
		newAddCmd(app),
		newRenameCmd(app),
		newRemoveCmd(app),
		newToggleCmd(app),
		newMoveCmd(app),
		newPasteCmd(app),
		newScheduleCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newTUICmd(app),
	)

	return root
}
