package cli

import (
	"context"

	"github.com/alexanderramin/crawl/internal/watch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and rearrange the catalog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			p := tea.NewProgram(newCatalogModel(app), tea.WithAltScreen(), tea.WithContext(ctx))

			if app.Watch != nil {
				events, err := app.Watch(ctx)
				if err != nil {
					return err
				}
				go watch.Run(ctx, events, app.Catalog.ExternalChange, func() {
					p.Send(externalChangeMsg{})
				}, app.Logger)
			}

			_, err := p.Run()
			return err
		},
	}
}
