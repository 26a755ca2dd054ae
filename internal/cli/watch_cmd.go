package cli

import (
	"context"

	"github.com/alexanderramin/insession/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live session view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app)
		},
	}
}

// runWatch runs the live view until the user quits. Store changes reach the
// view through a subscription; external database writes trigger a reload.
func runWatch(cmd *cobra.Command, app *App) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := newSessionModel(ctx, app.Sessions, app.Config.TickInterval)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := app.Sessions.Subscribe(func(snap service.Snapshot) {
		p.Send(snapshotMsg(snap))
	})
	defer unsubscribe()

	if app.Config.AutoRefresh && app.WatchChanges != nil {
		changes, err := app.WatchChanges(ctx, app.Config)
		if err != nil {
			return err
		}
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-changes:
					if !ok {
						return
					}
					p.Send(dbChangedMsg{})
				}
			}
		}()
	}

	_, err := p.Run()
	return err
}
