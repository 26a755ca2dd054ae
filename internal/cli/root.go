package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/insession/internal/config"
	"github.com/alexanderramin/insession/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App holds what CLI commands need. Sessions may be preset (tests);
// otherwise Connect builds it once the configuration is known.
type App struct {
	Sessions service.SessionService
	Config   config.Config

	// Connect opens storage for cfg and sets Sessions.
	Connect func(ctx context.Context, cfg config.Config) error

	// WatchChanges, when set, signals writes to the database by other
	// processes until ctx is cancelled.
	WatchChanges func(ctx context.Context, cfg config.Config) (<-chan struct{}, error)

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "insession" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var cfgFile string
	v := viper.New()

	root := &cobra.Command{
		Use:           "insession",
		Short:         "Track a single focus session from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			app.Config = cfg
			if app.Sessions != nil {
				return nil
			}
			if app.Connect == nil {
				return fmt.Errorf("session storage is not configured")
			}
			return app.Connect(cmd.Context(), cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() {
				return runWatch(cmd, app)
			}
			return runStatus(cmd, app, false)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/insession/config.yaml)")
	root.PersistentFlags().String("db", "", "path to the session database")
	_ = v.BindPFlag("db_path", root.PersistentFlags().Lookup("db"))

	root.AddCommand(
		newStartCmd(app),
		newPauseCmd(app),
		newResumeCmd(app),
		newToggleCmd(app),
		newEndCmd(app),
		newStatusCmd(app),
		newWatchCmd(app),
	)

	return root
}
