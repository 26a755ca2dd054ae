package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/insession/internal/cli/formatter"
	"github.com/alexanderramin/insession/internal/domain"
	"github.com/alexanderramin/insession/internal/service"
	"github.com/spf13/cobra"
)

func newStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start [task...]",
		Short: "Start a focus session",
		Long:  "Start a focus session for the given task. Without arguments on a terminal, prompts for the task.",
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.Join(args, " ")
			if strings.TrimSpace(task) == "" && app.interactive() {
				if err := taskForm(&task).Run(); err != nil {
					return err
				}
			}
			return runTransition(cmd, app, "start", func(ctx context.Context) error {
				return app.Sessions.Start(ctx, task)
			})
		},
	}
}

func newPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "pause", app.Sessions.Pause)
		},
	}
}

func newResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "resume", app.Sessions.Resume)
		},
	}
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Pause a running session or resume a paused one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "toggle", app.Sessions.Toggle)
		},
	}
}

func newEndCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total := app.Sessions.TotalDuration()
			task := app.Sessions.Task()
			if err := app.Sessions.End(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if task == "" {
				fmt.Fprintln(out, formatter.Dim("No session was running."))
				return nil
			}
			fmt.Fprintf(out, "Ended %s after %s\n", formatter.Bold(task), formatter.FormatElapsed(total))
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")
	return cmd
}

// runTransition applies op and prints the resulting status. A rejected
// transition is reported but is not a command failure.
func runTransition(cmd *cobra.Command, app *App, action string, op func(context.Context) error) error {
	before := app.Sessions.State()
	out := cmd.OutOrStdout()

	if err := op(cmd.Context()); err != nil {
		if errors.Is(err, domain.ErrEmptyTask) || errors.Is(err, domain.ErrInvalidTransition) {
			fmt.Fprintln(out, formatter.FormatRejection(action, before, err))
			return nil
		}
		return err
	}

	fmt.Fprintln(out, formatter.FormatStatus(app.Sessions.Snapshot()))
	return nil
}

// statusJSON is the machine-readable form of a snapshot.
type statusJSON struct {
	Task               string     `json:"task"`
	State              string     `json:"state"`
	ActiveSince        *time.Time `json:"active_since,omitempty"`
	AccumulatedSeconds int64      `json:"accumulated_seconds"`
	TotalSeconds       int64      `json:"total_seconds"`
	Elapsed            string     `json:"elapsed"`
}

func newStatusJSON(snap service.Snapshot) statusJSON {
	return statusJSON{
		Task:               snap.Task,
		State:              string(snap.State),
		ActiveSince:        snap.ActiveSince,
		AccumulatedSeconds: int64(snap.Accumulated / time.Second),
		TotalSeconds:       int64(snap.Total / time.Second),
		Elapsed:            formatter.FormatElapsed(snap.Total),
	}
}

func runStatus(cmd *cobra.Command, app *App, asJSON bool) error {
	snap := app.Sessions.Snapshot()
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(newStatusJSON(snap))
	}
	fmt.Fprintln(out, formatter.FormatStatus(snap))
	return nil
}
