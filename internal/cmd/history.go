package cmd

import (
	"context"
	"fmt"
	"os"

	"driftwatch/internal/clock"
	"driftwatch/internal/theme"
)

// HistoryCmd lists completed focus sessions
type HistoryCmd struct {
	Owner string `help:"Owner reference (defaults to settings, then $USER)"`
}

// Run executes the history command
func (cmd *HistoryCmd) Run(cli *CLI) error {
	owner := cmd.Owner
	if owner == "" {
		owner = cli.Container.Settings.Owner
	}
	if owner == "" {
		owner = os.Getenv("USER")
	}
	if owner == "" {
		owner = "local"
	}

	sessions, err := cli.Container.SessionService.History(context.Background(), owner)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println(theme.LabelStyle.Render("No completed sessions yet."))
		return nil
	}

	fmt.Println(theme.HeadingStyle.Render("Completed sessions"))
	for _, s := range sessions {
		fmt.Printf("%s  %-30s  %8s  %d distractions\n",
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.DestinationRef,
			clock.FormatDuration(s.ActualDuration),
			s.DistractionCount,
		)
	}
	return nil
}
