package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"driftwatch/internal/adapters/activity"
	"driftwatch/internal/clock"
	"driftwatch/internal/domain"
	"driftwatch/internal/logging"
	"driftwatch/internal/services"
	"driftwatch/internal/theme"
)

// errPlannedElapsed signals the planned duration ran out; it is the
// normal way a session ends.
var errPlannedElapsed = errors.New("planned duration elapsed")

// StartCmd runs a focus session in the foreground
type StartCmd struct {
	Destination string        `arg:"" help:"What this session is working toward"`
	Duration    time.Duration `help:"Planned session duration" short:"t" default:"25m"`
	Owner       string        `help:"Owner reference (defaults to settings, then $USER)"`
	Watch       []string      `help:"Directories whose file writes count as activity" type:"existingdir"`
}

// Run executes the start command
func (cmd *StartCmd) Run(cli *CLI) error {
	svc := cli.Container.SessionService
	settings := cli.Container.Settings

	owner := cmd.Owner
	if owner == "" {
		owner = settings.Owner
	}
	if owner == "" {
		owner = os.Getenv("USER")
	}
	if owner == "" {
		owner = "local"
	}

	ctx := context.Background()
	session, err := svc.Start(ctx, cmd.Destination, owner, cmd.Duration)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	fmt.Printf("%s %s\n",
		theme.HeadingStyle.Render("Session started:"),
		cmd.Destination,
	)
	if session.Persistence == domain.PersistenceLocalOnly {
		fmt.Println(theme.LabelStyle.Render("(store unreachable, session is local-only)"))
	}

	// File writes under the watched paths count as user activity for the
	// idle detector.
	watchPaths := append([]string{}, settings.WatchPaths...)
	watchPaths = append(watchPaths, cmd.Watch...)
	watcher := activity.NewWatcher(watchPaths)
	if err := watcher.Start(svc.Activity); err != nil {
		logging.Logger.Warn("activity watcher unavailable", "error", err)
	}
	defer watcher.Stop()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := svc.Subscribe()
	g, gctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		select {
		case <-time.After(cmd.Duration):
			return errPlannedElapsed
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	g.Go(func() error {
		for {
			select {
			case change := <-updates:
				if change.Distracted {
					fmt.Printf("%s %d\n",
						theme.LabelStyle.Render("Adrift. Distractions so far:"),
						change.DistractionCount,
					)
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	waitErr := g.Wait()
	interrupted := !errors.Is(waitErr, errPlannedElapsed)

	finished, ok := svc.End(ctx)
	if !ok {
		return errors.New("no active session to end")
	}

	printSummary(finished, interrupted)
	return nil
}

func printSummary(finished *services.Finished, interrupted bool) {
	s := finished.Session

	fmt.Println()
	fmt.Println(theme.HeadingStyle.Render("Session summary"))
	if interrupted {
		fmt.Println(theme.LabelStyle.Render("(ended early)"))
	}
	fmt.Printf("%s %s\n", theme.LabelStyle.Render("Duration:"), clock.FormatDuration(s.ActualDuration))
	fmt.Printf("%s %s\n",
		theme.LabelStyle.Render("Focus quality:"),
		theme.QualityStyle(finished.Summary.FocusQuality).Render(fmt.Sprintf("%d%%", finished.Summary.FocusQuality)),
	)
	fmt.Printf("%s %d\n", theme.LabelStyle.Render("Distractions:"), s.DistractionCount)
	if s.DistractionCount > 0 {
		fmt.Printf("%s %s\n", theme.LabelStyle.Render("Most common:"), finished.Summary.MostCommonType)
		fmt.Printf("%s %s\n", theme.LabelStyle.Render("Average length:"), clock.FormatDuration(finished.Summary.AverageDuration))
	}
	if s.Persistence == domain.PersistenceLocalOnly {
		fmt.Println(theme.LabelStyle.Render("Not synced to the store."))
	}
}
