// Package app runs complete application sessions: one browser, one login,
// one listing, and the follow-up applications the site offers.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/apply4me/internal/answers"
	"github.com/ibeckermayer/apply4me/internal/apply"
	"github.com/ibeckermayer/apply4me/internal/artifacts"
	"github.com/ibeckermayer/apply4me/internal/auth"
	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/config"
	"github.com/ibeckermayer/apply4me/internal/listing"
	"github.com/ibeckermayer/apply4me/internal/notifier"
	"github.com/ibeckermayer/apply4me/internal/report"
	"github.com/ibeckermayer/apply4me/internal/store"
	"github.com/ibeckermayer/apply4me/internal/types"
)

// captureTimeout bounds the final error screenshot, which runs after the
// session context may already be done.
const captureTimeout = 10 * time.Second

// Launcher opens the page a session runs on
type Launcher func(ctx context.Context) (browser.Page, error)

// ChromeLauncher launches a Chrome tab configured from cfg
func ChromeLauncher(cfg config.BrowserConfig) Launcher {
	return func(ctx context.Context) (browser.Page, error) {
		c, err := browser.Launch(ctx, browser.LaunchOptions{
			Headless:     cfg.Headless,
			UserAgent:    cfg.UserAgent,
			WindowWidth:  cfg.WindowWidth,
			WindowHeight: cfg.WindowHeight,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// App holds the application state.
type App struct {
	launch   Launcher
	store    *store.Store       // nil disables history
	notifier *notifier.Notifier // nil disables email
	log      *logrus.Entry

	// run serializes sessions; there is one browser page at a time.
	run sync.Mutex

	// Mutable fields - use getSnapshot() for concurrent access.
	mu       sync.RWMutex
	config   *config.Config
	answers  *answers.Table
	reporter *report.Builder
}

// snapshot holds fields that may be replaced by Reload.
type snapshot struct {
	config   *config.Config
	answers  *answers.Table
	reporter *report.Builder
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{config: a.config, answers: a.answers, reporter: a.reporter}
}

// New creates a new App instance.
func New(cfg *config.Config, launch Launcher, st *store.Store, n *notifier.Notifier, log *logrus.Entry) (*App, error) {
	a := &App{launch: launch, store: st, notifier: n, log: log}
	if err := a.Reload(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload swaps in a new configuration. Sessions already running keep the
// configuration they started with.
func (a *App) Reload(cfg *config.Config) error {
	table, err := answers.FromConfig(cfg.Answers)
	if err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		loc = time.Local
	}
	reporter, err := report.New(loc)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.answers = table
	a.reporter = reporter
	a.mu.Unlock()
	return nil
}

// Run performs one complete session. The browser is closed on every path.
// The returned result is never nil.
func (a *App) Run(ctx context.Context) (*types.RunResult, error) {
	a.run.Lock()
	defer a.run.Unlock()

	s := a.getSnapshot()
	if limit := s.config.Timeouts.Run.Std(); limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	result := &types.RunResult{StartedAt: time.Now()}
	runID := a.startRun(result)

	err := a.session(ctx, s, runID, result)
	if err != nil {
		a.log.WithError(err).Error("An error occurred")
		result.Error = err.Error()
	}
	result.FinishedAt = time.Now()

	a.finishRun(runID, result)
	a.notify(s, result)

	a.log.WithFields(logrus.Fields{
		"submitted": result.Submitted(),
		"failed":    result.Failed(),
	}).Info("Session finished")
	return result, err
}

func (a *App) session(ctx context.Context, s snapshot, runID int64, result *types.RunResult) error {
	cfg := s.config
	rec := artifacts.New(cfg.Debug.ArtifactDir, a.log.WithField("component", "artifacts"))

	page, err := a.launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close browser")
		}
	}()

	err = a.applyListings(ctx, s, page, rec, runID, result)
	if err != nil {
		captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
		defer cancel()
		rec.Screenshot(captureCtx, page, artifacts.ErrorScreenshot)
	}
	return err
}

func (a *App) applyListings(ctx context.Context, s snapshot, page browser.Page, rec *artifacts.Recorder, runID int64, result *types.RunResult) error {
	cfg := s.config

	var cookies *auth.CookieStore
	if cfg.Session.ReuseCookies {
		cookies = auth.NewCookieStore(cfg.CookiePath())
	}
	manager := auth.NewManager(
		auth.Credentials{Email: cfg.Credentials.Email, Password: cfg.Credentials.Password},
		auth.Options{
			HomeURL:           cfg.Site.HomeURL,
			ListingsURL:       cfg.Site.ListingsURL,
			NavigationTimeout: cfg.Timeouts.Navigation.Std(),
			ListingsTimeout:   cfg.Timeouts.Listings.Std(),
		},
		cookies,
		a.log.WithField("component", "auth"),
	)
	if err := manager.Bootstrap(ctx, page); err != nil {
		return err
	}

	scanner := listing.New(page, cfg.Timeouts.ListingSettle.Std(), a.log.WithField("component", "listing"))
	first, err := scanner.First(ctx)
	if err != nil {
		return err
	}
	if err := scanner.Open(ctx, first); err != nil {
		return err
	}

	driver := apply.New(page, s.answers, rec, apply.Options{
		Timings:         apply.TimingsFromConfig(cfg),
		DumpInputs:      cfg.Apply.DumpInputs,
		MaxApplications: cfg.Apply.MaxApplications,
	}, a.log.WithField("component", "apply"))

	attempt, err := driver.Process(ctx, first.Text)
	a.record(runID, result, attempt)
	if err != nil {
		return err
	}

	if !cfg.Apply.ContinueApplying {
		return nil
	}
	a.log.Info("Applying to all related internships...")
	more, err := driver.ApplyAll(ctx, 1)
	for _, at := range more {
		a.record(runID, result, at)
	}
	if err != nil {
		return fmt.Errorf("error while applying to all internships: %w", err)
	}
	a.log.Info("Finished applying to all internships")
	return nil
}

func (a *App) startRun(result *types.RunResult) int64 {
	if a.store == nil {
		return 0
	}
	id, err := a.store.StartRun(result.StartedAt)
	if err != nil {
		a.log.WithError(err).Warn("Could not record run start")
		return 0
	}
	return id
}

func (a *App) record(runID int64, result *types.RunResult, attempt types.Attempt) {
	result.Attempts = append(result.Attempts, attempt)
	if a.store == nil || runID == 0 {
		return
	}
	if err := a.store.SaveAttempt(runID, attempt); err != nil {
		a.log.WithError(err).Warn("Could not record application")
	}
}

func (a *App) finishRun(runID int64, result *types.RunResult) {
	if a.store == nil || runID == 0 {
		return
	}
	if err := a.store.FinishRun(runID, result); err != nil {
		a.log.WithError(err).Warn("Could not record run result")
	}
}

func (a *App) notify(s snapshot, result *types.RunResult) {
	if a.notifier == nil {
		return
	}
	r, err := s.reporter.Build(result)
	if err != nil {
		a.log.WithError(err).Warn("Could not build run summary")
		return
	}
	if err := a.notifier.SendReport(r); err != nil {
		a.log.WithError(err).Warn("Could not email run summary")
		return
	}
	a.log.Info("Run summary sent")
}
