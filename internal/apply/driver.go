// Package apply drives one application from an opened listing to a
// confirmed submission, and repeats it while the site offers more.
package apply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/apply4me/internal/answers"
	"github.com/ibeckermayer/apply4me/internal/artifacts"
	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/config"
	"github.com/ibeckermayer/apply4me/internal/site"
	"github.com/ibeckermayer/apply4me/internal/types"
)

var (
	ErrPageLoad      = errors.New("page load failed after multiple attempts")
	ErrNoApplyButton = errors.New("no apply button found")
	ErrNoSuccess     = errors.New("Success message not found. Submission might have failed")
)

// Timings holds the fixed delays and bounded waits of the flow
type Timings struct {
	PageLoad        time.Duration
	PageLoadRetries int
	ExitDialog      time.Duration
	CloseButton     time.Duration
	ApplyClick      time.Duration
	ApplyProbe      time.Duration
	FormVisible     time.Duration
	SubmitVisible   time.Duration
	SuccessVisible  time.Duration
	ContinueSettle  time.Duration
}

// TimingsFromConfig maps the configured timeouts onto Timings
func TimingsFromConfig(cfg *config.Config) Timings {
	t := cfg.Timeouts
	return Timings{
		PageLoad:        t.PageLoad.Std(),
		PageLoadRetries: cfg.Apply.PageLoadRetries,
		ExitDialog:      t.ExitDialog.Std(),
		CloseButton:     t.CloseButton.Std(),
		ApplyClick:      t.ApplyClick.Std(),
		ApplyProbe:      t.ApplyProbe.Std(),
		FormVisible:     t.FormVisible.Std(),
		SubmitVisible:   t.SubmitVisible.Std(),
		SuccessVisible:  t.SuccessVisible.Std(),
		ContinueSettle:  t.ContinueSettle.Std(),
	}
}

// Options configures a Driver
type Options struct {
	Timings    Timings
	DumpInputs bool
	// MaxApplications caps ApplyAll. 0 means no cap.
	MaxApplications int
}

// Driver runs the application flow against a page:
// opened -> dialogs closed -> form visible -> form filled -> submitted.
type Driver struct {
	page      browser.Page
	answers   *answers.Table
	artifacts *artifacts.Recorder
	opts      Options
	log       *logrus.Entry
}

// New creates a driver
func New(page browser.Page, table *answers.Table, rec *artifacts.Recorder, opts Options, log *logrus.Entry) *Driver {
	if opts.Timings.PageLoadRetries < 1 {
		opts.Timings.PageLoadRetries = 1
	}
	return &Driver{page: page, answers: table, artifacts: rec, opts: opts, log: log}
}

// Process applies to the listing currently open on the page. The returned
// attempt is filled in whether or not the application succeeded.
func (d *Driver) Process(ctx context.Context, listing string) (types.Attempt, error) {
	attempt := types.Attempt{Listing: listing, StartedAt: time.Now()}
	if url, err := d.page.Location(ctx); err == nil {
		attempt.URL = url
	}

	report, err := d.process(ctx)
	attempt.Answered = report.Answered
	attempt.Skipped = report.Skipped
	attempt.FinishedAt = time.Now()

	if err != nil {
		d.log.WithError(err).Error("Error during application process")
		// Submission failures capture their own artifacts
		d.artifacts.HTML(ctx, d.page, artifacts.ApplicationHTML)
		d.artifacts.Screenshot(ctx, d.page, artifacts.ApplicationScreenshot)

		attempt.Status = types.StatusFailed
		attempt.Error = err.Error()
		return attempt, err
	}

	attempt.Status = types.StatusSubmitted
	d.log.Info("Application submitted successfully!")
	return attempt, nil
}

func (d *Driver) process(ctx context.Context) (FillReport, error) {
	d.log.Info("Waiting for page to load...")
	if err := d.waitForPage(ctx); err != nil {
		return FillReport{}, err
	}

	d.log.Info("Closing modals if any...")
	if err := d.closeModals(ctx); err != nil {
		return FillReport{}, err
	}

	d.log.Info("Checking for apply button...")
	if err := d.openForm(ctx); err != nil {
		return FillReport{}, err
	}

	if d.opts.DumpInputs {
		d.artifacts.DumpInputs(ctx, d.page)
	}

	d.log.Info("Filling application form...")
	report, err := d.FillForm(ctx)
	if err != nil {
		return report, err
	}

	d.log.Info("Submitting application...")
	return report, d.Submit(ctx)
}

// waitForPage waits for network quiescence, retrying without backoff.
func (d *Driver) waitForPage(ctx context.Context) error {
	retries := d.opts.Timings.PageLoadRetries
	for attempt := 1; attempt <= retries; attempt++ {
		err := d.page.WaitNetworkIdle(ctx, d.opts.Timings.PageLoad)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.WithError(err).Infof("Retrying page load... Attempt %d of %d", attempt, retries)
	}
	return ErrPageLoad
}

// present probes for an optional element. Probe errors count as absence.
func (d *Driver) present(ctx context.Context, loc browser.Locator) int {
	n, err := d.page.Count(ctx, loc)
	if err != nil {
		d.log.WithError(err).Debugf("Probe for %s failed", loc)
		return 0
	}
	return n
}

// closeModals dismisses the exit confirmation and any generic dialogs.
// Only a cancelled context is fatal.
func (d *Driver) closeModals(ctx context.Context) error {
	if d.present(ctx, site.ExitCancel) > 0 {
		d.log.Info("Closing 'Exit application?' modal by clicking Cancel...")
		if err := d.page.Click(ctx, site.ExitCancel, 0); err != nil {
			d.log.WithError(err).Info("No modals to close or error while closing modals")
			return ctx.Err()
		}
		if err := browser.Pause(ctx, d.opts.Timings.ExitDialog); err != nil {
			return err
		}
	}

	// Closing a dialog may detach its button, so recount after each click
	// and only step past buttons that stayed.
	remaining := d.present(ctx, site.CloseButtons)
	index := 0
	for clicks := remaining; clicks > 0 && index < remaining; clicks-- {
		if err := d.page.Click(ctx, site.CloseButtons, index); err != nil {
			d.log.WithError(err).Info("No modals to close or error while closing modals")
			return ctx.Err()
		}
		if err := browser.Pause(ctx, d.opts.Timings.CloseButton); err != nil {
			return err
		}
		after := d.present(ctx, site.CloseButtons)
		if after >= remaining {
			index++
		}
		remaining = after
	}
	return nil
}

// openForm activates the apply control, probing fallbacks in order.
func (d *Driver) openForm(ctx context.Context) error {
	if d.present(ctx, site.ApplyNow) > 0 {
		d.log.Info("Clicking apply now button...")
		if err := d.page.Click(ctx, site.ApplyNow, 0); err != nil {
			return fmt.Errorf("failed to click apply button: %w", err)
		}
		return browser.Pause(ctx, d.opts.Timings.ApplyClick)
	}

	d.log.Info("Trying alternative apply buttons...")
	for _, loc := range site.ApplyFallbacks {
		d.log.Debugf("Trying selector: %s", loc)
		if err := d.page.Wait(ctx, loc, browser.Visible, d.opts.Timings.ApplyProbe); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Debugf("Selector failed: %s", loc)
			continue
		}
		d.log.Infof("Clicking selector: %s", loc)
		if err := d.page.Click(ctx, loc, 0); err != nil {
			d.log.WithError(err).Debugf("Selector failed: %s", loc)
			continue
		}
		return browser.Pause(ctx, d.opts.Timings.ApplyClick)
	}

	d.artifacts.DumpElements(ctx, d.page)
	return ErrNoApplyButton
}
