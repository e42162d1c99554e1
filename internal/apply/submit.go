package apply

import (
	"context"
	"fmt"

	"github.com/ibeckermayer/apply4me/internal/artifacts"
	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/site"
)

// Submit clicks the submit control and waits for the success indicator.
// A missing indicator is a failure, even though the submission may have
// gone through and only rendered slowly.
func (d *Driver) Submit(ctx context.Context) error {
	err := d.submit(ctx)
	if err != nil {
		d.artifacts.Screenshot(ctx, d.page, artifacts.SubmissionScreenshot)
	}
	return err
}

func (d *Driver) submit(ctx context.Context) error {
	if err := d.page.Wait(ctx, site.Submit, browser.Visible, d.opts.Timings.SubmitVisible); err != nil {
		return fmt.Errorf("submit button not found: %w", err)
	}
	if err := d.page.Click(ctx, site.Submit, 0); err != nil {
		return fmt.Errorf("failed to click submit: %w", err)
	}

	d.log.Info("Waiting for success message...")
	if err := d.page.Wait(ctx, site.Success, browser.Attached, d.opts.Timings.SuccessVisible); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.WithError(err).Warn("Success indicator did not appear; the submission may still have gone through")
		d.artifacts.HTML(ctx, d.page, artifacts.SubmissionHTML)
		return ErrNoSuccess
	}
	return nil
}
