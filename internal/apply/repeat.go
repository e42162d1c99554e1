package apply

import (
	"context"

	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/site"
	"github.com/ibeckermayer/apply4me/internal/types"
)

// ApplyAll follows "Continue applying" after a successful submission,
// running Process on every listing it leads to. It stops when the control
// is gone, an application fails, or MaxApplications is reached. done is
// how many applications the caller already made in this session.
func (d *Driver) ApplyAll(ctx context.Context, done int) ([]types.Attempt, error) {
	var attempts []types.Attempt

	for {
		if limit := d.opts.MaxApplications; limit > 0 && done >= limit {
			d.log.Infof("Reached the limit of %d applications", limit)
			return attempts, nil
		}

		if d.present(ctx, site.ContinueApplying) == 0 {
			d.log.Info("No more applications offered")
			return attempts, ctx.Err()
		}

		d.log.Info("Continuing to next application...")
		if err := d.page.Click(ctx, site.ContinueApplying, 0); err != nil {
			return attempts, err
		}
		if err := browser.Pause(ctx, d.opts.Timings.ContinueSettle); err != nil {
			return attempts, err
		}

		title := ""
		if url, err := d.page.Location(ctx); err == nil {
			title = url
		}
		attempt, err := d.Process(ctx, title)
		attempts = append(attempts, attempt)
		if err != nil {
			return attempts, err
		}
		done++
	}
}
