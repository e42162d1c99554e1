package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/ibeckermayer/apply4me/internal/artifacts"
	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/site"
)

// FillReport lists which question labels received an answer.
type FillReport struct {
	Answered []string
	Skipped  []string
}

// FillForm answers every recognized question in the application form.
// Unmatched questions are left untouched.
func (d *Driver) FillForm(ctx context.Context) (FillReport, error) {
	var report FillReport

	if err := d.page.Wait(ctx, site.FormModal, browser.Visible, d.opts.Timings.FormVisible); err != nil {
		d.artifacts.HTML(ctx, d.page, artifacts.FormHTML)
		return report, fmt.Errorf("application form did not appear: %w", err)
	}
	if err := d.page.ScrollIntoView(ctx, site.FormModal); err != nil {
		d.log.WithError(err).Debug("Could not scroll form into view")
	}

	questions, err := d.page.Texts(ctx, site.Questions)
	if err != nil {
		d.artifacts.HTML(ctx, d.page, artifacts.FormHTML)
		return report, fmt.Errorf("failed to read form questions: %w", err)
	}
	d.log.Debugf("Found %d question labels", len(questions))

	for i, raw := range questions {
		question := strings.TrimSpace(raw)
		if question == "" {
			continue
		}

		entry, ok := d.answers.Match(question)
		if !ok {
			d.log.Debugf("No answer for question: %s", question)
			report.Skipped = append(report.Skipped, question)
			continue
		}

		filled, err := d.page.FillNearest(ctx, site.Questions, i, site.FormGroup, site.AnswerField, entry.Answer)
		if err != nil {
			d.artifacts.HTML(ctx, d.page, artifacts.FormHTML)
			return report, fmt.Errorf("failed to answer %q: %w", question, err)
		}
		if !filled {
			d.log.Debugf("No field next to question: %s", question)
			report.Skipped = append(report.Skipped, question)
			continue
		}

		d.log.WithField("phrase", entry.Phrase).Infof("Answered question: %s", question)
		report.Answered = append(report.Answered, question)
	}

	d.log.Infof("Filled %d of %d questions", len(report.Answered), len(report.Answered)+len(report.Skipped))
	return report, nil
}
