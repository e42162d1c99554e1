package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/apply4me/internal/artifacts"
	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/config"
	"github.com/ibeckermayer/apply4me/internal/listing"
	"github.com/ibeckermayer/apply4me/internal/notifier"
	"github.com/ibeckermayer/apply4me/internal/site"
	"github.com/ibeckermayer/apply4me/internal/store"
	"github.com/ibeckermayer/apply4me/internal/types"
)

const (
	homeURL     = "https://example.test/"
	listingsURL = "https://example.test/internships"
	detailURL   = "https://example.test/internship/detail/backend"
)

const homeHTML = `<html><body>
<button data-target="#login-modal">Login</button>
<div id="login-modal">
	<input id="modal_email"><input id="modal_password" type="password">
	<button id="modal_login_submit">Login</button>
</div>
</body></html>`

const listingsHTML = `<html><body>
<div class="internship_meta">Job: Sales Executive</div>
<div class="internship_meta">Internship: Backend (Remote)</div>
</body></html>`

const detailHTML = `<html><body>
<h1>Backend</h1>
<button id="apply_now">Apply now</button>
</body></html>`

const formHTML = `<div id="easy_apply_modal">
	<div class="form-group">
		<label>What is your availability?</label>
		<input type="text" id="availability">
	</div>
	<button id="submit">Submit</button>
</div>`

// trackedPage records whether the session closed it.
type trackedPage struct {
	*browser.SnapshotPage
	closed bool
}

func (p *trackedPage) Close() error {
	p.closed = true
	return p.SnapshotPage.Close()
}

// newSite scripts the whole site: login, listings, one listing that
// accepts applications, and one follow-up offer.
func newSite(t *testing.T, listings string, offers int) *trackedPage {
	t.Helper()
	p, err := browser.NewSnapshotPage("about:blank", "<html><body></body></html>")
	require.NoError(t, err)
	p.Route(homeURL, homeHTML)
	p.Route(listingsURL, listings)

	p.OnClick(site.Listing, func(p *browser.SnapshotPage) {
		require.NoError(t, p.Load(detailURL, detailHTML))
	})
	p.OnClick(site.ApplyNow, func(p *browser.SnapshotPage) {
		p.Append("body", formHTML)
	})
	p.OnClick(site.Submit, func(p *browser.SnapshotPage) {
		more := ""
		if offers > 0 {
			more = `<button>Continue applying</button>`
		}
		p.Append("body", `<div class="success-message">Submitted`+more+`</div>`)
	})
	p.OnClick(site.ContinueApplying, func(p *browser.SnapshotPage) {
		offers--
		require.NoError(t, p.Load(detailURL, detailHTML))
	})
	return &trackedPage{SnapshotPage: p}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site = config.SiteConfig{HomeURL: homeURL, ListingsURL: listingsURL}
	cfg.Credentials = config.CredentialsConfig{Email: "me@example.test", Password: "hunter2"}
	cfg.Timeouts = config.TimeoutsConfig{}
	cfg.Debug.ArtifactDir = t.TempDir()
	return cfg
}

type fakeSender struct {
	subjects []string
}

func (f *fakeSender) Send(to, subject, htmlBody, plainBody string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func newApp(t *testing.T, cfg *config.Config, page browser.Page, st *store.Store, n *notifier.Notifier) *App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a, err := New(cfg, func(context.Context) (browser.Page, error) { return page, nil }, st, n, logrus.NewEntry(logger))
	require.NoError(t, err)
	return a
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunAppliesToFirstInternship(t *testing.T) {
	cfg := testConfig(t)
	page := newSite(t, listingsHTML, 0)
	st := newStore(t)
	sender := &fakeSender{}

	result, err := newApp(t, cfg, page, st, notifier.New(sender, "me@example.test")).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Attempts, 1)
	a := result.Attempts[0]
	assert.Equal(t, "Internship: Backend (Remote)", a.Listing)
	assert.Equal(t, detailURL, a.URL)
	assert.Equal(t, types.StatusSubmitted, a.Status)
	assert.Equal(t, "I am available full-time for the next 6 months.", page.Value("#availability"))
	assert.True(t, page.closed)

	assert.Equal(t, []string{homeURL, listingsURL}, page.Targets("navigate"))
	assert.Equal(t, []string{"apply4me - 1 application submitted, " + result.StartedAt.In(mustKolkata(t)).Format("Jan 2")}, sender.subjects)

	runs, err := st.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Submitted)
	assert.Empty(t, runs[0].Error)

	saved, err := st.RunAttempts(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, []string{"What is your availability?"}, saved[0].Answered)
}

func TestRunContinuesApplying(t *testing.T) {
	cfg := testConfig(t)
	cfg.Apply.ContinueApplying = true
	page := newSite(t, listingsHTML, 2)

	result, err := newApp(t, cfg, page, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Attempts, 3)
	assert.Equal(t, 3, result.Submitted())
}

func TestRunHonorsApplicationLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Apply.ContinueApplying = true
	cfg.Apply.MaxApplications = 2
	page := newSite(t, listingsHTML, 10)

	result, err := newApp(t, cfg, page, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Attempts, 2)
}

func TestRunWithoutListings(t *testing.T) {
	cfg := testConfig(t)
	page := newSite(t, `<html><body><p>Nothing here</p></body></html>`, 0)
	st := newStore(t)

	result, err := newApp(t, cfg, page, st, nil).Run(context.Background())
	require.ErrorIs(t, err, listing.ErrNoListings)
	assert.Equal(t, "no internships available", result.Error)
	assert.Empty(t, result.Attempts)
	assert.True(t, page.closed, "browser is closed on failure")

	runs, err := st.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "no internships available", runs[0].Error)
	assert.True(t, runs[0].Finished())
}

func TestRunRecordsFailedApplication(t *testing.T) {
	cfg := testConfig(t)
	page := newSite(t, listingsHTML, 0)
	page.OnClick(site.Listing, func(p *browser.SnapshotPage) {
		p.Remove("#apply_now")
	})

	result, err := newApp(t, cfg, page, nil, nil).Run(context.Background())
	require.Error(t, err)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, types.StatusFailed, result.Attempts[0].Status)
	assert.Equal(t, 1, result.Failed())

	_, statErr := os.Stat(filepath.Join(cfg.Debug.ArtifactDir, artifacts.ApplicationHTML))
	assert.NoError(t, statErr)
}

func TestRunLaunchFailure(t *testing.T) {
	cfg := testConfig(t)
	logger, _ := test.NewNullLogger()
	boom := errors.New("chrome not found")
	a, err := New(cfg, func(context.Context) (browser.Page, error) { return nil, boom }, nil, nil, logrus.NewEntry(logger))
	require.NoError(t, err)

	result, err := a.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, result.Error, "chrome not found")
	assert.False(t, result.FinishedAt.IsZero())
}

func TestNewRejectsEmptyPhrase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Answers = []config.AnswerConfig{{Phrase: " ", Answer: "x"}}
	logger, _ := test.NewNullLogger()
	_, err := New(cfg, nil, nil, nil, logrus.NewEntry(logger))
	assert.Error(t, err)
}

func mustKolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}
