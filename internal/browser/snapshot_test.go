package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formHTML = `<html><body>
<div id="modal">
	<div class="form-group">
		<label>What is your availability?</label>
		<input type="text" id="availability">
	</div>
	<div class="form-group">
		<label class="question">Cover letter</label>
		<textarea id="cover"></textarea>
	</div>
	<div class="form-group">
		<label>Orphan question</label>
	</div>
	<button class="btn" style="display: none">Hidden</button>
	<button class="btn">Apply Now</button>
	<input type="hidden" id="token" value="x">
</div>
</body></html>`

func newFormPage(t *testing.T) *SnapshotPage {
	t.Helper()
	p, err := NewSnapshotPage("https://example.test/form", formHTML)
	require.NoError(t, err)
	return p
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "#submit", CSS("#submit").String())
	assert.Equal(t, `button:has-text("Cancel")`, CSS("button").HasText("Cancel").String())
}

func TestScriptEncodesArguments(t *testing.T) {
	js := script(countJS, CSS(`a[href*="apply"]`).HasText(`Say "hi"`), "visible")
	assert.Contains(t, js, `{"CSS":"a[href*=\"apply\"]","Text":"Say \"hi\""}`)
	assert.True(t, strings.HasSuffix(js, `"visible");})()`))
}

func TestSnapshotTextsAndCount(t *testing.T) {
	ctx := context.Background()
	p := newFormPage(t)

	texts, err := p.Texts(ctx, CSS("label"))
	require.NoError(t, err)
	assert.Equal(t, []string{"What is your availability?", "Cover letter", "Orphan question"}, texts)

	n, err := p.Count(ctx, CSS("button").HasText("apply now"))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "text filter is case-insensitive")
}

func TestSnapshotWaitVisibility(t *testing.T) {
	ctx := context.Background()
	p := newFormPage(t)

	assert.NoError(t, p.Wait(ctx, CSS("button").HasText("Apply"), Visible, time.Second))
	assert.ErrorIs(t, p.Wait(ctx, CSS("button").HasText("Hidden"), Visible, time.Second), ErrTimeout)
	assert.NoError(t, p.Wait(ctx, CSS("button").HasText("Hidden"), Attached, time.Second))
	assert.ErrorIs(t, p.Wait(ctx, CSS("#token"), Visible, time.Second), ErrTimeout)
	assert.ErrorIs(t, p.Wait(ctx, CSS("#missing"), Attached, time.Second), ErrTimeout)
}

func TestSnapshotFillNearest(t *testing.T) {
	ctx := context.Background()
	p := newFormPage(t)
	labels := CSS("label")

	filled, err := p.FillNearest(ctx, labels, 0, ".form-group", "input, textarea", "full-time")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, "full-time", p.Value("#availability"))

	filled, err = p.FillNearest(ctx, labels, 1, ".form-group", "input, textarea", "hello")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, "hello", p.Value("#cover"))

	filled, err = p.FillNearest(ctx, labels, 2, ".form-group", "input, textarea", "nothing")
	require.NoError(t, err)
	assert.False(t, filled)

	_, err = p.FillNearest(ctx, labels, 9, ".form-group", "input, textarea", "nothing")
	assert.Error(t, err)
}

func TestSnapshotClickRunsHooks(t *testing.T) {
	ctx := context.Background()
	p := newFormPage(t)
	apply := CSS("button").HasText("Apply Now")

	p.OnClick(apply, func(p *SnapshotPage) {
		p.Append("body", `<div class="success-message">Done</div>`)
	})

	require.NoError(t, p.Click(ctx, apply, 0))
	assert.NoError(t, p.Wait(ctx, CSS(".success-message"), Visible, time.Second))
	assert.Equal(t, []string{apply.String()}, p.Targets("click"))

	assert.Error(t, p.Click(ctx, CSS("#missing"), 0))
}

func TestSnapshotNavigateRoutes(t *testing.T) {
	ctx := context.Background()
	p := newFormPage(t)
	p.Route("https://example.test/next", `<html><body><h1>Next</h1></body></html>`)

	require.NoError(t, p.Navigate(ctx, "https://example.test/next", time.Second))
	loc, err := p.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/next", loc)

	texts, err := p.Texts(ctx, CSS("h1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Next"}, texts)

	assert.Error(t, p.Navigate(ctx, "https://example.test/unknown", time.Second))
}

func TestSnapshotDescribeAndHTML(t *testing.T) {
	ctx := context.Background()
	p := newFormPage(t)

	infos, err := p.Describe(ctx, CSS("input, textarea"))
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, ElementInfo{Tag: "input", ID: "availability", Type: "text", Visible: true}, infos[0])
	assert.Equal(t, "textarea", infos[1].Type)
	assert.False(t, infos[2].Visible)

	html, err := p.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `id="availability"`)

	_, err = p.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrNotRendered)
}

func TestPause(t *testing.T) {
	assert.NoError(t, Pause(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pause(ctx, time.Hour), context.Canceled)
}
