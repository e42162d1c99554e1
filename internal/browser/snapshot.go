package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotRendered is returned by SnapshotPage for operations that need a
// rendering engine.
var ErrNotRendered = errors.New("snapshot pages are not rendered")

var _ Page = (*SnapshotPage)(nil)

// Event is a journal entry of an operation performed on a SnapshotPage.
type Event struct {
	Action string
	Target string
}

// SnapshotPage is a Page over static HTML documents. Waits never block: a
// locator either matches now or the wait fails with ErrTimeout. Clicks run
// hooks registered with OnClick, which is how multi-step flows are scripted.
type SnapshotPage struct {
	url     string
	doc     *goquery.Document
	routes  map[string]string
	hooks   map[string][]func(*SnapshotPage)
	cookies []Cookie
	journal []Event
}

// NewSnapshotPage returns a page positioned at url showing html.
func NewSnapshotPage(url, html string) (*SnapshotPage, error) {
	p := &SnapshotPage{
		routes: make(map[string]string),
		hooks:  make(map[string][]func(*SnapshotPage)),
	}
	if err := p.Load(url, html); err != nil {
		return nil, err
	}
	return p, nil
}

// Load replaces the current document.
func (p *SnapshotPage) Load(url, html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse snapshot of %s: %w", url, err)
	}
	p.url = url
	p.doc = doc
	return nil
}

// Route registers the document served when url is navigated to.
func (p *SnapshotPage) Route(url, html string) {
	p.routes[url] = html
}

// OnClick registers fn to run after any match of loc is clicked.
func (p *SnapshotPage) OnClick(loc Locator, fn func(*SnapshotPage)) {
	key := loc.String()
	p.hooks[key] = append(p.hooks[key], fn)
}

// Append appends html to every element matching css.
func (p *SnapshotPage) Append(css, html string) {
	p.doc.Find(css).AppendHtml(html)
}

// Remove deletes every element matching css.
func (p *SnapshotPage) Remove(css string) {
	p.doc.Find(css).Remove()
}

// Value returns the current value of the first form field matching css.
func (p *SnapshotPage) Value(css string) string {
	sel := p.doc.Find(css).First()
	if goquery.NodeName(sel) == "textarea" {
		return sel.Text()
	}
	v, _ := sel.Attr("value")
	return v
}

// Targets returns the targets of journal entries with the given action.
func (p *SnapshotPage) Targets(action string) []string {
	var targets []string
	for _, e := range p.journal {
		if e.Action == action {
			targets = append(targets, e.Target)
		}
	}
	return targets
}

func (p *SnapshotPage) record(action, target string) {
	p.journal = append(p.journal, Event{Action: action, Target: target})
}

func (p *SnapshotPage) find(loc Locator) *goquery.Selection {
	sel := p.doc.Find(loc.CSS)
	if loc.Text == "" {
		return sel
	}
	want := strings.ToLower(loc.Text)
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.Text()), want)
	})
}

// visible approximates rendering: hidden inputs, the hidden attribute, and
// inline display:none or visibility:hidden on the element or an ancestor.
func visible(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "input" {
		if t, _ := s.Attr("type"); strings.EqualFold(t, "hidden") {
			return false
		}
	}
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		style, _ := cur.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func (p *SnapshotPage) runHooks(loc Locator) {
	for _, fn := range p.hooks[loc.String()] {
		fn(p)
	}
}

func (p *SnapshotPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("navigate", url)
	if html, ok := p.routes[url]; ok {
		return p.Load(url, html)
	}
	if url == p.url {
		return nil
	}
	return fmt.Errorf("failed to navigate to %s: no snapshot routed", url)
}

func (p *SnapshotPage) ClickNavigate(ctx context.Context, loc Locator, timeout time.Duration) error {
	return p.Click(ctx, loc, 0)
}

func (p *SnapshotPage) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return ctx.Err()
}

func (p *SnapshotPage) Wait(ctx context.Context, loc Locator, state State, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("wait", loc.String())
	sel := p.find(loc)
	if state == Visible {
		sel = sel.FilterFunction(func(_ int, s *goquery.Selection) bool { return visible(s) })
	}
	if sel.Length() == 0 {
		return timeoutError(fmt.Sprintf("%s to be %s", loc, state), timeout)
	}
	return nil
}

func (p *SnapshotPage) Count(ctx context.Context, loc Locator) (int, error) {
	return p.find(loc).Length(), ctx.Err()
}

func (p *SnapshotPage) Texts(ctx context.Context, loc Locator) ([]string, error) {
	return p.find(loc).Map(func(_ int, s *goquery.Selection) string { return s.Text() }), ctx.Err()
}

func (p *SnapshotPage) Click(ctx context.Context, loc Locator, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.find(loc).Eq(index).Length() == 0 {
		return fmt.Errorf("failed to click %s: no element %d", loc, index)
	}
	p.record("click", loc.String())
	p.runHooks(loc)
	return nil
}

func (p *SnapshotPage) Type(ctx context.Context, loc Locator, text string) error {
	if loc.Text != "" {
		return fmt.Errorf("cannot type into text locator %s", loc)
	}
	sel := p.find(loc).First()
	if sel.Length() == 0 {
		return fmt.Errorf("failed to type into %s: no element", loc)
	}
	p.record("type", loc.String())
	setValue(sel, text)
	return ctx.Err()
}

func setValue(sel *goquery.Selection, value string) {
	if goquery.NodeName(sel) == "textarea" {
		sel.SetText(value)
		return
	}
	sel.SetAttr("value", value)
}

func (p *SnapshotPage) FillNearest(ctx context.Context, loc Locator, index int, group, field, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	el := p.find(loc).Eq(index)
	if el.Length() == 0 {
		return false, fmt.Errorf("failed to fill field near %s: no element %d", loc, index)
	}
	input := el.Closest(group).Find(field).First()
	if input.Length() == 0 {
		return false, nil
	}
	p.record("fill", loc.String())
	setValue(input, value)
	return true, nil
}

func (p *SnapshotPage) ScrollIntoView(ctx context.Context, loc Locator) error {
	return ctx.Err()
}

func (p *SnapshotPage) Describe(ctx context.Context, loc Locator) ([]ElementInfo, error) {
	var infos []ElementInfo
	p.find(loc).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		class, _ := s.Attr("class")
		typ, _ := s.Attr("type")
		placeholder, _ := s.Attr("placeholder")
		if typ == "" && goquery.NodeName(s) == "textarea" {
			typ = "textarea"
		}
		infos = append(infos, ElementInfo{
			Tag:         goquery.NodeName(s),
			ID:          id,
			Class:       class,
			Text:        strings.TrimSpace(s.Text()),
			Type:        typ,
			Placeholder: placeholder,
			Visible:     visible(s),
		})
	})
	return infos, ctx.Err()
}

func (p *SnapshotPage) HTML(ctx context.Context) (string, error) {
	html, err := p.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, ctx.Err()
}

func (p *SnapshotPage) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, ErrNotRendered
}

func (p *SnapshotPage) Location(ctx context.Context) (string, error) {
	return p.url, ctx.Err()
}

func (p *SnapshotPage) Cookies(ctx context.Context) ([]Cookie, error) {
	return append([]Cookie(nil), p.cookies...), ctx.Err()
}

func (p *SnapshotPage) SetCookies(ctx context.Context, cookies []Cookie) error {
	p.cookies = append(p.cookies, cookies...)
	return ctx.Err()
}

func (p *SnapshotPage) Close() error {
	return nil
}
