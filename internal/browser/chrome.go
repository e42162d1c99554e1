package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

const waitPoll = 100 * time.Millisecond

var _ Page = (*Chrome)(nil)

// Chrome is a Page backed by a single chromedp tab.
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	idle        *idleTracker
}

// Launch starts a browser process and opens its first tab. The browser
// outlives ctx's cancellation until Close.
func Launch(ctx context.Context, lo LaunchOptions) (*Chrome, error) {
	allocCtx, cancelAlloc := newAllocator(ctx, lo)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		idle:        newIdleTracker(),
	}
	chromedp.ListenTarget(tabCtx, c.idle.handle)

	// First Run starts the browser
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return c, nil
}

// newAllocator detaches the browser process from ctx's cancellation.
func newAllocator(ctx context.Context, lo LaunchOptions) (context.Context, context.CancelFunc) {
	return chromedp.NewExecAllocator(context.WithoutCancel(ctx), Options(lo)...)
}

// Close shuts down the tab and the browser process.
func (c *Chrome) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}

// tabContext derives a tab context bounded by ctx's cancellation and deadline.
func (c *Chrome) tabContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		tabCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		tabCtx, cancel = context.WithDeadline(c.ctx, deadline)
	} else {
		tabCtx, cancel = context.WithCancel(c.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return tabCtx, func() {
		stop()
		cancel()
	}
}

func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, cancel := c.tabContext(ctx)
	defer cancel()
	return chromedp.Run(tabCtx, actions...)
}

func (c *Chrome) evaluate(ctx context.Context, js string, res any) error {
	return c.run(ctx, chromedp.Evaluate(js, res))
}

func withTimeout(ctx context.Context, err error, what string, d time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return timeoutError(what, d)
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	start := time.Now()
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.idle.reset()
	if err := c.run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, withTimeout(ctx, err, "navigation", timeout))
	}
	return c.idle.wait(ctx, navigationInflight, timeout-time.Since(start))
}

func (c *Chrome) ClickNavigate(ctx context.Context, loc Locator, timeout time.Duration) error {
	start := time.Now()
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tabCtx, cancelTab := c.tabContext(navCtx)
	defer cancelTab()

	var ok bool
	if _, err := chromedp.RunResponse(tabCtx, chromedp.Evaluate(script(clickJS, loc, 0), &ok)); err != nil {
		return fmt.Errorf("failed to click %s: %w", loc, withTimeout(ctx, err, "navigation", timeout))
	}
	return c.idle.wait(ctx, navigationInflight, timeout-time.Since(start))
}

func (c *Chrome) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return c.idle.wait(ctx, 0, timeout)
}

func (c *Chrome) Wait(ctx context.Context, loc Locator, state State, timeout time.Duration) error {
	js := script(countJS, loc, state.String())
	return poll(ctx, timeout, fmt.Sprintf("%s to be %s", loc, state), func(ctx context.Context) (bool, error) {
		var n int
		if err := c.evaluate(ctx, js, &n); err != nil {
			return false, fmt.Errorf("failed to query %s: %w", loc, err)
		}
		return n > 0, nil
	})
}

// poll runs check every waitPoll until it reports true. Every check runs
// under the same timeout as the wait itself.
func poll(ctx context.Context, timeout time.Duration, what string, check func(context.Context) (bool, error)) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(waitPoll)
	defer ticker.Stop()

	for {
		ok, err := check(waitCtx)
		if err != nil {
			return withTimeout(ctx, err, what, timeout)
		}
		if ok {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return withTimeout(ctx, waitCtx.Err(), what, timeout)
		case <-ticker.C:
		}
	}
}

func (c *Chrome) Count(ctx context.Context, loc Locator) (int, error) {
	var n int
	if err := c.evaluate(ctx, script(countJS, loc, Attached.String()), &n); err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", loc, err)
	}
	return n, nil
}

func (c *Chrome) Texts(ctx context.Context, loc Locator) ([]string, error) {
	var texts []string
	if err := c.evaluate(ctx, script(textsJS, loc), &texts); err != nil {
		return nil, fmt.Errorf("failed to read text of %s: %w", loc, err)
	}
	return texts, nil
}

func (c *Chrome) Click(ctx context.Context, loc Locator, index int) error {
	var ok bool
	if err := c.evaluate(ctx, script(clickJS, loc, index), &ok); err != nil {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}
	return nil
}

func (c *Chrome) Type(ctx context.Context, loc Locator, text string) error {
	if loc.Text != "" {
		return fmt.Errorf("cannot type into text locator %s", loc)
	}
	if err := c.run(ctx, chromedp.SendKeys(loc.CSS, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", loc, err)
	}
	return nil
}

func (c *Chrome) FillNearest(ctx context.Context, loc Locator, index int, group, field, value string) (bool, error) {
	var filled bool
	if err := c.evaluate(ctx, script(fillNearestJS, loc, index, group, field, value), &filled); err != nil {
		return false, fmt.Errorf("failed to fill field near %s: %w", loc, err)
	}
	return filled, nil
}

func (c *Chrome) ScrollIntoView(ctx context.Context, loc Locator) error {
	var found bool
	if err := c.evaluate(ctx, script(scrollJS, loc), &found); err != nil {
		return fmt.Errorf("failed to scroll to %s: %w", loc, err)
	}
	return nil
}

func (c *Chrome) Describe(ctx context.Context, loc Locator) ([]ElementInfo, error) {
	var infos []ElementInfo
	if err := c.evaluate(ctx, script(describeJS, loc), &infos); err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", loc, err)
	}
	return infos, nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 yields PNG
	if err := c.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (c *Chrome) Location(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, Cookie{
			Name:     rc.Name,
			Value:    rc.Value,
			Domain:   rc.Domain,
			Path:     rc.Path,
			Expires:  rc.Expires,
			Secure:   rc.Secure,
			HTTPOnly: rc.HTTPOnly,
		})
	}
	return cookies, nil
}

func (c *Chrome) SetCookies(ctx context.Context, cookies []Cookie) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ck := range cookies {
			set := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithSecure(ck.Secure).
				WithHTTPOnly(ck.HTTPOnly)
			if ck.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
				set = set.WithExpires(&expires)
			}
			if err := set.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", ck.Name, err)
			}
		}
		return nil
	}))
}
