// Package browser provides the page handle shared by every step of an
// application session, backed either by chromedp or by a static DOM snapshot.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LaunchOptions controls how the Chrome process is started.
type LaunchOptions struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
}

// Options returns chromedp allocator options with anti-bot-detection measures.
// All browser instances should use this to ensure consistent stealth configuration.
func Options(lo LaunchOptions) []chromedp.ExecAllocatorOption {
	ua := lo.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	width, height := lo.WindowWidth, lo.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", lo.Headless),

		// Prevent navigator.webdriver = true detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(ua),
		chromedp.WindowSize(width, height),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if lo.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	} else {
		opts = append(opts, chromedp.Flag("start-maximized", true))
	}

	return opts
}
