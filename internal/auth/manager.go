// Package auth opens an authenticated session on the listing site.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/site"
)

// Credentials is the identifier/secret pair used once at login
type Credentials struct {
	Email    string
	Password string
}

// Options configures the session bootstrap
type Options struct {
	HomeURL           string
	ListingsURL       string
	NavigationTimeout time.Duration
	ListingsTimeout   time.Duration
}

// Manager handles authentication against the listing site
type Manager struct {
	creds       Credentials
	opts        Options
	cookieStore *CookieStore // nil disables session reuse
	log         *logrus.Entry
}

// NewManager creates a new auth manager
func NewManager(creds Credentials, opts Options, cookieStore *CookieStore, log *logrus.Entry) *Manager {
	return &Manager{creds: creds, opts: opts, cookieStore: cookieStore, log: log}
}

// Bootstrap authenticates page and leaves it on the listings page.
func (m *Manager) Bootstrap(ctx context.Context, page browser.Page) error {
	restored, err := m.restore(ctx, page)
	if err != nil {
		m.log.WithError(err).Warn("Could not restore saved session, logging in")
	}
	if !restored {
		if err := m.Login(ctx, page); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}

	m.log.Info("Navigating to internships...")
	if err := page.Navigate(ctx, m.opts.ListingsURL, m.opts.ListingsTimeout); err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}
	return nil
}

// Login signs in through the site's login dialog.
func (m *Manager) Login(ctx context.Context, page browser.Page) error {
	m.log.Info("Logging in...")
	if err := page.Navigate(ctx, m.opts.HomeURL, m.opts.NavigationTimeout); err != nil {
		return err
	}

	m.acceptCookies(ctx, page)

	if err := page.Click(ctx, site.LoginOpen, 0); err != nil {
		return fmt.Errorf("failed to open login dialog: %w", err)
	}
	if err := page.Type(ctx, site.LoginEmail, m.creds.Email); err != nil {
		return err
	}
	if err := page.Type(ctx, site.LoginPassword, m.creds.Password); err != nil {
		return err
	}
	if err := page.ClickNavigate(ctx, site.LoginSubmit, m.opts.NavigationTimeout); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}

	if m.cookieStore != nil {
		if err := m.saveCookies(ctx, page); err != nil {
			m.log.WithError(err).Warn("Could not save session cookies")
		}
	}
	return nil
}

// acceptCookies dismisses the consent dialog when one is shown.
func (m *Manager) acceptCookies(ctx context.Context, page browser.Page) {
	n, err := page.Count(ctx, site.CookieAccept)
	if err != nil || n == 0 {
		m.log.Info("Cookie consent button not found, skipping...")
		return
	}
	if err := page.Click(ctx, site.CookieAccept, 0); err != nil {
		m.log.WithError(err).Info("Cookie consent button could not be clicked, skipping...")
	}
}

func (m *Manager) saveCookies(ctx context.Context, page browser.Page) error {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return err
	}
	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	m.log.Debugf("Saved %d session cookies", len(cookies))
	return nil
}

// restore injects saved cookies and reports whether the site accepted them.
// A home page that still offers the login dialog means the session is stale.
func (m *Manager) restore(ctx context.Context, page browser.Page) (bool, error) {
	if m.cookieStore == nil || !m.cookieStore.IsValid() {
		return false, nil
	}
	stored, err := m.cookieStore.Load()
	if err != nil {
		return false, err
	}
	if err := page.SetCookies(ctx, stored.Cookies); err != nil {
		return false, err
	}
	if err := page.Navigate(ctx, m.opts.HomeURL, m.opts.NavigationTimeout); err != nil {
		return false, err
	}

	n, err := page.Count(ctx, site.LoginOpen)
	if err != nil {
		return false, err
	}
	if n > 0 {
		m.log.Info("Saved session has expired")
		return false, m.cookieStore.Clear()
	}

	m.log.Info("Restored saved session")
	return true, nil
}

// Logout clears stored session cookies
func (m *Manager) Logout() error {
	if m.cookieStore == nil {
		return nil
	}
	return m.cookieStore.Clear()
}
