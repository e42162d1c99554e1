// Package listing finds and opens the first internship on the listings page.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/site"
	"github.com/ibeckermayer/apply4me/internal/types"
)

// ErrNoListings means the listings page offered nothing to apply to.
var ErrNoListings = errors.New("no internships available")

// Scanner classifies listing entries by their visible text
type Scanner struct {
	page   browser.Page
	settle time.Duration
	log    *logrus.Entry
}

// New creates a scanner. settle is the fixed delay after opening a listing.
func New(page browser.Page, settle time.Duration, log *logrus.Entry) *Scanner {
	return &Scanner{page: page, settle: settle, log: log}
}

// First returns the first entry, in document order, whose text contains the
// listing keyword.
func (s *Scanner) First(ctx context.Context) (types.Listing, error) {
	s.log.Info("Scanning internships...")

	texts, err := s.page.Texts(ctx, site.Listing)
	if err != nil {
		return types.Listing{}, fmt.Errorf("failed to read listings: %w", err)
	}
	if len(texts) == 0 {
		s.log.Info("No internships available")
		return types.Listing{}, ErrNoListings
	}

	for i, text := range texts {
		text = strings.TrimSpace(text)
		s.log.Debugf("Internship type: %s", text)

		if strings.Contains(strings.ToLower(text), site.ListingKeyword) {
			return types.Listing{Index: i, Text: text}, nil
		}
		s.log.Debug("Skipping non-internship entry...")
	}

	s.log.Info("No valid internships found to apply")
	return types.Listing{}, fmt.Errorf("%w: none of %d entries is an internship", ErrNoListings, len(texts))
}

// Open clicks the listing and waits for it to settle.
func (s *Scanner) Open(ctx context.Context, l types.Listing) error {
	s.log.WithField("listing", l.Text).Info("Opening a valid internship...")
	if err := s.page.Click(ctx, site.Listing, l.Index); err != nil {
		return fmt.Errorf("failed to open listing: %w", err)
	}
	return browser.Pause(ctx, s.settle)
}
