// Package site holds the listing site's DOM contract.
//
// These are isolated here because the site changes its markup without
// notice. Update these when applying breaks.
package site

import "github.com/ibeckermayer/apply4me/internal/browser"

// Session bootstrap
var (
	CookieAccept  = browser.CSS("button").HasText("Accept")
	LoginOpen     = browser.CSS(`button[data-target="#login-modal"]`)
	LoginEmail    = browser.CSS("#modal_email")
	LoginPassword = browser.CSS("#modal_password")
	LoginSubmit   = browser.CSS("#modal_login_submit")
)

// Listings page
var (
	Listing = browser.CSS(".internship_meta")
)

// ListingKeyword is the lowercase text a listing entry must contain to be opened.
const ListingKeyword = "internship"

// Interstitial dialogs
var (
	ExitCancel   = browser.CSS("button").HasText("Cancel")
	CloseButtons = browser.CSS(`.modal-close, .close, [aria-label="Close"]`)
)

// Apply controls
var (
	ApplyNow = browser.CSS("#apply_now")

	// ApplyFallbacks are probed in order when ApplyNow is absent.
	ApplyFallbacks = []browser.Locator{
		browser.CSS("button.apply-now:not([disabled])"),
		browser.CSS("a.btn-apply"),
		browser.CSS(".btn-primary[href*='apply']"),
		browser.CSS("button").HasText("Apply Now"),
		browser.CSS("#apply_now"),
		browser.CSS("#continue_button"),
		browser.CSS(".modal .btn-primary"),
	}
)

// Application form
var (
	FormModal = browser.CSS("#easy_apply_modal")
	Questions = browser.CSS(".question-label, label, .form-question")
)

const (
	// FormGroup is the nearest ancestor holding a question's field.
	FormGroup = ".form-group"
	// AnswerField is the field inside FormGroup that receives the answer.
	AnswerField = "input, textarea"
)

// Submission
var (
	Submit  = browser.CSS("#submit")
	Success = browser.CSS(".success-message, .confirmation-modal")

	ContinueApplying = browser.CSS("button").HasText("Continue applying")
)

// Diagnostics
var (
	Inputs    = browser.CSS("input")
	TextAreas = browser.CSS("textarea")
	Buttons   = browser.CSS("button")
	Modals    = browser.CSS(".modal")
)
