// Package artifacts writes diagnostic snapshots of the page when a step fails.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/apply4me/internal/browser"
	"github.com/ibeckermayer/apply4me/internal/site"
)

// Fixed artifact names. Each run overwrites the previous run's files.
const (
	ErrorScreenshot       = "error.png"
	ApplicationHTML       = "application-debug.html"
	ApplicationScreenshot = "application-error.png"
	FormHTML              = "form-debug.html"
	SubmissionHTML        = "submission-debug.html"
	SubmissionScreenshot  = "submission-error.png"
	InputsJSON            = "debug-inputs.json"
	ElementsJSON          = "debug-elements.json"
)

// Recorder writes artifacts into one directory. Every write is best effort:
// failures are logged and reported, never fatal to the caller.
type Recorder struct {
	dir string
	log *logrus.Entry
}

// New creates a recorder writing into dir
func New(dir string, log *logrus.Entry) *Recorder {
	if dir == "" {
		dir = "."
	}
	return &Recorder{dir: dir, log: log}
}

// Dir returns the artifact directory
func (r *Recorder) Dir() string {
	return r.dir
}

func (r *Recorder) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// HTML saves the full page content under name.
func (r *Recorder) HTML(ctx context.Context, page browser.Page, name string) string {
	html, err := page.HTML(ctx)
	if err != nil {
		r.log.WithError(err).Warnf("Could not capture page HTML for %s", name)
		return ""
	}
	path, err := r.write(name, []byte(html))
	if err != nil {
		r.log.WithError(err).Warn("Could not save page HTML")
		return ""
	}
	r.log.Infof("Saved page HTML to %s for analysis", path)
	return path
}

// Screenshot saves a full-page screenshot under name.
func (r *Recorder) Screenshot(ctx context.Context, page browser.Page, name string) string {
	img, err := page.Screenshot(ctx)
	if err != nil {
		r.log.WithError(err).Warnf("Could not capture screenshot for %s", name)
		return ""
	}
	path, err := r.write(name, img)
	if err != nil {
		r.log.WithError(err).Warn("Could not save screenshot")
		return ""
	}
	r.log.Infof("Saved screenshot to %s", path)
	return path
}

// JSON saves v indented under name.
func (r *Recorder) JSON(name string, v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.log.WithError(err).Warnf("Could not encode %s", name)
		return ""
	}
	path, err := r.write(name, data)
	if err != nil {
		r.log.WithError(err).Warn("Could not save debug information")
		return ""
	}
	r.log.Infof("Saved debug information to %s", path)
	return path
}

// InputDump lists the form fields present on the page
type InputDump struct {
	Inputs    []browser.ElementInfo `json:"inputs"`
	TextAreas []browser.ElementInfo `json:"textAreas"`
}

// ElementDump lists the buttons and modals present on the page
type ElementDump struct {
	Buttons []browser.ElementInfo `json:"buttons"`
	Modals  []browser.ElementInfo `json:"modals"`
}

// DumpInputs captures every input and text area to InputsJSON.
func (r *Recorder) DumpInputs(ctx context.Context, page browser.Page) string {
	r.log.Debug("Capturing all visible input fields and text areas on the page")
	var dump InputDump
	var err error
	if dump.Inputs, err = page.Describe(ctx, site.Inputs); err != nil {
		r.log.WithError(err).Warn("Error while capturing visible inputs")
		return ""
	}
	if dump.TextAreas, err = page.Describe(ctx, site.TextAreas); err != nil {
		r.log.WithError(err).Warn("Error while capturing visible text areas")
		return ""
	}
	r.log.WithFields(logrus.Fields{"inputs": len(dump.Inputs), "textareas": len(dump.TextAreas)}).Debug("Visible input fields")
	return r.JSON(InputsJSON, dump)
}

// DumpElements captures every button and modal to ElementsJSON.
func (r *Recorder) DumpElements(ctx context.Context, page browser.Page) string {
	r.log.Debug("Capturing all visible buttons and modals on the page")
	var dump ElementDump
	var err error
	if dump.Buttons, err = page.Describe(ctx, site.Buttons); err != nil {
		r.log.WithError(err).Warn("Error while capturing visible buttons")
		return ""
	}
	if dump.Modals, err = page.Describe(ctx, site.Modals); err != nil {
		r.log.WithError(err).Warn("Error while capturing visible modals")
		return ""
	}
	return r.JSON(ElementsJSON, dump)
}
