package artifacts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/apply4me/internal/browser"
)

const page = `<html><body>
<div class="modal" id="exit"><button class="btn">Cancel</button></div>
<input type="text" id="name" placeholder="Name">
<textarea id="cover"></textarea>
</body></html>`

func newRecorder(t *testing.T) (*Recorder, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(filepath.Join(t.TempDir(), "artifacts"), logrus.NewEntry(logger)), hook
}

func newPage(t *testing.T) *browser.SnapshotPage {
	t.Helper()
	p, err := browser.NewSnapshotPage("https://example.test/", page)
	require.NoError(t, err)
	return p
}

func TestHTML(t *testing.T) {
	r, _ := newRecorder(t)

	path := r.HTML(context.Background(), newPage(t), FormHTML)
	require.Equal(t, filepath.Join(r.Dir(), FormHTML), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `id="cover"`)
}

func TestScreenshotFailureIsLogged(t *testing.T) {
	r, hook := newRecorder(t)

	path := r.Screenshot(context.Background(), newPage(t), ErrorScreenshot)
	assert.Empty(t, path)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	_, err := os.Stat(filepath.Join(r.Dir(), ErrorScreenshot))
	assert.True(t, os.IsNotExist(err))
}

func TestDumpInputs(t *testing.T) {
	r, _ := newRecorder(t)

	path := r.DumpInputs(context.Background(), newPage(t))
	require.NotEmpty(t, path)

	var dump InputDump
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &dump))

	require.Len(t, dump.Inputs, 1)
	assert.Equal(t, "name", dump.Inputs[0].ID)
	assert.Equal(t, "Name", dump.Inputs[0].Placeholder)
	require.Len(t, dump.TextAreas, 1)
	assert.Equal(t, "cover", dump.TextAreas[0].ID)
}

func TestDumpElements(t *testing.T) {
	r, _ := newRecorder(t)

	path := r.DumpElements(context.Background(), newPage(t))
	require.NotEmpty(t, path)

	var dump ElementDump
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &dump))

	require.Len(t, dump.Buttons, 1)
	assert.Equal(t, "Cancel", dump.Buttons[0].Text)
	require.Len(t, dump.Modals, 1)
	assert.Equal(t, "exit", dump.Modals[0].ID)
}

func TestWriteFailureIsNotFatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	logger, hook := test.NewNullLogger()
	r := New(filepath.Join(blocker, "sub"), logrus.NewEntry(logger))

	assert.Empty(t, r.JSON(InputsJSON, map[string]int{"a": 1}))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
