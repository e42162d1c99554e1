package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://internshala.com/internships", cfg.Site.ListingsURL)
	assert.Equal(t, 3, cfg.Apply.PageLoadRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.PageLoad.Std())
	assert.Equal(t, 5*time.Second, cfg.Timeouts.ApplyProbe.Std())
	assert.Equal(t, 10*time.Second, cfg.Timeouts.SuccessVisible.Std())
	assert.False(t, cfg.Apply.ContinueApplying)
	assert.Zero(t, cfg.Apply.MaxApplications)

	require.Len(t, cfg.Answers, 3)
	assert.Equal(t, "start date", cfg.Answers[2].Phrase)
	assert.Equal(t, "2025-05-01", cfg.Answers[2].Answer)

	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateSchedule())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Apply.ContinueApplying = true
	cfg.Timeouts.CloseButton = Duration(750 * time.Millisecond)
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[apply]
continue_applying = true

[timeouts]
page_load = "45s"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Apply.ContinueApplying)
	assert.Equal(t, 3, cfg.Apply.PageLoadRetries)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.PageLoad.Std())
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Listings.Std())
	assert.Equal(t, Default().Answers, cfg.Answers)
}

func TestLoadAnswersReplaceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[answers]]
phrase = "notice period"
answer = "Immediately"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []AnswerConfig{{Phrase: "notice period", Answer: "Immediately"}}, cfg.Answers)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[timeouts]
page_load = "soon"
`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, os.IsNotExist(err))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Credentials.Email = "file@example.com"

	env := map[string]string{EnvPassword: "from-env"}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "file@example.com", cfg.Credentials.Email)
	assert.Equal(t, "from-env", cfg.Credentials.Password)
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty home url", func(c *Config) { c.Site.HomeURL = " " }},
		{"empty listings url", func(c *Config) { c.Site.ListingsURL = "" }},
		{"zero retries", func(c *Config) { c.Apply.PageLoadRetries = 0 }},
		{"negative cap", func(c *Config) { c.Apply.MaxApplications = -1 }},
		{"empty phrase", func(c *Config) { c.Answers = append(c.Answers, AnswerConfig{Answer: "x"}) }},
		{"email without host", func(c *Config) { c.Email.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateCredentials())
}

func TestValidateSchedule(t *testing.T) {
	cfg := Default()
	cfg.Schedule.Cron = "every day"
	assert.Error(t, cfg.ValidateSchedule())

	cfg = Default()
	cfg.Schedule.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.ValidateSchedule())
}

func TestPathsOverride(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join(DataDir(), "history.db"), cfg.StorePath())

	cfg.Store.Path = "/tmp/h.db"
	cfg.Session.CookiePath = "/tmp/c.json"
	assert.Equal(t, "/tmp/h.db", cfg.StorePath())
	assert.Equal(t, "/tmp/c.json", cfg.CookiePath())
}
