package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/robfig/cron/v3"
)

// AppName is used for XDG directory paths.
const AppName = "apply4me"

// Environment variables that override the configured credentials.
const (
	EnvEmail    = "APPLY4ME_EMAIL"
	EnvPassword = "APPLY4ME_PASSWORD"
)

// Config holds all application configuration
type Config struct {
	Version     int               `toml:"version"`
	Site        SiteConfig        `toml:"site"`
	Credentials CredentialsConfig `toml:"credentials"`
	Browser     BrowserConfig     `toml:"browser"`
	Apply       ApplyConfig       `toml:"apply"`
	Timeouts    TimeoutsConfig    `toml:"timeouts"`
	Answers     []AnswerConfig    `toml:"answers"`
	Session     SessionConfig     `toml:"session"`
	Debug       DebugConfig       `toml:"debug"`
	Store       StoreConfig       `toml:"store"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	Email       EmailConfig       `toml:"email"`
}

type SiteConfig struct {
	HomeURL     string `toml:"home_url"`
	ListingsURL string `toml:"listings_url"`
}

// CredentialsConfig is the identifier/secret pair used once at login.
type CredentialsConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

type BrowserConfig struct {
	Headless     bool   `toml:"headless"`
	UserAgent    string `toml:"user_agent"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
}

type ApplyConfig struct {
	// ContinueApplying keeps clicking "Continue applying" after the first submission.
	ContinueApplying bool `toml:"continue_applying"`
	// MaxApplications caps the repeat loop. 0 means no cap.
	MaxApplications int  `toml:"max_applications"`
	PageLoadRetries int  `toml:"page_load_retries"`
	DumpInputs      bool `toml:"dump_inputs"`
}

// TimeoutsConfig holds every fixed delay and bounded wait of an application session.
type TimeoutsConfig struct {
	Navigation     Duration `toml:"navigation"`
	Listings       Duration `toml:"listings"`
	ListingSettle  Duration `toml:"listing_settle"`
	PageLoad       Duration `toml:"page_load"`
	ExitDialog     Duration `toml:"exit_dialog"`
	CloseButton    Duration `toml:"close_button"`
	ApplyClick     Duration `toml:"apply_click"`
	ApplyProbe     Duration `toml:"apply_probe"`
	FormVisible    Duration `toml:"form_visible"`
	SubmitVisible  Duration `toml:"submit_visible"`
	SuccessVisible Duration `toml:"success_visible"`
	ContinueSettle Duration `toml:"continue_settle"`
	Run            Duration `toml:"run"`
}

// AnswerConfig maps a question phrase to its canned answer.
type AnswerConfig struct {
	Phrase string `toml:"phrase"`
	Answer string `toml:"answer"`
}

type SessionConfig struct {
	ReuseCookies bool   `toml:"reuse_cookies"`
	CookiePath   string `toml:"cookie_path"`
}

type DebugConfig struct {
	ArtifactDir string `toml:"artifact_dir"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type ScheduleConfig struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Site: SiteConfig{
			HomeURL:     "https://internshala.com/",
			ListingsURL: "https://internshala.com/internships",
		},
		Browser: BrowserConfig{
			Headless:     false,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Apply: ApplyConfig{
			PageLoadRetries: 3,
			DumpInputs:      true,
		},
		Timeouts: TimeoutsConfig{
			Navigation:     Duration(30 * time.Second),
			Listings:       Duration(60 * time.Second),
			ListingSettle:  Duration(3 * time.Second),
			PageLoad:       Duration(30 * time.Second),
			ExitDialog:     Duration(2 * time.Second),
			CloseButton:    Duration(500 * time.Millisecond),
			ApplyClick:     Duration(2 * time.Second),
			ApplyProbe:     Duration(5 * time.Second),
			FormVisible:    Duration(20 * time.Second),
			SubmitVisible:  Duration(5 * time.Second),
			SuccessVisible: Duration(10 * time.Second),
			ContinueSettle: Duration(3 * time.Second),
			Run:            Duration(30 * time.Minute),
		},
		Answers: []AnswerConfig{
			{
				Phrase: "why should we hire you",
				Answer: "I bring a strong blend of skills in web development and AI, along with a passion for building user-focused solutions.",
			},
			{
				Phrase: "availability",
				Answer: "I am available full-time for the next 6 months.",
			},
			{
				Phrase: "start date",
				Answer: "2025-05-01",
			},
		},
		Debug: DebugConfig{
			ArtifactDir: ".",
		},
		Schedule: ScheduleConfig{
			Cron:     "0 9 * * *",
			Timezone: "Asia/Kolkata",
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the directory holding the history database and cookies
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads config from path, or from ConfigPath when path is empty.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := Default()
	// An [[answers]] table in the file replaces the defaults entirely
	cfg.Answers = nil
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if !md.IsDefined("answers") {
		cfg.Answers = Default().Answers
	}

	return cfg, nil
}

// Save writes config to path, or to ConfigPath when path is empty
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ApplyEnv overrides credentials from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvEmail); v != "" {
		c.Credentials.Email = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Credentials.Password = v
	}
}

// StorePath returns the history database path.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "history.db")
}

// CookiePath returns where session cookies are persisted.
func (c *Config) CookiePath() string {
	if c.Session.CookiePath != "" {
		return c.Session.CookiePath
	}
	return filepath.Join(DataDir(), "cookies.json")
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Site.HomeURL) == "" {
		errs = append(errs, errors.New("site.home_url is required"))
	}
	if strings.TrimSpace(c.Site.ListingsURL) == "" {
		errs = append(errs, errors.New("site.listings_url is required"))
	}
	if c.Apply.PageLoadRetries < 1 {
		errs = append(errs, fmt.Errorf("apply.page_load_retries must be at least 1, got %d", c.Apply.PageLoadRetries))
	}
	if c.Apply.MaxApplications < 0 {
		errs = append(errs, fmt.Errorf("apply.max_applications must not be negative, got %d", c.Apply.MaxApplications))
	}
	for i, a := range c.Answers {
		if strings.TrimSpace(a.Phrase) == "" {
			errs = append(errs, fmt.Errorf("answers[%d].phrase is empty", i))
		}
	}
	if c.Email.Enabled && (c.Email.SMTPHost == "" || c.Email.ToAddr == "") {
		errs = append(errs, errors.New("email.smtp_host and email.to_address are required when email is enabled"))
	}

	return errors.Join(errs...)
}

// ValidateCredentials checks that a login can be attempted.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.Email == "" || c.Credentials.Password == "" {
		return fmt.Errorf("credentials are required: set credentials.email and credentials.password or %s and %s", EnvEmail, EnvPassword)
	}
	return nil
}

// ValidateSchedule checks the cron expression and timezone.
func (c *Config) ValidateSchedule() error {
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	return nil
}
