// Package config loads the application settings from a YAML file. The
// Config is constructed once in main and passed by reference; there is no
// global instance.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// URLs are the fixed portal endpoints. Defaults match the production
// portal; overrides exist for testing against a fake.
type URLs struct {
	Portal           string `yaml:"portal"`
	OAMBase          string `yaml:"oam_base"`
	RegistrationPage string `yaml:"registration_page"`
	Invoke           string `yaml:"invoke"`
	Action           string `yaml:"action"`
	Report           string `yaml:"report"`
}

// HTTP tunes the portal transport.
type HTTP struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
	BackoffSeconds float64 `yaml:"backoff_seconds"`
}

// Schedule is the default working day.
type Schedule struct {
	StartTime    string `yaml:"start_time"`
	EndTime      string `yaml:"end_time"`
	TeleworkDays []int  `yaml:"telework_days"` // ISO weekdays, Monday=1
}

// Config is the full application configuration.
type Config struct {
	URLs     URLs     `yaml:"urls"`
	HTTP     HTTP     `yaml:"http"`
	Schedule Schedule `yaml:"schedule"`

	Region   string `yaml:"region"`
	Timezone string `yaml:"timezone"`

	HolidaysFile string `yaml:"holidays_file"`
	SecretsFile  string `yaml:"secrets_file"`
	IdentityFile string `yaml:"identity_file"`
	DBPath       string `yaml:"db_path"`

	LogLevel          string `yaml:"log_level"`
	MessagesPerMinute int    `yaml:"messages_per_minute"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		URLs: URLs{
			Portal:           "https://newvo.orange.es",
			OAMBase:          "https://applogin.orange.es",
			RegistrationPage: "https://newvo.orange.es/group/viveorange/registro-de-jornada",
			Invoke:           "https://newvo.orange.es/api/jsonws/invoke",
			Action:           "https://www.registratujornadaorange.com/RealizarAccion",
			Report:           "https://www.registratujornadaorange.com/ObtenerContenidoInformeGeneral",
		},
		HTTP: HTTP{
			TimeoutSeconds: 30,
			MaxRetries:     3,
			BackoffSeconds: 1.0,
		},
		Schedule: Schedule{
			StartTime:    "08:00",
			EndTime:      "18:00",
			TeleworkDays: []int{1, 2},
		},
		Region:            "madrid",
		Timezone:          "Europe/Madrid",
		LogLevel:          "info",
		MessagesPerMinute: 20,
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults; a malformed file or invalid values are errors.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, cfg.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"urls.portal":            c.URLs.Portal,
		"urls.oam_base":          c.URLs.OAMBase,
		"urls.registration_page": c.URLs.RegistrationPage,
		"urls.invoke":            c.URLs.Invoke,
		"urls.action":            c.URLs.Action,
		"urls.report":            c.URLs.Report,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid URL %q", name, raw)
		}
	}
	for _, day := range c.Schedule.TeleworkDays {
		if day < 1 || day > 7 {
			return fmt.Errorf("schedule.telework_days: %d out of range 1-7", day)
		}
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive")
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Backoff returns the base retry backoff.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.HTTP.BackoffSeconds * float64(time.Second))
}

// Location resolves the configured timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultDataDir returns ~/.config/jornada.
func DefaultDataDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "jornada"), nil
}

// ApplyDataDir fills the path settings that were left empty with defaults
// under dir.
func (c *Config) ApplyDataDir(dir string) {
	if c.HolidaysFile == "" {
		c.HolidaysFile = filepath.Join(dir, "holidays.json")
	}
	if c.SecretsFile == "" {
		c.SecretsFile = filepath.Join(dir, "secrets.age")
	}
	if c.IdentityFile == "" {
		c.IdentityFile = filepath.Join(dir, "identity.txt")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "jornada.db")
	}
}
