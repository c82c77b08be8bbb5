package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ============================================================
// Defaults and loading
// ============================================================

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.StartTime != "08:00" || cfg.Schedule.EndTime != "18:00" {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if len(cfg.Schedule.TeleworkDays) != 2 {
		t.Errorf("telework days = %v", cfg.Schedule.TeleworkDays)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.Region != "madrid" {
		t.Errorf("Region = %q", cfg.Region)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
urls:
  portal: https://portal.test
schedule:
  start_time: "07:30"
  end_time: "15:00"
  telework_days: [3, 4, 5]
http:
  timeout_seconds: 10
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URLs.Portal != "https://portal.test" {
		t.Errorf("Portal = %q", cfg.URLs.Portal)
	}
	// Unset URLs keep their defaults.
	if cfg.URLs.OAMBase != "https://applogin.orange.es" {
		t.Errorf("OAMBase = %q", cfg.URLs.OAMBase)
	}
	if cfg.Schedule.StartTime != "07:30" || len(cfg.Schedule.TeleworkDays) != 3 {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad url":        "urls:\n  portal: 'not a url'\n",
		"bad weekday":    "schedule:\n  telework_days: [8]\n",
		"bad timeout":    "http:\n  timeout_seconds: 0\n",
		"malformed yaml": "{{{",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestApplyDataDir(t *testing.T) {
	cfg := Default()
	cfg.SecretsFile = "/custom/secrets.age"
	cfg.ApplyDataDir("/data")

	if cfg.SecretsFile != "/custom/secrets.age" {
		t.Errorf("explicit path overwritten: %q", cfg.SecretsFile)
	}
	if cfg.HolidaysFile != filepath.Join("/data", "holidays.json") {
		t.Errorf("HolidaysFile = %q", cfg.HolidaysFile)
	}
	if cfg.DBPath != filepath.Join("/data", "jornada.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}
