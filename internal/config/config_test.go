package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{"bot_token":"abc","data_dir":"/tmp/ptb/../ptb"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/ptb" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.Tick() != time.Minute || cfg.Pacing() != 2*time.Second || cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("durations = %v %v %v", cfg.Tick(), cfg.Pacing(), cfg.FetchTimeout())
	}
	if cfg.MaxRedirects != 5 || cfg.DefaultIntervalSeconds != 3600 || cfg.FailureAlertAfter != 5 {
		t.Errorf("numeric defaults = %+v", cfg)
	}
	if cfg.Timezone != "UTC" || cfg.Calendar != "gregorian" || cfg.Digits != "en" {
		t.Errorf("display defaults = %q %q %q", cfg.Timezone, cfg.Calendar, cfg.Digits)
	}
	if cfg.DBPath() != "/tmp/ptb/bot.db" {
		t.Errorf("db path = %q", cfg.DBPath())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"bot_token":"file","tick_seconds":30,"calendar":"gregorian","extra_price_selectors":[".cost"]}`)
	t.Setenv("PTB_BOT_TOKEN", "env")
	t.Setenv("PTB_TICK_SECONDS", "120")
	t.Setenv("PTB_PACING_SECONDS", "-1")
	t.Setenv("PTB_CALENDAR", "Jalali")
	t.Setenv("PTB_DIGITS", "fa")
	t.Setenv("PTB_INITIAL_ADMINS", "10, 20,x,")
	t.Setenv("PTB_DEBUG", "yes")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "env" {
		t.Errorf("token = %q", cfg.BotToken)
	}
	if cfg.TickSeconds != 120 || cfg.PacingSeconds != 2 {
		t.Errorf("tick/pacing = %d/%d", cfg.TickSeconds, cfg.PacingSeconds)
	}
	if cfg.Calendar != "jalali" || cfg.Digits != "fa" || !cfg.Debug {
		t.Errorf("display = %+v", cfg)
	}
	if len(cfg.InitialAdminIDs) != 2 || cfg.InitialAdminIDs[1] != 20 {
		t.Errorf("admins = %v", cfg.InitialAdminIDs)
	}
	if len(cfg.ExtraPriceSelectors) != 1 {
		t.Errorf("selectors = %v", cfg.ExtraPriceSelectors)
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("PTB_BOT_TOKEN", "")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{"bot_token":`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
