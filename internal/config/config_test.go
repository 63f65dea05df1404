package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Point at a directory with no config file so only defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("explicit missing file should fail")
	}

	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(t.TempDir())

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "aitrade" || cfg.App.UserID != "local" {
		t.Fatalf("unexpected app defaults: %+v", cfg.App)
	}
	if cfg.Engine.AnalysisDuration != 5*time.Second || cfg.Engine.RunDuration != 35*time.Second {
		t.Fatalf("unexpected timing defaults: %+v", cfg.Engine)
	}
	if cfg.Engine.TickInterval != time.Second || cfg.Engine.MaxPoints != 120 {
		t.Fatalf("unexpected tick defaults: %+v", cfg.Engine)
	}
	if cfg.Engine.RandomWinProbability != 0.28 {
		t.Fatalf("random win probability default: %f", cfg.Engine.RandomWinProbability)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath == "" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Metrics.Enabled || cfg.Feed.Enabled {
		t.Fatal("listeners should default to disabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
app:
  user_id: trader-7
engine:
  run_duration: 10s
  random_win_probability: 0.5
storage:
  backend: memory
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.UserID != "trader-7" {
		t.Fatalf("user id not applied: %q", cfg.App.UserID)
	}
	if cfg.Engine.RunDuration != 10*time.Second {
		t.Fatalf("duration string not decoded: %v", cfg.Engine.RunDuration)
	}
	if cfg.Engine.RandomWinProbability != 0.5 {
		t.Fatalf("win probability not applied: %f", cfg.Engine.RandomWinProbability)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("backend not applied: %q", cfg.Storage.Backend)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.AnalysisDuration != 5*time.Second {
		t.Fatalf("analysis default lost: %v", cfg.Engine.AnalysisDuration)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.App.UserID = "u"
		cfg.Engine.AnalysisDuration = 5 * time.Second
		cfg.Engine.RunDuration = 35 * time.Second
		cfg.Engine.TickInterval = time.Second
		cfg.Engine.RandomWinProbability = 0.28
		cfg.Engine.WinSpreadLow = 0.97
		cfg.Engine.WinSpreadHigh = 1.03
		cfg.Engine.LossSpreadLow = 0.90
		cfg.Engine.LossSpreadHigh = 1.06
		cfg.Storage.Backend = "memory"
		cfg.Export.MaxDataPoints = 10000
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing user", func(c *Config) { c.App.UserID = "" }, "user_id"},
		{"zero run duration", func(c *Config) { c.Engine.RunDuration = 0 }, "run_duration"},
		{"probability above one", func(c *Config) { c.Engine.RandomWinProbability = 1.5 }, "random_win_probability"},
		{"inverted win spread", func(c *Config) { c.Engine.WinSpreadLow = 1.1 }, "win_spread"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"sqlite without path", func(c *Config) { c.Storage.Backend = "sqlite"; c.Storage.SQLitePath = "" }, "sqlite_path"},
		{"zero export points", func(c *Config) { c.Export.MaxDataPoints = 0 }, "max_data_points"},
	}

	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q should mention %q", tc.name, err, tc.want)
		}
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{}
	cfg.Export.MaxDataPoints = 10000
	if got := cfg.ResolveMaxPoints(0); got != 10000 {
		t.Fatalf("want config default, got %d", got)
	}
	if got := cfg.ResolveMaxPoints(250); got != 250 {
		t.Fatalf("want override, got %d", got)
	}
}
