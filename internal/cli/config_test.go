package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Layering(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "bot:\n  mention_limit: 32\n  poll_interval: 1m\ncatalog:\n  search_rows: 10\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BORROWBOT_CATALOG_SEARCH_ROWS", "25")
	t.Setenv("TWITTER_BEARER_TOKEN", "token-from-env")
	// keep any .env in the working tree out of the test
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Bot.MentionLimit != 32 {
		t.Errorf("expected mention limit from file (32), got %d", cfg.Bot.MentionLimit)
	}
	if cfg.Bot.PollInterval != time.Minute {
		t.Errorf("expected poll interval 1m, got %v", cfg.Bot.PollInterval)
	}
	if cfg.Catalog.SearchRows != 25 {
		t.Errorf("expected env to win over file (25), got %d", cfg.Catalog.SearchRows)
	}
	if cfg.Twitter.BearerToken != "token-from-env" {
		t.Errorf("expected bearer token from env, got %q", cfg.Twitter.BearerToken)
	}
	if cfg.Bot.CursorFile != "last_seen_id.txt" {
		t.Errorf("expected default cursor file, got %q", cfg.Bot.CursorFile)
	}
}
