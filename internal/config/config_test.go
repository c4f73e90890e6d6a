package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "secret")
	t.Setenv("NOTION_DATABASE_ID", "db-1")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NotionBaseURL != "https://api.notion.com" || cfg.NotionVersion != "2022-06-28" {
		t.Fatalf("unexpected notion defaults %+v", cfg)
	}
	if cfg.PageSize != 100 || cfg.MaxPages != 0 {
		t.Fatalf("unexpected paging defaults page_size=%d max_pages=%d", cfg.PageSize, cfg.MaxPages)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.StorageType != "bbolt" || cfg.StorageTTL != 30*24*time.Hour {
		t.Fatalf("unexpected storage defaults %+v", cfg)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("NOTION_TOKEN", " secret ")
	t.Setenv("NOTION_DATABASE_ID", "db-1")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("MAX_PAGES", "4")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NotionToken != "secret" {
		t.Fatalf("token not trimmed: %q", cfg.NotionToken)
	}
	if cfg.PageSize != 25 || cfg.MaxPages != 4 || cfg.StorageType != "none" {
		t.Fatalf("overrides not applied %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token":    {"NOTION_DATABASE_ID": "db"},
		"missing database": {"NOTION_TOKEN": "tok"},
		"page size":        {"NOTION_TOKEN": "tok", "NOTION_DATABASE_ID": "db", "PAGE_SIZE": "101"},
		"max pages":        {"NOTION_TOKEN": "tok", "NOTION_DATABASE_ID": "db", "MAX_PAGES": "-1"},
		"timeout":          {"NOTION_TOKEN": "tok", "NOTION_DATABASE_ID": "db", "HTTP_TIMEOUT_SECONDS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("NOTION_TOKEN", "")
			t.Setenv("NOTION_DATABASE_ID", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := load(viper.New()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRedactedHidesToken(t *testing.T) {
	cfg := Config{NotionToken: "secret", NotionDatabaseID: "db"}
	if got := cfg.Redacted(); got.NotionToken == "secret" || got.NotionDatabaseID != "db" {
		t.Fatalf("unexpected redacted config %+v", got)
	}
	if cfg.NotionToken != "secret" {
		t.Fatalf("original config mutated")
	}
}
