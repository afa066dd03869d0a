package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTemplates_FirstRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	written, err := WriteTemplates(DefaultConfig(), SecretsMissing)
	if err != nil {
		t.Fatalf("WriteTemplates: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written = %v, want secrets and config", written)
	}

	sec, status, err := LoadSecretsFrom(filepath.Join(dir, "secrets.json"))
	if err != nil || status != SecretsLoaded {
		t.Fatalf("secrets template: status %v, err %v", status, err)
	}
	if !sec.BotToken.IsEmpty() {
		t.Error("template bot_token should be empty")
	}

	cfg, err := LoadConfigFrom(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CommandPrefix != DefaultConfig().CommandPrefix || cfg.ChannelID != "" {
		t.Errorf("config template = %+v", cfg)
	}
}

func TestWriteTemplates_KeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	existing := validConfig()
	existing.CommandPrefix = "!raid"
	configPath := filepath.Join(dir, "config.json")
	if err := SaveConfigTo(existing, configPath); err != nil {
		t.Fatal(err)
	}

	written, err := WriteTemplates(DefaultConfig(), SecretsMissing)
	if err != nil {
		t.Fatalf("WriteTemplates: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "secrets.json" {
		t.Errorf("written = %v, want only secrets.json", written)
	}

	cfg, err := LoadConfigFrom(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CommandPrefix != "!raid" || cfg.ChannelID != existing.ChannelID {
		t.Errorf("existing config overwritten: %+v", cfg)
	}
}

func TestWriteTemplates_SkipsUnlessMissing(t *testing.T) {
	for _, status := range []SecretsLoadStatus{SecretsLoaded, SecretsFallback} {
		dir := t.TempDir()
		t.Setenv(EnvDataDir, dir)

		written, err := WriteTemplates(DefaultConfig(), status)
		if err != nil || written != nil {
			t.Errorf("status %v: written %v, err %v", status, written, err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("status %v: dir has %d entries, want 0", status, len(entries))
		}
	}
}
