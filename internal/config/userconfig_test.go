package config

import (
	"path/filepath"
	"testing"
)

func TestLoadUserConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadUserConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadUserConfig: %v", err)
	}
	if cfg.Nickname != DefaultUserConfig().Nickname {
		t.Fatalf("Nickname = %q, want default", cfg.Nickname)
	}
}

func TestUserConfigSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	original := &UserConfig{Nickname: "quill", RelayHost: "example.com:62137", ColorScheme: "light", ToolbarVert: false}
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadUserConfig(path)
	if err != nil {
		t.Fatalf("LoadUserConfig: %v", err)
	}
	if *loaded != *original {
		t.Fatalf("loaded = %+v, want %+v", loaded, original)
	}
}

func TestUserConfigSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "config.toml")
	if err := DefaultUserConfig().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := LoadUserConfig(path); err != nil {
		t.Fatalf("LoadUserConfig after Save: %v", err)
	}
}
