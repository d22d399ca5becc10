// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultAPIURL, cfg.APIURL)
	require.Equal(t, "", cfg.Theme)
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
api_url = "http://chat.internal:9000"
theme = "Dark"

[window]
width = 80
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://chat.internal:9000", cfg.APIURL)
	require.Equal(t, ThemeDark, cfg.Theme, "theme should be lower-cased")
	require.Equal(t, 80, cfg.Window.Width)
	require.Equal(t, Default().Window.Height, cfg.Window.Height, "missing keys keep defaults")
}

func TestLoadFromPath_ExplicitEmptyURLStaysEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `api_url = ""`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "", cfg.APIURL)
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"api_url":"https://bot.example.com","theme":"light"}`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "https://bot.example.com", cfg.APIURL)
	require.Equal(t, ThemeLight, cfg.Theme)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `theme = "purple"`)

	_, err := LoadFromPath(path)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs), "got %v", err)
	require.Equal(t, "theme", verrs[0].Field)
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, path, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultAPIURL, cfg.APIURL)
	require.Equal(t, filepath.Join(home, ".chatwidget", "config.toml"), path)
}

func TestLoad_JSONFallbackSavesAsTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	writeFile(t, filepath.Join(home, ".chatwidget", "config.json"), `{"api_url":"http://json:1"}`)

	cfg, path, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://json:1", cfg.APIURL)
	require.True(t, strings.HasSuffix(path, "config.toml"))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CHATWIDGET_API_URL", "http://env:8000")
	t.Setenv("CHATWIDGET_THEME", "light")
	t.Setenv("CHATWIDGET_TIMEOUT_SECS", "5")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnvOverrides())
	require.Equal(t, "http://env:8000", cfg.APIURL)
	require.Equal(t, ThemeLight, cfg.Theme)
	require.Equal(t, 5, cfg.Network.TimeoutSecs)
}

func TestApplyEnvOverrides_BadInt(t *testing.T) {
	t.Setenv("CHATWIDGET_TIMEOUT_SECS", "soon")
	require.Error(t, Default().ApplyEnvOverrides())
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "CHATWIDGET_DOTENV_PROBE=loaded\n")
	t.Cleanup(func() { os.Unsetenv("CHATWIDGET_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "loaded", os.Getenv("CHATWIDGET_DOTENV_PROBE"))
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.APIURL = "http://saved:1234"
	cfg.Theme = ThemeDark

	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# chatwidget configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidateAPIURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false},
		{"http://localhost:8000", false},
		{"https://bot.example.com/base", false},
		{"ftp://host", true},
		{"localhost:8000", true},
		{"http://", true},
	}
	for _, tt := range tests {
		err := ValidateAPIURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAPIURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Window.Width = 5
	cfg.Network.TimeoutSecs = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)
	require.Contains(t, err.Error(), "window.width")
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api_url", "http://x"))
	require.NoError(t, cfg.Set("window.width", "72"))
	require.NoError(t, cfg.Set("window.always_on_top", "true"))
	require.NoError(t, cfg.Set("network.rate_limit", 3.5))

	v, err := cfg.Get("api_url")
	require.NoError(t, err)
	require.Equal(t, "http://x", v)

	v, err = cfg.Get("window.width")
	require.NoError(t, err)
	require.Equal(t, 72, v)
	require.True(t, cfg.Window.AlwaysOnTop)
	require.Equal(t, 3.5, cfg.Network.RateLimit)
}

func TestGetSet_Errors(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("nope")
	require.Error(t, err)
	_, err = cfg.Get("window")
	require.Error(t, err, "sections are not values")
	require.Error(t, cfg.Set("theme.color", "x"))
	require.Error(t, cfg.Set("window.width", "wide"))
	require.Error(t, cfg.Set("", "x"))
}

func TestKeys_AllResolvable(t *testing.T) {
	cfg := Default()
	for _, key := range Keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Window.Width = 99
	require.NotEqual(t, 99, cfg.Window.Width)
}

// =============================================================================
// STORES
// =============================================================================

func TestFileStore_PersistsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	store := NewFileStore(Default(), path)

	require.NoError(t, store.Set(KeyAPIURL, "http://x"))
	require.NoError(t, store.Set(KeyTheme, ThemeLight))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://x", loaded.APIURL)
	require.Equal(t, ThemeLight, loaded.Theme)

	v, ok := store.Get(KeyAPIURL)
	require.True(t, ok)
	require.Equal(t, "http://x", v)
}

func TestFileStore_UnsetValues(t *testing.T) {
	store := NewFileStore(Default(), "")
	_, ok := store.Get(KeyTheme)
	require.False(t, ok, "theme defaults to unset")

	require.NoError(t, store.Set(KeyAPIURL, ""))
	_, ok = store.Get(KeyAPIURL)
	require.False(t, ok, "empty URL reads as unconfigured")
}

func TestStores_RejectBadInput(t *testing.T) {
	stores := map[string]Store{
		"file":   NewFileStore(nil, ""),
		"memory": NewMemoryStore(nil),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, store.Set("window", "x"), ErrUnknownKey)
			require.Error(t, store.Set(KeyTheme, "sepia"))
			require.Error(t, store.Set(KeyAPIURL, "not a url"))
		})
	}
}

func TestFileStore_Reload(t *testing.T) {
	store := NewFileStore(Default(), "")
	next := Default()
	next.APIURL = "http://other"
	next.Theme = ThemeDark
	store.Reload(next)

	require.Equal(t, "http://other", store.Config().APIURL)
	v, _ := store.Get(KeyTheme)
	require.Equal(t, ThemeDark, v)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(map[string]string{KeyAPIURL: "http://seed"})
	v, ok := store.Get(KeyAPIURL)
	require.True(t, ok)
	require.Equal(t, "http://seed", v)

	require.NoError(t, store.Set(KeyTheme, ThemeDark))
	v, ok = store.Get(KeyTheme)
	require.True(t, ok)
	require.Equal(t, ThemeDark, v)
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcher_DeliversExternalEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	edited := Default()
	edited.APIURL = "http://edited:1"
	require.NoError(t, SaveTOML(edited, path))

	select {
	case cfg := <-w.Updates():
		require.NotNil(t, cfg)
		require.Equal(t, "http://edited:1", cfg.APIURL)
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")

	select {
	case cfg := <-w.Updates():
		t.Fatalf("unexpected update: %+v", cfg)
	case <-time.After(200 * time.Millisecond):
	}
}
