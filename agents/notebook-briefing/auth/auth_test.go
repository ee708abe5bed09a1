package auth

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSameSite(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"unspecified", "None"},
		{"no_restriction", "None"},
		{"", "None"},
		{"None", "None"},
		{"lax", "Lax"},
		{"Lax", "Lax"},
		{"SameSite=Lax", "Lax"},
		{"strict", "Strict"},
		{"STRICT", "Strict"},
		{"bogus", "Lax"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSameSite(tt.input))
		})
	}
}

func TestNormalizeSameSiteIsIdempotent(t *testing.T) {
	for _, v := range []string{"unspecified", "lax", "strict", "weird", ""} {
		once := NormalizeSameSite(v)
		assert.Equal(t, once, NormalizeSameSite(once), "value %q", v)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "browser_state", "state.json")
	state := &StorageState{Cookies: []Cookie{
		{Name: "SID", Value: "abc", Domain: ".google.com", Path: "/", Secure: true, SameSite: "Lax", Expires: 1893456000},
	}}

	require.NoError(t, SaveState(path, state))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadState(path)
	require.NoError(t, err)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "SID", loaded.Cookies[0].Name)
	assert.NotNil(t, loaded.Origins)
}

func TestLoadStateMissing(t *testing.T) {
	_, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStateAgeAndStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, SaveState(path, &StorageState{}))

	old := time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	age, err := StateAge(path, time.Now())
	require.NoError(t, err)
	assert.True(t, IsStale(age))
	assert.False(t, IsStale(6*24*time.Hour))
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	infoPath := filepath.Join(dir, "auth_info.json")

	status, err := GetStatus(statePath, infoPath, time.Now())
	require.NoError(t, err)
	assert.False(t, status.StateExists)
	assert.False(t, status.Authenticated)

	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, SaveState(statePath, &StorageState{Cookies: []Cookie{{Name: "SID", Value: "x"}}}))
	require.NoError(t, SaveInfo(infoPath, at))

	status, err = GetStatus(statePath, infoPath, time.Now())
	require.NoError(t, err)
	assert.True(t, status.StateExists)
	assert.True(t, status.Authenticated)
	assert.Equal(t, 1, status.CookieCount)
	assert.True(t, status.AuthenticatedAt.Equal(at))
}

func TestExportDecodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, SaveState(path, &StorageState{Cookies: []Cookie{{Name: "HSID", Value: "v", Domain: ".google.com"}}}))

	encoded, err := Export(path)
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err, "export must be plain base64")

	decoded, err := Decode(encoded + "\n")
	require.NoError(t, err)
	require.Len(t, decoded.Cookies, 1)
	assert.Equal(t, "HSID", decoded.Cookies[0].Name)
}

func TestRestoreFromEnv(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.json")
	require.NoError(t, SaveState(src, &StorageState{Cookies: []Cookie{{Name: "SID", Value: "restored"}}}))
	encoded, err := Export(src)
	require.NoError(t, err)

	t.Run("Restores state", func(t *testing.T) {
		t.Setenv("TEST_AUTH_STATE", encoded)
		dst := filepath.Join(t.TempDir(), "nested", "state.json")

		require.NoError(t, RestoreFromEnv("TEST_AUTH_STATE", dst))

		state, err := LoadState(dst)
		require.NoError(t, err)
		assert.Equal(t, "restored", state.Cookies[0].Value)
	})

	t.Run("Missing variable", func(t *testing.T) {
		os.Unsetenv("TEST_AUTH_STATE_ABSENT")
		err := RestoreFromEnv("TEST_AUTH_STATE_ABSENT", filepath.Join(t.TempDir(), "state.json"))
		assert.ErrorIs(t, err, ErrMissingAuthEnv)
	})

	t.Run("Garbage value", func(t *testing.T) {
		t.Setenv("TEST_AUTH_STATE", "%%%not-base64")
		err := RestoreFromEnv("TEST_AUTH_STATE", filepath.Join(t.TempDir(), "state.json"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrMissingAuthEnv)
	})
}

func TestImportCookies(t *testing.T) {
	raw := `[
	  {"domain": ".google.com", "expirationDate": 1893456000.5, "hostOnly": false, "httpOnly": true,
	   "name": "SID", "path": "/", "sameSite": "unspecified", "secure": true, "session": false,
	   "storeId": "0", "value": "abc", "id": 1},
	  {"domain": "notebooklm.google.com", "hostOnly": true, "httpOnly": false,
	   "name": "pref", "path": "", "sameSite": "lax", "secure": false, "session": true,
	   "storeId": "0", "value": "dark", "id": 2},
	  {"name": "", "value": "skipped"}
	]`

	state, err := ImportCookies(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, state.Cookies, 2)
	assert.Empty(t, state.Origins)

	sid := state.Cookies[0]
	assert.Equal(t, "None", sid.SameSite)
	assert.Equal(t, 1893456000.5, sid.Expires)
	assert.True(t, sid.HTTPOnly)

	pref := state.Cookies[1]
	assert.Equal(t, "Lax", pref.SameSite)
	assert.Equal(t, "/", pref.Path)
	assert.Zero(t, pref.Expires, "session cookies carry no expiry")

	out := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, SaveState(out, state))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	for _, field := range []string{"storeId", "hostOnly", `"id"`, "expirationDate"} {
		assert.NotContains(t, string(data), field)
	}
}

func TestImportCookiesRejectsGarbage(t *testing.T) {
	_, err := ImportCookies(strings.NewReader("{not a list"))
	assert.Error(t, err)
}
