package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"podcast-agent/shared/storage"
)

// StaleAfter is the credential age past which a warning is logged
const StaleAfter = 7 * 24 * time.Hour

// Cookie is one entry of the saved browser session
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// StorageState is the persisted session credential
type StorageState struct {
	Cookies []Cookie          `json:"cookies"`
	Origins []json.RawMessage `json:"origins"`
}

// Info records when the interactive login last completed
type Info struct {
	AuthenticatedAt    float64 `json:"authenticated_at"`
	AuthenticatedAtISO string  `json:"authenticated_at_iso"`
}

// NormalizeSameSite maps browser-specific same-site values onto Strict, Lax or None
func NormalizeSameSite(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "unspecified", "no_restriction", "none":
		return "None"
	}
	if strings.Contains(v, "lax") {
		return "Lax"
	}
	if strings.Contains(v, "strict") {
		return "Strict"
	}
	return "Lax"
}

// LoadState reads the credential file. A missing file returns an error wrapping os.ErrNotExist.
func LoadState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session state %s: %w", path, err)
	}
	return ParseState(data)
}

// ParseState decodes a credential document
func ParseState(data []byte) (*StorageState, error) {
	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}
	if state.Origins == nil {
		state.Origins = []json.RawMessage{}
	}
	return &state, nil
}

// SaveState writes the credential file with owner-only permissions
func SaveState(path string, state *StorageState) error {
	if state == nil {
		return fmt.Errorf("session state cannot be nil")
	}
	if state.Cookies == nil {
		state.Cookies = []Cookie{}
	}
	if state.Origins == nil {
		state.Origins = []json.RawMessage{}
	}
	if err := storage.WriteJSON(path, state, 0600); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

// StateAge returns how long ago the credential file was written
func StateAge(path string, now time.Time) (time.Duration, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return now.Sub(info.ModTime()), nil
}

// IsStale reports whether age is past StaleAfter
func IsStale(age time.Duration) bool {
	return age > StaleAfter
}

// SaveInfo records the login time
func SaveInfo(path string, at time.Time) error {
	info := Info{
		AuthenticatedAt:    float64(at.UnixNano()) / float64(time.Second),
		AuthenticatedAtISO: at.Format(time.RFC3339),
	}
	if err := storage.WriteJSON(path, info, 0600); err != nil {
		return fmt.Errorf("failed to save auth info: %w", err)
	}
	return nil
}

// LoadInfo reads the login record; a missing file returns nil without error
func LoadInfo(path string) (*Info, error) {
	var info Info
	if err := storage.ReadJSON(path, &info); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load auth info: %w", err)
	}
	return &info, nil
}

// Status summarizes the stored credential
type Status struct {
	StateFile       string    `json:"state_file"`
	StateExists     bool      `json:"state_exists"`
	Authenticated   bool      `json:"authenticated"`
	StateAgeHours   float64   `json:"state_age_hours,omitempty"`
	Stale           bool      `json:"stale"`
	CookieCount     int       `json:"cookie_count"`
	AuthenticatedAt time.Time `json:"authenticated_at,omitempty"`
}

// GetStatus inspects the credential and info files
func GetStatus(statePath, infoPath string, now time.Time) (*Status, error) {
	status := &Status{StateFile: statePath}

	age, err := StateAge(statePath, now)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return status, nil
		}
		return nil, fmt.Errorf("failed to stat session state: %w", err)
	}
	status.StateExists = true
	status.StateAgeHours = age.Hours()
	status.Stale = IsStale(age)

	state, err := LoadState(statePath)
	if err != nil {
		return nil, err
	}
	status.CookieCount = len(state.Cookies)
	status.Authenticated = len(state.Cookies) > 0

	info, err := LoadInfo(infoPath)
	if err != nil {
		return nil, err
	}
	if info != nil && info.AuthenticatedAtISO != "" {
		if at, err := time.Parse(time.RFC3339, info.AuthenticatedAtISO); err == nil {
			status.AuthenticatedAt = at
		}
	}
	return status, nil
}
