package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingAuthEnv is returned by RestoreFromEnv when the variable is unset
var ErrMissingAuthEnv = errors.New("auth state environment variable is not set")

// Export returns the credential file as base64 of its JSON
func Export(statePath string) (string, error) {
	state, err := LoadState(statePath)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode session state: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode reverses Export
func Decode(encoded string) (*StorageState, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode auth state: %w", err)
	}
	return ParseState(data)
}

// RestoreFromEnv decodes the named variable into the credential file
func RestoreFromEnv(envVar, statePath string) error {
	encoded, ok := os.LookupEnv(envVar)
	if !ok || strings.TrimSpace(encoded) == "" {
		return fmt.Errorf("%w: %s", ErrMissingAuthEnv, envVar)
	}

	state, err := Decode(encoded)
	if err != nil {
		return err
	}
	return SaveState(statePath, state)
}

// ExportedCookie is one entry of a raw browser-extension cookie export
type ExportedCookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Expires        *float64 `json:"expires,omitempty"`
	ExpirationDate *float64 `json:"expirationDate,omitempty"`
	HTTPOnly       bool     `json:"httpOnly"`
	Secure         bool     `json:"secure"`
	SameSite       string   `json:"sameSite"`
	Session        bool     `json:"session"`
	HostOnly       bool     `json:"hostOnly"`
	StoreID        string   `json:"storeId"`
	ID             any      `json:"id"`
}

// ImportCookies converts a raw cookie export into a storage state.
// Same-site values are normalized and extension-only fields are dropped.
func ImportCookies(r io.Reader) (*StorageState, error) {
	var exported []ExportedCookie
	if err := json.NewDecoder(r).Decode(&exported); err != nil {
		return nil, fmt.Errorf("failed to parse cookie export: %w", err)
	}

	state := &StorageState{
		Cookies: make([]Cookie, 0, len(exported)),
		Origins: []json.RawMessage{},
	}
	for _, c := range exported {
		if c.Name == "" {
			continue
		}
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: NormalizeSameSite(c.SameSite),
		}
		if cookie.Path == "" {
			cookie.Path = "/"
		}
		switch {
		case c.Session:
		case c.Expires != nil:
			cookie.Expires = *c.Expires
		case c.ExpirationDate != nil:
			cookie.Expires = *c.ExpirationDate
		}
		state.Cookies = append(state.Cookies, cookie)
	}
	return state, nil
}
