package prep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// BuildConfig is the full set of recognized build-preparation settings.
// Unknown keys in the config file are rejected rather than silently merged.
type BuildConfig struct {
	AppName       string   `json:"appName"`
	ApplicationID string   `json:"applicationId"`
	BundleID      string   `json:"bundleId"`
	TeamID        string   `json:"teamId"`
	VersionName   string   `json:"versionName"`
	VersionCode   int      `json:"versionCode"`
	URLScheme     string   `json:"urlScheme"`
	Keychains     []string `json:"keychains"`
	Queries       []string `json:"queries"`
	IconSource    string   `json:"iconSource"`
	Profile       string   `json:"profile"`
	P12           string   `json:"p12"`
	P12Password   string   `json:"p12Password"`
}

// DefaultConfig returns the defaults applied before the config file is read.
func DefaultConfig() BuildConfig {
	return BuildConfig{
		VersionName: "1.0.0",
		VersionCode: 1,
	}
}

// LoadConfig reads a build configuration from a JSON file. Comments and
// trailing commas are allowed (JSONC); the file is stripped to plain JSON
// before decoding.
func LoadConfig(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields every preparation run depends on.
func (c *BuildConfig) Validate() error {
	if c.ApplicationID == "" && c.BundleID == "" {
		return fmt.Errorf("one of applicationId or bundleId is required")
	}
	if c.VersionCode < 1 {
		return fmt.Errorf("versionCode must be positive, got %d", c.VersionCode)
	}
	return nil
}

// EffectiveBundleID returns the iOS bundle identifier, falling back to the
// Android application id when only one is configured.
func (c *BuildConfig) EffectiveBundleID() string {
	if c.BundleID != "" {
		return c.BundleID
	}
	return c.ApplicationID
}

// EffectiveApplicationID returns the Android application id, falling back to
// the iOS bundle identifier when only one is configured.
func (c *BuildConfig) EffectiveApplicationID() string {
	if c.ApplicationID != "" {
		return c.ApplicationID
	}
	return c.BundleID
}
