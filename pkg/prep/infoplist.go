package prep

import (
	"fmt"
	"os"

	"howett.net/plist"
)

// SetInfoPlistValues sets top-level keys in an Info.plist, preserving all
// other content. The file is decoded, mutated and rewritten as a whole.
func SetInfoPlistValues(path string, values map[string]interface{}) error {
	info, err := readInfoPlist(path)
	if err != nil {
		return err
	}

	for k, v := range values {
		info[k] = v
	}

	return writeInfoPlist(path, info)
}

// SetDisplayName sets CFBundleDisplayName and CFBundleName.
func SetDisplayName(path, name string) error {
	return SetInfoPlistValues(path, map[string]interface{}{
		"CFBundleDisplayName": name,
		"CFBundleName":        name,
	})
}

// SetBundleIdentifier sets CFBundleIdentifier.
func SetBundleIdentifier(path, bundleID string) error {
	return SetInfoPlistValues(path, map[string]interface{}{
		"CFBundleIdentifier": bundleID,
	})
}

// SetBundleVersion sets the marketing version and build number.
func SetBundleVersion(path, shortVersion string, build int) error {
	return SetInfoPlistValues(path, map[string]interface{}{
		"CFBundleShortVersionString": shortVersion,
		"CFBundleVersion":            fmt.Sprintf("%d", build),
	})
}

// SetURLScheme replaces the app's URL types with a single entry carrying the
// given scheme.
func SetURLScheme(path, scheme string) error {
	return SetInfoPlistValues(path, map[string]interface{}{
		"CFBundleURLTypes": []interface{}{
			map[string]interface{}{
				"CFBundleURLSchemes": []interface{}{scheme},
			},
		},
	})
}

// GetInfoPlistString reads one string value from an Info.plist.
func GetInfoPlistString(path, key string) (string, error) {
	info, err := readInfoPlist(path)
	if err != nil {
		return "", err
	}

	value, ok := info[key].(string)
	if !ok {
		return "", fmt.Errorf("%s not found in %s", key, path)
	}
	return value, nil
}

func readInfoPlist(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var info map[string]interface{}
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return info, nil
}

func writeInfoPlist(path string, info map[string]interface{}) error {
	data, err := plist.MarshalIndent(info, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
