package prep

import (
	"fmt"
	"os"
	"regexp"
)

// SetGradleValue replaces the value of a key in a build.gradle file, keeping
// the line's indentation and assignment style. Only the first occurrence is
// rewritten. The rendered value is inserted verbatim, so string values must
// arrive already quoted.
func SetGradleValue(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Matches `key "old"` and `key = old` forms.
	lineRe := regexp.MustCompile(`(?m)^([ \t]*` + regexp.QuoteMeta(key) + `[ \t]*=?[ \t]+).*$`)
	loc := lineRe.FindSubmatchIndex(data)
	if loc == nil {
		return fmt.Errorf("%s not found in %s: %w", key, path, ErrStructureNotFound)
	}

	updated := make([]byte, 0, len(data)+len(value))
	updated = append(updated, data[:loc[3]]...)
	updated = append(updated, value...)
	updated = append(updated, data[loc[1]:]...)

	if err := os.WriteFile(path, updated, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SetGradleApplicationID sets the applicationId of the default config.
func SetGradleApplicationID(path, applicationID string) error {
	return SetGradleValue(path, "applicationId", fmt.Sprintf("%q", applicationID))
}

// SetGradleVersionName sets versionName.
func SetGradleVersionName(path, versionName string) error {
	return SetGradleValue(path, "versionName", fmt.Sprintf("%q", versionName))
}

// SetGradleVersionCode sets versionCode.
func SetGradleVersionCode(path string, versionCode int) error {
	return SetGradleValue(path, "versionCode", fmt.Sprintf("%d", versionCode))
}
