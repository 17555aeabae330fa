package prep

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	applicationTagRe = regexp.MustCompile(`^\s*<application[\s>]`)
	packageQueryRe   = regexp.MustCompile(`^\s*<package\s`)
)

// AddPackageQueries reconciles the <queries> section of an AndroidManifest.xml
// so it declares exactly the given package-visibility entries. The section is
// created immediately before the <application> element when it does not exist;
// a manifest with neither <queries> nor <application> is rejected.
func AddPackageQueries(path string, packages []string) error {
	entries := make([]string, 0, len(packages))
	for _, pkg := range packages {
		entries = append(entries, fmt.Sprintf(`<package android:name=%q />`, pkg))
	}

	return ReconcileSectionFile(path, "queries", entries, SectionOptions{
		InsertBefore: applicationTagRe,
		IsEntry:      packageQueryRe.MatchString,
	})
}

// SetManifestPackage rewrites the package attribute of the <manifest> element.
func SetManifestPackage(path, applicationID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(data)
	start := strings.Index(text, "<manifest")
	if start == -1 {
		return fmt.Errorf("no <manifest> element in %s: %w", path, ErrStructureNotFound)
	}

	// The attribute may sit on any line of a multi-line <manifest> tag.
	attrRe := regexp.MustCompile(`package="[^"]*"`)
	loc := attrRe.FindStringIndex(text[start:])
	if loc == nil {
		return fmt.Errorf("no package attribute on <manifest> in %s: %w", path, ErrStructureNotFound)
	}

	updated := text[:start+loc[0]] + fmt.Sprintf(`package=%q`, applicationID) + text[start+loc[1]:]
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
