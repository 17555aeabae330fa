package prep

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"howett.net/plist"
)

const keychainGroupsKey = "keychain-access-groups"

var stringValueRe = regexp.MustCompile(`^\s*<string>.*</string>\s*$`)

// ReconcileKeychainGroups makes the keychain-access-groups array of an
// entitlements plist contain exactly the given groups, in order. Groups
// should already carry their team prefix (see KeychainGroupEntries). When the
// key is absent it is created, together with its array, just before the
// closing </dict> of the file.
func ReconcileKeychainGroups(path string, groups []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	entries := make([]string, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, "<string>"+g+"</string>")
	}

	updated, err := reconcileKeyedArray(data, keychainGroupsKey, entries)
	if err != nil {
		return fmt.Errorf("failed to update %s in %s: %w", keychainGroupsKey, path, err)
	}

	if err := os.WriteFile(path, updated, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// reconcileKeyedArray manages the <array> value that follows a <key> line in
// a plist dict. Entitlements files keep one value per key, so the array to
// edit is the first one after the key and before any subsequent key.
func reconcileKeyedArray(document []byte, key string, entries []string) ([]byte, error) {
	lines := strings.Split(string(document), "\n")
	keyLine := "<key>" + key + "</key>"

	keyIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == keyLine {
			keyIdx = i
			break
		}
	}

	if keyIdx == -1 {
		return insertKeyedArray(lines, keyLine, entries)
	}

	// Guard against a key with a missing value: if another <key> shows up
	// before an <array>, editing would corrupt the next entry.
	for i := keyIdx + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "<array") {
			break
		}
		if strings.HasPrefix(trimmed, "<key>") {
			return nil, fmt.Errorf("%s has no <array> value: %w", keyLine, ErrStructureNotFound)
		}
	}

	sub := strings.Join(lines[keyIdx+1:], "\n")
	updated, err := ReconcileSection([]byte(sub), "array", entries, SectionOptions{
		IsEntry:    stringValueRe.MatchString,
		IndentUnit: "\t",
	})
	if err != nil {
		return nil, err
	}

	head := strings.Join(lines[:keyIdx+1], "\n")
	return []byte(head + "\n" + string(updated)), nil
}

func insertKeyedArray(lines []string, keyLine string, entries []string) ([]byte, error) {
	anchorIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "</dict>" {
			anchorIdx = i
			break
		}
	}
	if anchorIdx == -1 {
		return nil, fmt.Errorf("no </dict> to insert %s before: %w", keyLine, ErrStructureNotFound)
	}

	indent := leadingWhitespace(lines[anchorIdx]) + "\t"
	block := make([]string, 0, len(entries)+3)
	block = append(block, indent+keyLine, indent+"<array>")
	for _, e := range entries {
		block = append(block, indent+"\t"+e)
	}
	block = append(block, indent+"</array>")

	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:anchorIdx]...)
	out = append(out, block...)
	out = append(out, lines[anchorIdx:]...)
	return []byte(strings.Join(out, "\n")), nil
}

// KeychainGroupEntries renders keychain group values with the team prefix
// applied. Groups that already start with the team identifier are passed
// through unchanged.
func KeychainGroupEntries(teamID string, groups []string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if teamID == "" || strings.HasPrefix(g, teamID+".") {
			out = append(out, g)
			continue
		}
		out = append(out, teamID+"."+g)
	}
	return out
}

// MergeEntitlements merges override entitlements into base entitlements.
// Override values take precedence.
func MergeEntitlements(base, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// EntitlementsToXML renders an entitlements map as a tab-indented XML plist.
func EntitlementsToXML(entitlements map[string]interface{}) ([]byte, error) {
	data, err := plist.MarshalIndent(entitlements, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entitlements to XML: %w", err)
	}
	return data, nil
}

// ParseEntitlementsXML parses XML plist entitlements into a map.
func ParseEntitlementsXML(data []byte) (map[string]interface{}, error) {
	var entitlements map[string]interface{}
	_, err := plist.Unmarshal(data, &entitlements)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entitlements XML: %w", err)
	}
	return entitlements, nil
}

// WriteEntitlementsFile renders the entitlements map and writes it to path,
// creating the file when it does not exist.
func WriteEntitlementsFile(path string, entitlements map[string]interface{}) error {
	data, err := EntitlementsToXML(entitlements)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
