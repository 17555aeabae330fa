package prep

import (
	"errors"
	"strings"
	"testing"
)

const entitlementsWithGroups = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>application-identifier</key>
	<string>TEAM123.com.example.app</string>
	<key>keychain-access-groups</key>
	<array>
		<string>TEAM123.com.example.old</string>
	</array>
	<key>get-task-allow</key>
	<false/>
</dict>
</plist>`

func TestReconcileKeychainGroups_ReplacesExisting(t *testing.T) {
	path := writeFixture(t, "App.entitlements", entitlementsWithGroups)

	groups := []string{"TEAM123.com.example.app", "TEAM123.shared"}
	if err := ReconcileKeychainGroups(path, groups); err != nil {
		t.Fatalf("ReconcileKeychainGroups failed: %v", err)
	}

	got := readBack(t, path)
	wantBlock := "\t<key>keychain-access-groups</key>\n" +
		"\t<array>\n" +
		"\t\t<string>TEAM123.com.example.app</string>\n" +
		"\t\t<string>TEAM123.shared</string>\n" +
		"\t</array>"
	if !strings.Contains(got, wantBlock) {
		t.Errorf("unexpected entitlements:\n%s", got)
	}
	if strings.Contains(got, "com.example.old") {
		t.Errorf("stale group survived reconciliation:\n%s", got)
	}

	// Neighboring keys are outside the section and must be untouched.
	if !strings.Contains(got, "\t<string>TEAM123.com.example.app</string>") {
		t.Errorf("application-identifier value was disturbed:\n%s", got)
	}
	if !strings.Contains(got, "<key>get-task-allow</key>") {
		t.Errorf("trailing key was disturbed:\n%s", got)
	}
}

func TestReconcileKeychainGroups_CreatesKeyAndArray(t *testing.T) {
	entitlements := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>application-identifier</key>
	<string>TEAM123.com.example.app</string>
</dict>
</plist>`
	path := writeFixture(t, "App.entitlements", entitlements)

	if err := ReconcileKeychainGroups(path, []string{"TEAM123.com.example.app"}); err != nil {
		t.Fatalf("ReconcileKeychainGroups failed: %v", err)
	}

	got := readBack(t, path)
	wantBlock := "\t<key>keychain-access-groups</key>\n" +
		"\t<array>\n" +
		"\t\t<string>TEAM123.com.example.app</string>\n" +
		"\t</array>\n" +
		"</dict>"
	if !strings.Contains(got, wantBlock) {
		t.Errorf("expected key and array before </dict>:\n%s", got)
	}
}

func TestReconcileKeychainGroups_Idempotent(t *testing.T) {
	path := writeFixture(t, "App.entitlements", entitlementsWithGroups)
	groups := []string{"TEAM123.a", "TEAM123.b"}

	if err := ReconcileKeychainGroups(path, groups); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	once := readBack(t, path)

	if err := ReconcileKeychainGroups(path, groups); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	twice := readBack(t, path)

	if once != twice {
		t.Errorf("reconciliation is not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}

func TestReconcileKeychainGroups_NoDictFails(t *testing.T) {
	original := "<?xml version=\"1.0\"?>\n<plist version=\"1.0\">\n</plist>"
	path := writeFixture(t, "App.entitlements", original)

	err := ReconcileKeychainGroups(path, []string{"TEAM123.a"})
	if !errors.Is(err, ErrStructureNotFound) {
		t.Fatalf("expected ErrStructureNotFound, got %v", err)
	}
	if got := readBack(t, path); got != original {
		t.Errorf("file was modified despite the failure:\n%s", got)
	}
}

func TestReconcileKeyedArray_KeyWithoutArrayFails(t *testing.T) {
	doc := `<dict>
	<key>keychain-access-groups</key>
	<key>get-task-allow</key>
	<true/>
</dict>`

	_, err := reconcileKeyedArray([]byte(doc), "keychain-access-groups", []string{"<string>x</string>"})
	if !errors.Is(err, ErrStructureNotFound) {
		t.Errorf("expected ErrStructureNotFound, got %v", err)
	}
}

func TestKeychainGroupEntries_AppliesTeamPrefix(t *testing.T) {
	groups := KeychainGroupEntries("TEAM123", []string{"com.example.app", "TEAM123.shared"})

	if groups[0] != "TEAM123.com.example.app" {
		t.Errorf("expected prefix applied, got %q", groups[0])
	}
	if groups[1] != "TEAM123.shared" {
		t.Errorf("already-prefixed group must pass through, got %q", groups[1])
	}
}

func TestKeychainGroupEntries_EmptyTeamPassesThrough(t *testing.T) {
	groups := KeychainGroupEntries("", []string{"com.example.app"})
	if groups[0] != "com.example.app" {
		t.Errorf("expected pass-through without team id, got %q", groups[0])
	}
}

func TestMergeEntitlements(t *testing.T) {
	base := map[string]interface{}{
		"application-identifier": "TEAM123.com.example.app",
		"get-task-allow":         true,
	}
	override := map[string]interface{}{
		"get-task-allow":  false,
		"aps-environment": "production",
	}

	merged := MergeEntitlements(base, override)

	if merged["application-identifier"] != "TEAM123.com.example.app" {
		t.Errorf("base value lost: %v", merged["application-identifier"])
	}
	if merged["get-task-allow"] != false {
		t.Errorf("override should win, got %v", merged["get-task-allow"])
	}
	if merged["aps-environment"] != "production" {
		t.Errorf("override-only key missing, got %v", merged["aps-environment"])
	}
}

func TestParseEntitlementsXML(t *testing.T) {
	entitlements, err := ParseEntitlementsXML([]byte(entitlementsWithGroups))
	if err != nil {
		t.Fatalf("ParseEntitlementsXML failed: %v", err)
	}

	if entitlements["application-identifier"] != "TEAM123.com.example.app" {
		t.Errorf("unexpected application-identifier: %v", entitlements["application-identifier"])
	}
	if entitlements["get-task-allow"] != false {
		t.Errorf("expected get-task-allow false, got %v", entitlements["get-task-allow"])
	}
}

func TestWriteEntitlementsFile(t *testing.T) {
	path := writeFixture(t, "App.entitlements", "")

	err := WriteEntitlementsFile(path, map[string]interface{}{
		"application-identifier": "TEAM123.com.example.app",
	})
	if err != nil {
		t.Fatalf("WriteEntitlementsFile failed: %v", err)
	}

	entitlements, err := ParseEntitlementsXML([]byte(readBack(t, path)))
	if err != nil {
		t.Fatalf("written file does not parse: %v", err)
	}
	if entitlements["application-identifier"] != "TEAM123.com.example.app" {
		t.Errorf("unexpected content: %v", entitlements)
	}
}

func TestEntitlementsToXML_Roundtrip(t *testing.T) {
	in := map[string]interface{}{
		"application-identifier": "TEAM123.com.example.app",
		"keychain-access-groups": []interface{}{"TEAM123.com.example.app"},
	}

	data, err := EntitlementsToXML(in)
	if err != nil {
		t.Fatalf("EntitlementsToXML failed: %v", err)
	}

	out, err := ParseEntitlementsXML(data)
	if err != nil {
		t.Fatalf("ParseEntitlementsXML failed: %v", err)
	}
	if out["application-identifier"] != "TEAM123.com.example.app" {
		t.Errorf("roundtrip lost application-identifier: %v", out["application-identifier"])
	}
}
