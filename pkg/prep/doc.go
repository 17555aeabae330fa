// Package prep mutates native mobile project files before a release build.
//
// It injects branding, identifiers, entitlements and icon assets into
// Android manifests, Gradle build files and iOS property lists, driven by a
// single typed build configuration.
//
// The core piece is the bounded-section editor, ReconcileSection: it makes a
// delimited region of an XML-like document contain exactly a desired set of
// entry lines while leaving every byte outside the region untouched. The
// same editor backs both the <queries> block of an Android manifest and the
// keychain-access-groups array of an entitlements plist.
//
// # Basic Usage
//
// To prepare a whole project tree:
//
//	cfg, err := prep.LoadConfig("buildprep.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = prep.Prepare(cfg, prep.PrepareOptions{ProjectDir: "."})
//
// Individual operations (manifest queries, keychain groups, Info.plist
// branding, Gradle values, icon generation) are exported for use as single
// build steps.
package prep
