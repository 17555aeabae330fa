package prep

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrStructureNotFound is returned when a required anchor (section marker or
// insertion point) cannot be located in the document. The document is never
// written in that case.
var ErrStructureNotFound = errors.New("structure not found")

// SectionOptions controls how ReconcileSection locates and formats a section.
type SectionOptions struct {
	// InsertBefore locates the line the section is created in front of when
	// the section does not exist yet. Without it an absent section is an
	// error.
	InsertBefore *regexp.Regexp

	// IsEntry reports whether an interior line is a managed entry, eligible
	// for removal and replacement. Lines it rejects are foreign content and
	// survive reconciliation unchanged, in their original relative order.
	// When nil, every interior line is considered managed.
	IsEntry func(line string) bool

	// IndentUnit is the whitespace added per nesting level for lines the
	// editor creates. Defaults to two spaces.
	IndentUnit string
}

// ReconcileSection makes the named section of an XML-like document contain
// exactly the given entries, without disturbing anything outside the section.
// Entries are rendered one per line, in the order supplied, indented one unit
// past the section's open marker. Three cases are handled:
//
//   - The section is absent: a new block (open marker, entries, close marker,
//     blank separator) is inserted before the InsertBefore anchor, using the
//     anchor's indentation. No anchor means ErrStructureNotFound.
//   - The section is self-closing or empty: the marker is expanded into an
//     open/close pair first, then treated as populated.
//   - The section is populated: interior lines matching IsEntry are dropped,
//     the desired entries are inserted directly after the open marker, and
//     any remaining interior lines are kept after them.
//
// Matching uses the first open marker in the document and the first close
// marker after it. Repeated or nested sections with the same name are not
// supported; everything past the first close marker is left untouched.
func ReconcileSection(document []byte, name string, entries []string, opts SectionOptions) ([]byte, error) {
	unit := opts.IndentUnit
	if unit == "" {
		unit = "  "
	}

	lines := strings.Split(string(document), "\n")

	openIdx := -1
	var indent string
	var selfClosing bool
	for i, line := range lines {
		if ind, sc, ok := matchSectionOpen(line, name); ok {
			openIdx, indent, selfClosing = i, ind, sc
			break
		}
	}

	if openIdx == -1 {
		out, err := createSection(lines, name, entries, unit, opts.InsertBefore)
		if err != nil {
			return nil, err
		}
		return []byte(strings.Join(out, "\n")), nil
	}

	if selfClosing {
		// Expand <name .../> into <name ...> + </name>, keeping attributes.
		trimmed := strings.TrimSpace(lines[openIdx])
		body := strings.TrimRight(strings.TrimSuffix(trimmed, "/>"), " \t")
		expanded := make([]string, 0, len(lines)+1)
		expanded = append(expanded, lines[:openIdx]...)
		expanded = append(expanded, indent+body+">", indent+"</"+name+">")
		expanded = append(expanded, lines[openIdx+1:]...)
		lines = expanded
	}

	closeIdx := -1
	for i := openIdx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "</"+name+">" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return nil, fmt.Errorf("<%s> on line %d has no closing tag: %w", name, openIdx+1, ErrStructureNotFound)
	}

	interior := lines[openIdx+1 : closeIdx]
	entryIndent := indent + unit
	var foreign []string
	for _, line := range interior {
		if opts.IsEntry == nil || opts.IsEntry(line) {
			// Existing managed entry: adopt its indentation so a reconcile
			// of an already-edited file reproduces itself exactly.
			entryIndent = leadingWhitespace(line)
			continue
		}
		foreign = append(foreign, line)
	}

	out := make([]string, 0, len(lines)-len(interior)+len(entries)+len(foreign))
	out = append(out, lines[:openIdx+1]...)
	for _, e := range entries {
		out = append(out, entryIndent+e)
	}
	out = append(out, foreign...)
	out = append(out, lines[closeIdx:]...)

	return []byte(strings.Join(out, "\n")), nil
}

// ReconcileSectionFile loads the document at path, reconciles the section and
// overwrites the file in place. The transformation is computed fully in
// memory; on any error nothing is written.
func ReconcileSectionFile(path, name string, entries []string, opts SectionOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated, err := ReconcileSection(data, name, entries, opts)
	if err != nil {
		return fmt.Errorf("failed to update <%s> in %s: %w", name, path, err)
	}

	if err := os.WriteFile(path, updated, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func createSection(lines []string, name string, entries []string, unit string, anchor *regexp.Regexp) ([]string, error) {
	if anchor == nil {
		return nil, fmt.Errorf("no <%s> section and no insertion anchor configured: %w", name, ErrStructureNotFound)
	}

	anchorIdx := -1
	for i, line := range lines {
		if anchor.MatchString(line) {
			anchorIdx = i
			break
		}
	}
	if anchorIdx == -1 {
		return nil, fmt.Errorf("no <%s> section and insertion anchor %q not found: %w", name, anchor, ErrStructureNotFound)
	}

	indent := leadingWhitespace(lines[anchorIdx])
	block := make([]string, 0, len(entries)+3)
	block = append(block, indent+"<"+name+">")
	for _, e := range entries {
		block = append(block, indent+unit+e)
	}
	block = append(block, indent+"</"+name+">", "")

	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:anchorIdx]...)
	out = append(out, block...)
	out = append(out, lines[anchorIdx:]...)
	return out, nil
}

// matchSectionOpen reports whether line is an opening marker for the named
// element, along with its indentation and whether the form is self-closing.
// The whole marker must sit on one line; markers split across lines are not
// recognized.
func matchSectionOpen(line, name string) (indent string, selfClosing, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "<"+name) || !strings.HasSuffix(trimmed, ">") {
		return "", false, false
	}

	// Reject longer element names sharing the prefix, e.g. <queries-extra>.
	rest := trimmed[len(name)+1:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '>' && rest[0] != '/' {
		return "", false, false
	}

	return leadingWhitespace(line), strings.HasSuffix(trimmed, "/>"), true
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
