// Package testutils provides shared helpers for Esmalte tests.
package testutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffStrings returns a readable diff between the expected and actual text,
// or "" when they are equal. Insertions and deletions are quoted so
// whitespace differences stay visible.
func DiffStrings(expected, actual string) string {
	if expected == actual {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(expected, actual, false)

	var b strings.Builder
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "- %q\n", diff.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "+ %q\n", diff.Text)
		case diffmatchpatch.DiffEqual:
			// Unchanged context is elided to keep failures readable.
		}
	}
	return b.String()
}

// AssertTextEqual fails the test with a quoted diff when actual does not
// match expected. Intended for multi-line rendered output where testify's
// default mismatch dump is hard to read.
func AssertTextEqual(t *testing.T, expected, actual string) {
	t.Helper()
	if diff := DiffStrings(expected, actual); diff != "" {
		t.Errorf("rendered output mismatch:\n--- expected ---\n%s\n--- actual ---\n%s\n--- diff ---\n%s", expected, actual, diff)
	}
}
