package utils

import "strings"

// CleanText normalizes imported content: line endings collapse to "\n" and
// non-breaking spaces become plain ones. The file's own eol is re-applied
// on output, never stored in line contents.
func CleanText(context string) *string {
	context = strings.ReplaceAll(context, "\r\n", "\n")
	context = strings.ReplaceAll(context, "\r", "\n")
	context = strings.ReplaceAll(context, "\xa0", " ")
	return &context
}
