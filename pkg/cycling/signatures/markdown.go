package signatures

import (
	"strings"

	"mercator-hq/datacycle/pkg/store"
)

const (
	// DefaultSubject is the subject of removal notifications.
	DefaultSubject = "Summary of deleted Performance Signatures"

	contentHeader = "The following signatures have been deleted because they no longer have any data:\n\n"
)

var tableColumns = []string{"Repository", "Framework", "Platform", "Suite", "Application"}

// Content renders removed signatures as a markdown table.
func Content(sigs []store.Signature) string {
	var b strings.Builder
	b.WriteString(contentHeader)
	writeRow(&b, tableColumns)

	align := make([]string, len(tableColumns))
	for i := range align {
		align[i] = ":---:"
	}
	writeRow(&b, align)

	for _, sig := range sigs {
		writeRow(&b, []string{sig.Repository, sig.Framework, sig.Platform, sig.Suite, sig.Application})
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(cell, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
