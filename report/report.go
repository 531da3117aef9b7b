// Package report renders change-sets as Telegram-ready HTML or as
// machine-readable JSON.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/c360studio/oracletrack/diff"
)

// NoChanges is the fixed sentinel emitted for an empty change-set.
// The calling layer matches on it to decide notification behavior.
const NoChanges = "✨ No oracle changes today!"

// Formatter renders change-sets. The zero value is usable.
type Formatter struct {
	// RepoWebURL is the browsable URL of the monitored repository.
	// When set, changes that carry a revision get a commit link in
	// their header line.
	RepoWebURL string
}

// Text renders the change-set as an HTML-annotated report: one block
// per change (header, one line per added/removed oracle, one per type
// change), a blank separator between blocks and a trailing total. All
// record fields are escaped, so markup-significant characters in the
// source data cannot inject formatting.
func (f *Formatter) Text(changes diff.Changeset) string {
	if len(changes) == 0 {
		return NoChanges
	}

	var sb strings.Builder
	for _, c := range changes {
		header := fmt.Sprintf("🛠️ <b>Protocol %s</b> (id <code>%s</code>) on <i>%s</i> has the following changes",
			html.EscapeString(c.Name),
			html.EscapeString(c.ID),
			html.EscapeString(c.SourceFile))
		if link := f.commitLink(c); link != "" {
			header += " (" + link + ")"
		}
		sb.WriteString(header + ":\n")

		for _, name := range c.Plus {
			sb.WriteString(fmt.Sprintf("  ➕ <b>%s</b>\n", html.EscapeString(name)))
		}
		for _, name := range c.Minus {
			sb.WriteString(fmt.Sprintf("  ➖ <b>%s</b>\n", html.EscapeString(name)))
		}
		for _, tc := range c.Types {
			sb.WriteString(fmt.Sprintf("  🔄 <b>%s</b> (type: <code>%s</code> → <code>%s</code>)\n",
				html.EscapeString(tc.Name),
				html.EscapeString(typeOrNone(tc.Old)),
				html.EscapeString(typeOrNone(tc.New))))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("📌 Total protocols with oracle changes: %d", len(changes)))
	return sb.String()
}

// Summary is the JSON document shape wrapping a change-set.
type Summary struct {
	ChangedCount int            `json:"changed_count"`
	Changes      diff.Changeset `json:"changes"`
}

// JSON renders the change-set as a lossless structured document.
func (f *Formatter) JSON(changes diff.Changeset) (string, error) {
	data, err := json.MarshalIndent(Summary{ChangedCount: len(changes), Changes: changes}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode changes: %w", err)
	}
	return string(data), nil
}

// commitLink builds the HTML commit link for a change, or "" when the
// formatter has no web URL or the change carries no revision.
func (f *Formatter) commitLink(c diff.Change) string {
	if f.RepoWebURL == "" || c.Revision == "" {
		return ""
	}
	url := strings.TrimSuffix(f.RepoWebURL, "/") + "/commit/" + c.Revision
	return fmt.Sprintf(`<a href="%s">Commit</a>`, html.EscapeString(url))
}

func typeOrNone(t string) string {
	if t == "" {
		return "(none)"
	}
	return t
}
