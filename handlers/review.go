package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobridge/reviewbot/bot"
	"github.com/gobridge/reviewbot/completion"
	"github.com/gobridge/reviewbot/docs"
	"github.com/gobridge/reviewbot/sheets"
)

const (
	// MaxDocumentChars caps the text of each document sent for review.
	MaxDocumentChars = 4000

	reviewPreamble = `You are a professional document reviewer. Review documents against the provided template standards.

Always respond with:
1. OVERALL RESULT: PASS or FAIL
2. DETAILED CHECKLIST: Specific criteria checked
3. RECOMMENDATIONS: Actionable next steps

Be professional and thorough.`

	reviewNoContent = "Note: Since I cannot access the document content directly, please provide a comprehensive " +
		"review framework based on the template standards and suggest what to check in these documents."

	reviewUsage = "❌ Please provide document links to review.\nExample: `/review https://docs.google.com/document/d/your-doc-id`"
)

// Template map columns.
const (
	colTemplateKey = iota
	colName
	colVersion
	colRules
	colRubric
)

type review struct {
	sheets        SheetReader
	completer     Completer
	docs          DocumentReader
	templateMapID string
	logf          bot.Logger
}

// Review checks the linked documents against the rubric in the template map.
// When d is not nil the text of each linked Google Doc is included in the
// prompt.
func Review(s SheetReader, c Completer, d DocumentReader, templateMapID string, l bot.Logger) bot.Handler {
	return review{
		sheets:        s,
		completer:     c,
		docs:          d,
		templateMapID: templateMapID,
		logf:          l,
	}
}

func (rv review) Handle(ctx context.Context, inv bot.Invocation, r bot.Responder) {
	links := strings.TrimSpace(inv.Text)
	if links == "" {
		r.Respond(ctx, reviewUsage)
		return
	}

	r.Respond(ctx, "📋 Analyzing documents with enhanced AI review... ⏳\n\nDocuments: "+links)

	// row 1 is the header
	rows, err := readRange(ctx, rv.sheets, rv.templateMapID, "A2:E10")
	if err != nil {
		r.Replace(ctx, "❌ Review failed: "+errText(err))
		return
	}
	rubric := buildRubric(rows)

	result, err := rv.completer.Complete(ctx, []completion.Message{
		completion.System(reviewPreamble),
		completion.User(reviewPrompt(rubric, links, rv.documentContents(ctx, inv, links))),
	}, 400)
	if err != nil {
		r.Replace(ctx, "❌ Review failed: "+errText(err))
		return
	}

	r.Replace(ctx, fmt.Sprintf(`📋 *Enhanced Document Review Results*

*Documents Analyzed:* %s

*Template Standards Applied:*
%s
*AI Review Framework:*
%s

_Enhanced review using template rubric from Master Database._`, links, rubric, result))
}

// documentContents returns the prompt section holding each document's text,
// or "" when documents aren't fetched. A document that fails to load is noted
// in place of its text.
func (rv review) documentContents(ctx context.Context, inv bot.Invocation, links string) string {
	if rv.docs == nil {
		return ""
	}
	ids := docs.ExtractDocumentIDs(links)
	if len(ids) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "--- Document %s ---\n", id)
		text, err := rv.docs.ReadDocumentText(ctx, id)
		if err != nil {
			rv.logf("[%s] unable to read document %s: %v\n", inv.ID, id, err)
			fmt.Fprintf(&sb, "(could not be loaded: %s)\n\n", errText(err))
			continue
		}
		sb.WriteString(truncate(text, MaxDocumentChars))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func reviewPrompt(rubric, links, contents string) string {
	var sb strings.Builder
	sb.WriteString("Please review these documents against our template standards:\n\n")
	sb.WriteString("TEMPLATE STANDARDS:\n")
	sb.WriteString(rubric)
	sb.WriteString("\nDOCUMENTS TO REVIEW:\n")
	sb.WriteString(links)
	sb.WriteString("\n\n")
	if contents == "" {
		sb.WriteString(reviewNoContent)
		return sb.String()
	}
	sb.WriteString("DOCUMENT CONTENTS:\n")
	sb.WriteString(contents)
	return strings.TrimRight(sb.String(), "\n")
}

// buildRubric renders the template map rows. Rows without a template key are
// skipped.
func buildRubric(rows sheets.RowSet) string {
	var sb strings.Builder
	sb.WriteString("Template Review Criteria:\n")
	for i := 0; i < rows.Len(); i++ {
		key := rows.Cell(i, colTemplateKey)
		if key == "" {
			continue
		}

		name := rows.Cell(i, colName)
		if name == "" {
			name = key
		}
		version := rows.Cell(i, colVersion)
		if version == "" {
			version = approvedVersion
		}
		fmt.Fprintf(&sb, "- %s: Version %s\n", name, version)

		if rules := rows.Cell(i, colRules); rules != "" {
			fmt.Fprintf(&sb, "  Rules: %s\n", rules)
		}
		if rubric := rows.Cell(i, colRubric); rubric != "" {
			fmt.Fprintf(&sb, "  Rubric: %s\n", rubric)
		}
	}
	return sb.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "\n[truncated]"
}
