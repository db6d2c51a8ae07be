package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gobridge/reviewbot/bot"
	"github.com/gobridge/reviewbot/sheets"
)

const (
	// DefaultClientID is used when no client id is configured.
	DefaultClientID = "client1"
	// DefaultTemplateKey is used when /approved is given no template key.
	DefaultTemplateKey = "default"

	approvedStatus  = "APPROVED"
	approvedVersion = "1.0"
	approvedNotes   = "Approved via Slack bot"
	approvalRange   = "A:H"

	// TimestampLayout is RFC 3339 in UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	approvedUsage = "❌ Please provide sheet ID and document link.\n" +
		"Example: `/approved 1kepJ6yKQUxt4N8uRcVCOAz4Do5_PpU6AUqwsSS0ZNyw https://docs.google.com/document/d/abc123`"
)

// ApprovalRecord is one row of the master DB.
type ApprovalRecord struct {
	ClientID     string
	TemplateKey  string
	Status       string
	DocumentLink string
	Version      string
	Reviewer     string
	ReviewedAt   time.Time
	Notes        string
}

// NewApprovalRecord fills in the fixed fields of an approval.
func NewApprovalRecord(clientID, templateKey, docLink, reviewer string, at time.Time) ApprovalRecord {
	if clientID == "" {
		clientID = DefaultClientID
	}
	if templateKey == "" {
		templateKey = DefaultTemplateKey
	}
	return ApprovalRecord{
		ClientID:     clientID,
		TemplateKey:  templateKey,
		Status:       approvedStatus,
		DocumentLink: docLink,
		Version:      approvedVersion,
		Reviewer:     reviewer,
		ReviewedAt:   at,
		Notes:        approvedNotes,
	}
}

// Row returns the record's 8 cells in column order A to H.
func (a ApprovalRecord) Row() []string {
	return []string{
		a.ClientID,
		a.TemplateKey,
		a.Status,
		a.DocumentLink,
		a.Version,
		a.Reviewer,
		a.ReviewedAt.UTC().Format(TimestampLayout),
		a.Notes,
	}
}

// Approved appends an approval record to the master DB sheet named in the
// command. now may be nil.
func Approved(s SheetAppender, clientID string, now func() time.Time) bot.Handler {
	if now == nil {
		now = time.Now
	}
	return bot.HandlerFunc(func(ctx context.Context, inv bot.Invocation, r bot.Responder) {
		params := strings.Fields(inv.Text)
		if len(params) < 2 {
			r.Respond(ctx, approvedUsage)
			return
		}

		sheetID, docLink := params[0], params[1]
		templateKey := DefaultTemplateKey
		if len(params) > 2 {
			templateKey = params[2]
		}

		r.Respond(ctx, "📝 Saving approval... ⏳")

		at := now()
		rec := NewApprovalRecord(clientID, templateKey, docLink, inv.UserName, at)

		err := appendRecord(ctx, s, sheetID, rec)
		if err != nil {
			r.Replace(ctx, "❌ Failed to save approval: "+errText(err))
			return
		}

		r.Replace(ctx, fmt.Sprintf("✅ *Document Approved & Saved!*\n\n📄 Document: %s\n📊 Sheet: %s\n👤 Approved by: %s\n⏰ Time: %s",
			docLink, sheetID, inv.UserName, at.UTC().Format("Jan 2, 2006 15:04:05 MST")))
	})
}

func appendRecord(ctx context.Context, s SheetAppender, sheetID string, rec ApprovalRecord) error {
	rng, err := sheets.NewCellRange(sheetID, approvalRange)
	if err != nil {
		return err
	}
	return s.AppendRows(ctx, rng, sheets.RowSet{rec.Row()})
}
