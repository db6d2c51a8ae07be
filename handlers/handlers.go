// Package handlers implements the bot's slash commands. Each handler posts an
// optional "working" notice, makes its adapter calls and then replaces the
// notice with a final reply. Errors always end up as a reply.
package handlers

import (
	"context"

	"github.com/gobridge/reviewbot/apperr"
	"github.com/gobridge/reviewbot/completion"
	"github.com/gobridge/reviewbot/sheets"
)

type (
	// SheetReader reads a range of a spreadsheet.
	SheetReader interface {
		ReadRange(ctx context.Context, r sheets.CellRange) (sheets.RowSet, error)
	}

	// SheetAppender appends rows to a spreadsheet.
	SheetAppender interface {
		AppendRows(ctx context.Context, r sheets.CellRange, rows sheets.RowSet) error
	}

	// Completer asks the language model.
	Completer interface {
		Configured() bool
		Complete(ctx context.Context, messages []completion.Message, maxTokens int) (string, error)
	}

	// DocumentReader fetches the plain text of a document.
	DocumentReader interface {
		ReadDocumentText(ctx context.Context, documentID string) (string, error)
	}
)

// readRange validates the address and reads it.
func readRange(ctx context.Context, s SheetReader, spreadsheetID, a1 string) (sheets.RowSet, error) {
	r, err := sheets.NewCellRange(spreadsheetID, a1)
	if err != nil {
		return nil, err
	}
	return s.ReadRange(ctx, r)
}

func errText(err error) string {
	return apperr.Message(err)
}
