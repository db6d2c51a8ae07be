// Package sheets reads and appends rows in Google Sheets.
package sheets

import (
	"context"
	"fmt"

	"github.com/gobridge/reviewbot/apperr"
	"go.opencensus.io/trace"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Scope is the OAuth2 scope needed for reads and appends.
const Scope = sheetsv4.SpreadsheetsScope

// RowSet is an ordered grid of text cells.
type RowSet [][]string

// Len returns the number of rows.
func (rs RowSet) Len() int { return len(rs) }

// Cell returns the cell at row, col or "" when it's out of bounds.
func (rs RowSet) Cell(row, col int) string {
	if row < 0 || row >= len(rs) || col < 0 || col >= len(rs[row]) {
		return ""
	}
	return rs[row][col]
}

func (rs RowSet) values() [][]interface{} {
	out := make([][]interface{}, len(rs))
	for i, row := range rs {
		out[i] = make([]interface{}, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}

func fromValues(values [][]interface{}) RowSet {
	rs := make(RowSet, len(values))
	for i, row := range values {
		rs[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			rs[i][j] = fmt.Sprint(cell)
		}
	}
	return rs
}

// Authenticator supplies client options for a Google API service.
type Authenticator interface {
	ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error)
	Summary() string
}

// Client is the spreadsheet adapter. It is safe for concurrent use; every
// call builds its own service.
type Client struct {
	auth  Authenticator
	logf  func(message string, args ...interface{})
	extra []option.ClientOption
}

// New returns a Client. extra options are appended after the authentication
// options, e.g. option.WithEndpoint.
func New(auth Authenticator, logf func(message string, args ...interface{}), extra ...option.ClientOption) *Client {
	return &Client{
		auth:  auth,
		logf:  logf,
		extra: extra,
	}
}

func (c *Client) service(ctx context.Context) (*sheetsv4.Service, error) {
	opts, err := c.auth.ClientOptions(ctx, Scope)
	if err != nil {
		return nil, err
	}
	return sheetsv4.NewService(ctx, append(opts, c.extra...)...)
}

// ReadRange returns the values in r. A range with no data yields an empty
// RowSet.
func (c *Client) ReadRange(ctx context.Context, r CellRange) (RowSet, error) {
	ctx, span := trace.StartSpan(ctx, "sheets.ReadRange")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("range", r.String()))

	if err := r.validate(); err != nil {
		return nil, err
	}

	svc, err := c.service(ctx)
	if err != nil {
		return nil, c.fail(span, "sheets.ReadRange", r, err, "failed to read sheet")
	}

	resp, err := svc.Spreadsheets.Values.Get(r.SpreadsheetID, r.A1).Context(ctx).Do()
	if err != nil {
		return nil, c.fail(span, "sheets.ReadRange", r, err, "failed to read sheet")
	}

	return fromValues(resp.Values), nil
}

// AppendRows appends rows after the existing data in r. Values are
// interpreted as if typed by a user, so formulas and dates are parsed.
func (c *Client) AppendRows(ctx context.Context, r CellRange, rows RowSet) error {
	ctx, span := trace.StartSpan(ctx, "sheets.AppendRows")
	defer span.End()
	span.AddAttributes(
		trace.StringAttribute("range", r.String()),
		trace.Int64Attribute("rows", int64(rows.Len())),
	)

	if err := r.validate(); err != nil {
		return err
	}
	if rows.Len() == 0 {
		return nil
	}

	svc, err := c.service(ctx)
	if err != nil {
		return c.fail(span, "sheets.AppendRows", r, err, "failed to write to sheet")
	}

	vr := &sheetsv4.ValueRange{Values: rows.values()}
	_, err = svc.Spreadsheets.Values.Append(r.SpreadsheetID, r.A1, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return c.fail(span, "sheets.AppendRows", r, err, "failed to write to sheet")
	}
	return nil
}

func (c *Client) fail(span *trace.Span, op string, r CellRange, err error, msg string) error {
	span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
	c.logf("%s %s: %v (credentials check: %s)\n", op, r, err, c.auth.Summary())
	return apperr.Wrapf(apperr.Adapter, op, err, "%s %s range %s", msg, r.SpreadsheetID, r.A1)
}
