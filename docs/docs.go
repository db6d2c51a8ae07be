// Package docs reads the plain text of Google Docs documents.
package docs

import (
	"context"
	"regexp"
	"strings"

	"github.com/gobridge/reviewbot/apperr"
	"go.opencensus.io/trace"
	docsv1 "google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Scopes are the OAuth2 scopes needed to read documents.
var Scopes = []string{docsv1.DocumentsReadonlyScope, drive.DriveReadonlyScope}

var documentLinkRE = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)

// ExtractDocumentID returns the document id in a Google Docs link such as
// https://docs.google.com/document/d/abc123/edit.
func ExtractDocumentID(url string) (string, bool) {
	m := documentLinkRE.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractDocumentIDs returns the ids of every document link in text, in order
// of appearance and without duplicates.
func ExtractDocumentIDs(text string) []string {
	var ids []string
	seen := map[string]bool{}
	for _, m := range documentLinkRE.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}
	return ids
}

// Authenticator supplies client options for a Google API service.
type Authenticator interface {
	ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error)
	Summary() string
}

// Client is the document adapter.
type Client struct {
	auth  Authenticator
	logf  func(message string, args ...interface{})
	extra []option.ClientOption
}

// New returns a Client. extra options are appended after the authentication
// options.
func New(auth Authenticator, logf func(message string, args ...interface{}), extra ...option.ClientOption) *Client {
	return &Client{
		auth:  auth,
		logf:  logf,
		extra: extra,
	}
}

// ReadDocumentText returns the text of every paragraph run in the document,
// in document order, with surrounding whitespace trimmed. Tables, images and
// other structural elements are skipped.
func (c *Client) ReadDocumentText(ctx context.Context, documentID string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "docs.ReadDocumentText")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("document", documentID))

	doc, err := c.get(ctx, documentID)
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		c.logf("error reading Google Doc %q: %v (credentials check: %s)\n", documentID, err, c.auth.Summary())
		return "", apperr.Wrap(apperr.Adapter, "docs.ReadDocumentText", err, "failed to read document")
	}

	return PlainText(doc), nil
}

func (c *Client) get(ctx context.Context, documentID string) (*docsv1.Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.New(apperr.Adapter, "docs.get", "document id is empty")
	}

	opts, err := c.auth.ClientOptions(ctx, Scopes...)
	if err != nil {
		return nil, err
	}
	svc, err := docsv1.NewService(ctx, append(opts, c.extra...)...)
	if err != nil {
		return nil, err
	}
	return svc.Documents.Get(documentID).Context(ctx).Do()
}

// PlainText flattens the paragraph text runs of doc.
func PlainText(doc *docsv1.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}

	var sb strings.Builder
	for _, el := range doc.Body.Content {
		if el == nil || el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe == nil || pe.TextRun == nil {
				continue
			}
			sb.WriteString(pe.TextRun.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}
