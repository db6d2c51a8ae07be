package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gobridge/reviewbot/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeAuth struct {
	srv *httptest.Server
	err error
}

func (a fakeAuth) ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error) {
	if a.err != nil {
		return nil, a.err
	}
	return []option.ClientOption{
		option.WithHTTPClient(a.srv.Client()),
		option.WithEndpoint(a.srv.URL + "/"),
	}, nil
}

func (a fakeAuth) Summary() string { return "hasProjectId=true" }

func nopLogf(string, ...interface{}) {}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(fakeAuth{srv: srv}, nopLogf)
}

func mustRange(t *testing.T, id, a1 string) CellRange {
	r, err := NewCellRange(id, a1)
	require.NoError(t, err)
	return r
}

func TestReadRange(t *testing.T) {
	t.Run("returns rows", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v4/spreadsheets/sheet-1/values/A1:E10", r.URL.Path)
			io.WriteString(w, `{"range":"Sheet1!A1:E10","majorDimension":"ROWS","values":[["resume","Resume","2.0"],["cover"],["bio","Bio",3]]}`)
		})

		rows, err := c.ReadRange(context.Background(), mustRange(t, "sheet-1", "A1:E10"))
		require.NoError(t, err)
		assert.Equal(t, 3, rows.Len())
		assert.Equal(t, "Resume", rows.Cell(0, 1))
		assert.Equal(t, "3", rows.Cell(2, 2))
		assert.Equal(t, "", rows.Cell(1, 4))
	})

	t.Run("empty range", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"range":"Sheet1!A20:E30","majorDimension":"ROWS"}`)
		})

		rows, err := c.ReadRange(context.Background(), mustRange(t, "sheet-1", "A20:E30"))
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Equal(t, 0, rows.Len())
	})

	t.Run("not found surfaces the cause", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`)
		})

		_, err := c.ReadRange(context.Background(), mustRange(t, "missing", "A1:E10"))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.Adapter))
		assert.Contains(t, err.Error(), "failed to read sheet missing range A1:E10")
		assert.Contains(t, err.Error(), "Requested entity was not found.")
	})

	t.Run("authentication failure", func(t *testing.T) {
		c := New(fakeAuth{err: errors.New("invalid_grant")}, nopLogf)

		_, err := c.ReadRange(context.Background(), mustRange(t, "sheet-1", "A1:E10"))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.Adapter))
		assert.Contains(t, err.Error(), "invalid_grant")
	})

	t.Run("invalid range never calls out", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		_, err := c.ReadRange(context.Background(), CellRange{SpreadsheetID: "sheet-1", A1: "??"})
		assert.True(t, apperr.Is(err, apperr.Adapter))
	})
}

func TestAppendRows(t *testing.T) {
	t.Run("user entered values", func(t *testing.T) {
		var got struct {
			Values [][]string `json:"values"`
		}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v4/spreadsheets/master/values/A:H:append", r.URL.Path)
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			io.WriteString(w, `{"spreadsheetId":"master","updates":{"updatedRows":1}}`)
		})

		rows := RowSet{{"client1", "default", "APPROVED", "https://docs.google.com/document/d/abc", "1.0", "ann", "2024-01-02T03:04:05.000Z", "Approved via Slack bot"}}
		err := c.AppendRows(context.Background(), mustRange(t, "master", "A:H"), rows)
		require.NoError(t, err)
		require.Len(t, got.Values, 1)
		assert.Equal(t, []string(rows[0]), got.Values[0])
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`)
		})

		err := c.AppendRows(context.Background(), mustRange(t, "master", "A:H"), RowSet{{"x"}})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.Adapter))
		assert.Contains(t, err.Error(), "The caller does not have permission")
	})

	t.Run("no rows is a no-op", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		assert.NoError(t, c.AppendRows(context.Background(), mustRange(t, "master", "A:H"), nil))
	})
}
