package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nlopes/slack"
	"go.opencensus.io/trace"
)

const responseTypeEphemeral = "ephemeral"

// reply is the JSON body accepted by a slash command's response_url.
type reply struct {
	Text            string `json:"text"`
	ResponseType    string `json:"response_type"`
	ReplaceOriginal bool   `json:"replace_original"`
}

// Routes returns the HTTP handler serving Slack slash commands on
// /slack/commands and a health check on /healthz.
func (b *Bot) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/slack/commands", b.serveCommand).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok")
	}).Methods(http.MethodGet)
	return r
}

// serveCommand acknowledges the slash command before any work is done, then
// dispatches it on its own goroutine. Slack expects the ack within 3 seconds.
func (b *Bot) serveCommand(w http.ResponseWriter, r *http.Request) {
	cmd, status, err := b.parseCommand(r)
	if err != nil {
		b.logf("rejecting slash command: %v\n", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.WriteHeader(http.StatusOK)

	inv := NewInvocation(cmd)
	responder := b.responderFor(inv)
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.Dispatch(context.Background(), inv, responder)
	}()
}

func (b *Bot) parseCommand(r *http.Request) (slack.SlashCommand, int, error) {
	if b.signingSecret == "" && b.devMode {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			return slack.SlashCommand{}, http.StatusBadRequest, err
		}
		return cmd, http.StatusOK, nil
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, b.signingSecret)
	if err != nil {
		return slack.SlashCommand{}, http.StatusUnauthorized, err
	}
	r.Body = ioutil.NopCloser(io.TeeReader(r.Body, &verifier))

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		return slack.SlashCommand{}, http.StatusBadRequest, err
	}
	if err := verifier.Ensure(); err != nil {
		return slack.SlashCommand{}, http.StatusUnauthorized, err
	}
	return cmd, http.StatusOK, nil
}

func (b *Bot) responderFor(inv Invocation) Responder {
	if inv.ResponseURL == "" {
		return &LogResponder{logf: b.logf, id: inv.ID}
	}
	return &ResponseURLResponder{
		client: b.client,
		url:    inv.ResponseURL,
		logf:   b.logf,
	}
}

// ResponseURLResponder replies through a slash command's response_url.
type ResponseURLResponder struct {
	client Client
	url    string
	logf   Logger
}

// NewResponseURLResponder returns a Responder posting to url.
func NewResponseURLResponder(c Client, url string, logf Logger) *ResponseURLResponder {
	return &ResponseURLResponder{client: c, url: url, logf: logf}
}

// Respond posts a new ephemeral reply.
func (rr *ResponseURLResponder) Respond(ctx context.Context, text string) {
	rr.post(ctx, text, false)
}

// Replace posts an ephemeral reply replacing the previous one.
func (rr *ResponseURLResponder) Replace(ctx context.Context, text string) {
	rr.post(ctx, text, true)
}

func (rr *ResponseURLResponder) post(ctx context.Context, text string, replace bool) {
	ctx, span := trace.StartSpan(ctx, "responseURL.post")
	defer span.End()

	body, err := json.Marshal(reply{
		Text:            text,
		ResponseType:    responseTypeEphemeral,
		ReplaceOriginal: replace,
	})
	if err != nil {
		rr.logf("error while encoding reply: %v\n", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, rr.url, bytes.NewReader(body))
	if err != nil {
		rr.logf("failed to build reply request: %v\n", err)
		return
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", "reviewbot")

	resp, err := rr.client.Do(req)
	if err != nil {
		rr.logf("error while replying: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		rr.logf("got non-200 response to reply: %d %s\n", resp.StatusCode, bytes.TrimSpace(b))
	}
}

// LogResponder logs replies instead of sending them. It's used when an
// invocation has no response URL.
type LogResponder struct {
	logf Logger
	id   string
}

// Respond logs text.
func (lr *LogResponder) Respond(_ context.Context, text string) {
	lr.logf("[%s] should reply with %s\n", lr.id, text)
}

// Replace logs text.
func (lr *LogResponder) Replace(_ context.Context, text string) {
	lr.logf("[%s] should replace reply with %s\n", lr.id, text)
}

// WriterResponder prints replies to w. It backs the invoke CLI command.
type WriterResponder struct {
	W io.Writer
}

// Respond prints text.
func (wr WriterResponder) Respond(_ context.Context, text string) {
	fmt.Fprintf(wr.W, "%s\n\n", text)
}

// Replace prints text, marked as a replacement.
func (wr WriterResponder) Replace(_ context.Context, text string) {
	fmt.Fprintf(wr.W, "(replaces previous reply)\n%s\n\n", text)
}
