package bot

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nlopes/slack"
	"go.opencensus.io/trace"
)

type (
	// Client is the HTTP client
	Client interface {
		Do(r *http.Request) (*http.Response, error)
	}

	// Logger function
	Logger func(message string, args ...interface{})

	// Invocation is a single slash command run by a user.
	Invocation struct {
		// ID correlates log lines for one invocation.
		ID          string
		Command     string
		Text        string
		UserID      string
		UserName    string
		ChannelID   string
		ResponseURL string
	}

	// Responder sends ephemeral replies for an invocation. Delivery errors
	// are logged by the implementation.
	Responder interface {
		// Respond posts a new reply.
		Respond(ctx context.Context, text string)
		// Replace posts a reply replacing the previous one.
		Replace(ctx context.Context, text string)
	}

	// Handler runs a command.
	Handler interface {
		Handle(ctx context.Context, inv Invocation, r Responder)
	}

	// HandlerFunc adapts a function to Handler.
	HandlerFunc func(ctx context.Context, inv Invocation, r Responder)

	// Bot structure
	Bot struct {
		id            string
		name          string
		version       string
		signingSecret string
		devMode       bool
		logf          Logger
		client        Client
		slackBotAPI   *slack.Client
		commands      map[string]Handler
		inflight      sync.WaitGroup
	}
)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, inv Invocation, r Responder) {
	f(ctx, inv, r)
}

// NewBot will create a new Slack bot
func NewBot(slackBotAPI *slack.Client, httpClient Client, name, signingSecret, version string, devMode bool, log Logger) *Bot {
	return &Bot{
		name:          name,
		version:       version,
		signingSecret: signingSecret,
		devMode:       devMode,
		logf:          log,
		client:        httpClient,
		slackBotAPI:   slackBotAPI,
		commands:      map[string]Handler{},
	}
}

// Init should be called before serving commands. It checks the bot token
// and records the bot's identity.
func (b *Bot) Init(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "b.Init")
	defer span.End()

	b.logf("Determining bot identity\n")
	resp, err := b.slackBotAPI.AuthTestContext(ctx)
	if err != nil {
		if b.devMode {
			b.logf("auth.test failed, continuing in dev mode: %v\n", err)
			return nil
		}
		return fmt.Errorf("slack auth.test: %v", err)
	}

	b.id = resp.UserID
	b.logf("Initialized %s (version %s) as %s in team %s\n", b.name, b.version, resp.User, resp.Team)
	return nil
}

// ID returns the bot's Slack user ID, known after Init.
func (b *Bot) ID() string { return b.id }

// Version returns the deployed version.
func (b *Bot) Version() string { return b.version }

// Wait blocks until every acknowledged command has been handled or ctx is
// done.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle registers h for command, e.g. "/hello".
func (b *Bot) Handle(command string, h Handler) {
	b.commands[normalizeCommand(command)] = h
}

// Commands returns the registered commands in order.
func (b *Bot) Commands() []string {
	out := make([]string, 0, len(b.commands))
	for c := range b.commands {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler registered for inv.Command. It never panics and
// never returns an error; failures are reported through r.
func (b *Bot) Dispatch(ctx context.Context, inv Invocation, r Responder) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	ctx, span := trace.StartSpan(ctx, "b.Dispatch")
	defer span.End()
	span.AddAttributes(
		trace.StringAttribute("command", inv.Command),
		trace.StringAttribute("user", inv.UserID),
		trace.StringAttribute("request", inv.ID),
	)

	if b.devMode {
		b.logf("[%s] %s %q from %s (%s)\n", inv.ID, inv.Command, inv.Text, inv.UserName, inv.UserID)
	} else {
		b.logf("[%s] %s from %s\n", inv.ID, inv.Command, inv.UserID)
	}

	h, ok := b.commands[normalizeCommand(inv.Command)]
	if !ok {
		r.Respond(ctx, fmt.Sprintf("Unknown command %s. Try /help.", inv.Command))
		return
	}

	defer func() {
		if p := recover(); p != nil {
			span.SetStatus(trace.Status{Code: trace.StatusCodeInternal, Message: fmt.Sprint(p)})
			b.logf("[%s] panic while handling %s: %v\n%s", inv.ID, inv.Command, p, debug.Stack())
			r.Replace(ctx, "❌ Something went wrong while handling "+inv.Command)
		}
	}()
	h.Handle(ctx, inv, r)
}

// NewInvocation converts a parsed slash command.
func NewInvocation(cmd slack.SlashCommand) Invocation {
	return Invocation{
		ID:          uuid.NewString(),
		Command:     cmd.Command,
		Text:        cmd.Text,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		ChannelID:   cmd.ChannelID,
		ResponseURL: cmd.ResponseURL,
	}
}

func normalizeCommand(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if !strings.HasPrefix(c, "/") {
		c = "/" + c
	}
	return c
}
