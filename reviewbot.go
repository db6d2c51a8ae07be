// Copyright 2016 Florin Pățan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command reviewbot
//
// This is a Slack bot that reviews client documents against the template
// standards kept in a Google Sheet, records approvals and answers template
// questions.
//
// To run this you need to set the ` SLACK_BOT_TOKEN ` and
// ` SLACK_SIGNING_SECRET ` environment variables. Google access needs
// ` GOOGLE_PROJECT_ID `, ` GOOGLE_CLIENT_EMAIL ` and ` GOOGLE_PRIVATE_KEY `
// for a service account, and AI features need ` OPENAI_API_KEY `. Variables
// can also be put in a .env file.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gobridge/reviewbot/bot"
	"github.com/gobridge/reviewbot/completion"
	"github.com/gobridge/reviewbot/config"
	"github.com/gobridge/reviewbot/credentials"
	"github.com/gobridge/reviewbot/docs"
	"github.com/gobridge/reviewbot/handlers"
	"github.com/gobridge/reviewbot/sheets"
	"github.com/nlopes/slack"
	"github.com/spf13/cobra"
)

const (
	botName         = "reviewbot"
	shutdownTimeout = 30 * time.Second
)

var botVersion = "HEAD"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          botName,
		Short:        "Slack bot for template reviews and approvals",
		Version:      botVersion,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newInvokeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve Slack slash commands over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DevMode {
				bot.EnableSpanLogging(log.Printf)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := newBot(cfg, log.Printf)
			if err := b.Init(ctx); err != nil {
				return err
			}

			return serve(ctx, cfg.Port, b, shutdownTimeout)
		},
	}
}

func newInvokeCmd() *cobra.Command {
	var userID, userName string
	cmd := &cobra.Command{
		Use:   "invoke <command> [text...]",
		Short: "Run one slash command locally and print the replies",
		Example: `  reviewbot invoke /hello
  reviewbot invoke /answer How should I format resume headers?`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadLocal()
			if err != nil {
				return err
			}

			b := newBot(cfg, log.Printf)
			b.Dispatch(cmd.Context(), bot.Invocation{
				Command:  args[0],
				Text:     strings.Join(args[1:], " "),
				UserID:   userID,
				UserName: userName,
			}, bot.WriterResponder{W: cmd.OutOrStdout()})
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "ULOCAL", "Slack user id to run the command as")
	cmd.Flags().StringVar(&userName, "user-name", os.Getenv("USER"), "Slack user name to run the command as")
	return cmd
}

// newBot wires the adapters into the command handlers.
func newBot(cfg config.Config, logf bot.Logger) *bot.Bot {
	httpClient := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   15 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	creds := credentials.New(cfg.GoogleProjectID, cfg.GoogleClientEmail, cfg.GooglePrivateKey)
	if err := creds.Validate(); err != nil {
		logf("Google adapters will fail: %v\n", err)
	}
	sheetsClient := sheets.New(creds, logf)

	completer := completion.New(cfg.OpenAIKey,
		completion.WithModel(cfg.OpenAIModel),
		completion.WithRateLimit(cfg.CompletionRateLimit),
	)
	if !completer.Configured() {
		logf("OpenAI API key not configured, completions are disabled\n")
	}

	var documents handlers.DocumentReader
	if cfg.ReviewFetchDocuments {
		documents = docs.New(creds, logf)
	}

	b := bot.NewBot(slack.New(cfg.SlackToken), httpClient, botName, cfg.SlackSigningSecret, botVersion, cfg.DevMode, logf)
	b.Handle("/hello", handlers.Hello(sheetsClient, completer, cfg.TemplateMapID))
	b.Handle("/help", handlers.Help(b.Version()))
	b.Handle("/approved", handlers.Approved(sheetsClient, cfg.DefaultClientID, time.Now))
	b.Handle("/answer", handlers.Answer(completer))
	b.Handle("/review", handlers.Review(sheetsClient, completer, documents, cfg.TemplateMapID, logf))
	return b
}

// serve runs the HTTP server on port until ctx is done.
func serve(ctx context.Context, port string, b *bot.Bot, timeout time.Duration) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	log.Printf("⚡️ %s %s (%s) is running on port %s\n", botName, b.Version(), b.ID(), port)
	return serveListener(ctx, ln, b, timeout)
}

// serveListener serves on ln until ctx is done. On shutdown it waits up to
// timeout for open requests and for commands that were already acknowledged.
func serveListener(ctx context.Context, ln net.Listener, b *bot.Bot, timeout time.Duration) error {
	srv := &http.Server{
		Handler:           b.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if werr := b.Wait(shutdownCtx); werr != nil {
		log.Printf("gave up waiting for running commands: %v\n", werr)
		if err == nil {
			err = werr
		}
	}
	return err
}
