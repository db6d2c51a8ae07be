package main

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gobridge/reviewbot/bot"
	"github.com/nlopes/slack"
)

func TestServeFinishesAcknowledgedCommands(t *testing.T) {
	logf := func(message string, args ...interface{}) { t.Logf(message, args...) }
	b := bot.NewBot(slack.New("xoxb-test"), http.DefaultClient, botName, "", "test", true, logf)

	var finished int32
	started := make(chan struct{})
	b.Handle("/review", bot.HandlerFunc(func(ctx context.Context, inv bot.Invocation, r bot.Responder) {
		close(started)
		time.Sleep(300 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveListener(ctx, ln, b, 5*time.Second)
	}()

	form := url.Values{"command": {"/review"}, "text": {"https://docs.google.com/document/d/abc"}}
	resp, err := http.Post("http://"+ln.Addr().String()+"/slack/commands", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected: %d\nactual:%d", http.StatusOK, resp.StatusCode)
	}

	<-started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return")
	}

	if atomic.LoadInt32(&finished) != 1 {
		t.Error("serve returned while an acknowledged command was still running")
	}
}

func TestServeGivesUpAfterTimeout(t *testing.T) {
	logf := func(message string, args ...interface{}) { t.Logf(message, args...) }
	b := bot.NewBot(slack.New("xoxb-test"), http.DefaultClient, botName, "", "test", true, logf)

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	b.Handle("/review", bot.HandlerFunc(func(ctx context.Context, inv bot.Invocation, r bot.Responder) {
		close(started)
		<-release
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveListener(ctx, ln, b, 50*time.Millisecond)
	}()

	form := url.Values{"command": {"/review"}, "text": {"x"}}
	resp, err := http.Post("http://"+ln.Addr().String()+"/slack/commands", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	<-started
	cancel()

	select {
	case err := <-done:
		if err != context.DeadlineExceeded {
			t.Errorf("expected: %v\nactual:%v", context.DeadlineExceeded, err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return")
	}
}
