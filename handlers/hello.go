package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobridge/reviewbot/bot"
	"github.com/gobridge/reviewbot/completion"
)

const helloPrompt = `Say "OpenAI connected!" in a fun way`

// Hello checks the connections to the template map and the language model and
// reports each one separately.
func Hello(s SheetReader, c Completer, templateMapID string) bot.Handler {
	return bot.HandlerFunc(func(ctx context.Context, inv bot.Invocation, r bot.Responder) {
		greeting := fmt.Sprintf("Hello <@%s>! 🎉", inv.UserID)
		r.Respond(ctx, greeting+" Testing connections... ⏳")

		lines := []string{greeting, "", "✅ Bot working!"}

		rows, err := readRange(ctx, s, templateMapID, "A1:E10")
		if err != nil {
			lines = append(lines, "❌ Google Sheets error: "+errText(err))
		} else {
			lines = append(lines, fmt.Sprintf("✅ Google Sheets: %d rows found", rows.Len()))
		}

		text, err := c.Complete(ctx, []completion.Message{completion.User(helloPrompt)}, 50)
		if err != nil {
			lines = append(lines, "❌ OpenAI error: "+errText(err))
		} else {
			lines = append(lines, "✅ OpenAI: "+text)
		}

		r.Replace(ctx, strings.Join(lines, "\n"))
	})
}
