package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobridge/reviewbot/bot"
	"github.com/gobridge/reviewbot/completion"
)

const (
	answerPreamble = "You are a helpful assistant for template review and document questions. Provide clear, concise answers."

	answerNotConfigured = "🤖 *AI Answer Service*\n\n" +
		"❌ OpenAI API key not configured. Please add your API key to use this feature.\n\n" +
		"_This command will provide AI-powered answers to your questions once the API key is set up._"

	answerUsage = "❓ Please ask a question.\nExample: `/answer How do I format a resume template?`"
)

// Answer asks the language model the question given as the command's text.
func Answer(c Completer) bot.Handler {
	return bot.HandlerFunc(func(ctx context.Context, inv bot.Invocation, r bot.Responder) {
		if !c.Configured() {
			r.Respond(ctx, answerNotConfigured)
			return
		}

		question := strings.TrimSpace(inv.Text)
		if question == "" {
			r.Respond(ctx, answerUsage)
			return
		}

		r.Respond(ctx, "🤖 Generating AI answer... ⏳\n\nQuestion: "+question)

		answer, err := c.Complete(ctx, []completion.Message{
			completion.System(answerPreamble),
			completion.User(question),
		}, 300)
		if err != nil {
			r.Replace(ctx, "❌ AI service error: "+errText(err))
			return
		}

		r.Replace(ctx, fmt.Sprintf("🤖 *AI Answer*\n\n*Question:* %s\n\n*Answer:* %s", question, answer))
	})
}
