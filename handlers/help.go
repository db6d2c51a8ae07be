package handlers

import (
	"context"

	"github.com/gobridge/reviewbot/bot"
)

// Help replies with the list of commands and the running version.
func Help(version string) bot.Handler {
	msg := helpMessage() + "\n\n_reviewbot " + version + "_"
	return bot.HandlerFunc(func(ctx context.Context, inv bot.Invocation, r bot.Responder) {
		r.Respond(ctx, msg)
	})
}

func helpMessage() string {
	return `🤖 *Template Review Bot - Help*

*Available Commands:*

📋 ` + "`/review [document_links]`" + `
Review client templates against predefined standards
Example: ` + "`/review https://docs.google.com/document/d/abc123`" + `

🤖 ` + "`/answer [your_question]`" + `
Get AI-powered answers to template questions
Example: ` + "`/answer How should I format resume headers?`" + `

✅ ` + "`/approved [sheet_id] [doc_link] [template_key]`" + `
Save approved documents to Master DB
Example: ` + "`/approved 1ABC123XYZ https://docs.google.com/document/d/abc123 resume`" + `

🔧 ` + "`/hello`" + `
Test all system connections

❓ ` + "`/help`" + `
Show this help message

*Need Support?* Contact your system administrator.`
}
