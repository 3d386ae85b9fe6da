package bot

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-retrobot/internal/domain"
)

// Command is a recognized mention keyword.
type Command string

const (
	CmdStart     Command = "start"
	CmdStop      Command = "stop"
	CmdContinue  Command = "continue"
	CmdKudo      Command = "kudo"
	CmdSummarize Command = "summarize"
)

// commandOrder is the prefix test order; the first match wins.
var commandOrder = []Command{CmdStart, CmdStop, CmdContinue, CmdKudo, CmdSummarize}

// Classify maps normalized command text to a Command by prefix.
func Classify(text string) (Command, bool) {
	for _, c := range commandOrder {
		if strings.HasPrefix(text, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Category returns the feedback category recorded by c. Summarize records
// nothing and reports false.
func (c Command) Category() (domain.Category, bool) {
	if c == CmdSummarize {
		return "", false
	}
	return domain.ParseCategory(string(c))
}

// Mention is how the chat platform renders a mention of user id in text.
func Mention(id string) string {
	return "<@" + id + ">"
}

// ExtractCommand returns the text after the first occurrence of mention, up
// to the next one, trimmed and lower-cased. It reports false when text does
// not mention the bot.
func ExtractCommand(text, mention string) (string, bool) {
	_, after, ok := strings.Cut(text, mention)
	if !ok {
		return "", false
	}
	if i := strings.Index(after, mention); i >= 0 {
		after = after[:i]
	}
	return cases.Lower(language.Und).String(strings.TrimSpace(after)), true
}
