package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxMessageLength is Telegram's limit for the text of a single message.
const maxMessageLength = 4096

const (
	helpText = "Commands:\n" +
		"/browse - open the root folder\n" +
		"/help - show this message\n\n" +
		"Tap 📁 to open a folder and 📄 to get a file."
	emptyFolderText  = "📭 This folder is empty."
	fileTooLargeText = "⚠️ This file is too large to send."
	sendFailedText   = "⚠️ The file could not be sent."
)

func startText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		return "Hi!\nUse /browse to look through the files."
	}
	return fmt.Sprintf("Hi %s!\nUse /browse to look through the files.", name)
}

func fileSentText(name string) string {
	return fmt.Sprintf("File %s sent!", name)
}

func truncatedText(shown, total int) string {
	return fmt.Sprintf("Showing the first %d of %d items.", shown, total)
}

// fitText keeps the end of text when it is over the message limit. Deep paths
// are more useful with their last segments intact.
func fitText(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return text
	}
	runes := []rune(text)
	return "…" + string(runes[len(runes)-maxMessageLength+1:])
}
