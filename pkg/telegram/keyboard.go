package telegram

import (
	"strings"

	"github.com/burrowbot/burrow/pkg/navigation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxKeyboardItems leaves room for Back and Home under Telegram's limit of
// 100 buttons per keyboard.
// TODO: page through listings larger than this instead of cutting them off.
const maxKeyboardItems = 98

// renderListing turns a listing into the message text and inline keyboard
// that show it. Every entry gets its own row; Back and Home share the last one.
func renderListing(listing *navigation.Listing) (string, tgbotapi.InlineKeyboardMarkup) {
	lines := []string{listing.Header}

	items := listing.Items
	if len(items) == 0 {
		lines = append(lines, "", emptyFolderText)
	} else if len(items) > maxKeyboardItems {
		lines = append(lines, "", truncatedText(maxKeyboardItems, len(items)))
		items = items[:maxKeyboardItems]
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(it.Label, it.Token),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if listing.Up != nil {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(listing.Up.Label, listing.Up.Token))
	}
	if listing.Home != nil {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(listing.Home.Label, listing.Home.Token))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	// A nil keyboard is sent as null, which Telegram rejects.
	return fitText(strings.Join(lines, "\n")), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
