package navigation

import (
	"strings"

	"github.com/burrowbot/burrow/pkg/filesystem"
	"github.com/burrowbot/burrow/pkg/pathguard"
)

const (
	labelBack = "◀️ Back"
	labelHome = "🏠 Home"
)

// Item is one selectable action in a rendered listing.
type Item struct {
	Token string          `json:"token"`
	Label string          `json:"label"`
	Kind  filesystem.Kind `json:"kind"`
	Name  string          `json:"name"`
}

// Listing is what the transport shows for a location: a header, one item per
// directory or file, and Up/Home which are only set below the root.
type Listing struct {
	Location pathguard.Location `json:"-"`
	// Path is the root-relative display form, e.g. "/docs".
	Path   string `json:"path"`
	Header string `json:"header"`
	Items  []Item `json:"items"`
	Up     *Item  `json:"up,omitempty"`
	Home   *Item  `json:"home,omitempty"`
}

func (l *Listing) Empty() bool {
	return len(l.Items) == 0
}

// Tokens returns every token in display order, Up and Home last.
func (l *Listing) Tokens() []string {
	tokens := make([]string, 0, len(l.Items)+2)
	for _, it := range l.Items {
		tokens = append(tokens, it.Token)
	}
	if l.Up != nil {
		tokens = append(tokens, l.Up.Token)
	}
	if l.Home != nil {
		tokens = append(tokens, l.Home.Token)
	}
	return tokens
}

func entryLabel(kind filesystem.Kind, name string) string {
	icon := "📄 "
	if kind == filesystem.KindDirectory {
		icon = "📁 "
	}
	return icon + displayName(name)
}

func header(display string) string {
	return "📂 " + displayName(display)
}

// displayName makes a raw file name safe to show in a chat message.
func displayName(name string) string {
	return strings.ToValidUTF8(name, "�")
}
