package telegram

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/burrowbot/burrow/pkg/filesystem"
	"github.com/burrowbot/burrow/pkg/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderListing_EmptyRoot(t *testing.T) {
	t.Parallel()

	text, markup := renderListing(&navigation.Listing{Path: "/", Header: "📂 /", Items: []navigation.Item{}})
	assert.Equal(t, "📂 /\n\n"+emptyFolderText, text)
	// Never nil, or it's serialized as null.
	assert.NotNil(t, markup.InlineKeyboard)
	assert.Empty(t, markup.InlineKeyboard)
}

func TestRenderListing_EmptySubfolder(t *testing.T) {
	t.Parallel()

	text, markup := renderListing(&navigation.Listing{
		Path:   "/empty",
		Header: "📂 /empty",
		Items:  []navigation.Item{},
		Up:     &navigation.Item{Token: "p:.", Label: "◀️ Back"},
		Home:   &navigation.Item{Token: "h", Label: "🏠 Home"},
	})
	assert.Contains(t, text, emptyFolderText)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "p:.", *markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "h", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestRenderListing_CutsOffLargeListings(t *testing.T) {
	t.Parallel()

	items := make([]navigation.Item, 150)
	for i := range items {
		name := fmt.Sprintf("file-%03d", i)
		items[i] = navigation.Item{Token: "f:" + name, Label: "📄 " + name, Kind: filesystem.KindRegularFile, Name: name}
	}
	text, markup := renderListing(&navigation.Listing{
		Path:   "/big",
		Header: "📂 /big",
		Items:  items,
		Up:     &navigation.Item{Token: "p:.", Label: "◀️ Back"},
		Home:   &navigation.Item{Token: "h", Label: "🏠 Home"},
	})

	assert.Contains(t, text, "Showing the first 98 of 150 items.")
	require.Len(t, markup.InlineKeyboard, maxKeyboardItems+1)
	assert.Equal(t, "📄 file-097", markup.InlineKeyboard[maxKeyboardItems-1][0].Text)
	assert.Len(t, markup.InlineKeyboard[maxKeyboardItems], 2)
}

func TestFitText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", fitText("short"))

	long := "📂 /" + strings.Repeat("a/", 3000) + "tail"
	fitted := fitText(long)
	assert.Equal(t, maxMessageLength, utf8.RuneCountInString(fitted))
	assert.True(t, strings.HasPrefix(fitted, "…"))
	assert.True(t, strings.HasSuffix(fitted, "/tail"))
}

func TestStartText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hi Ada!\nUse /browse to look through the files.", startText("Ada"))
	assert.Equal(t, "Hi!\nUse /browse to look through the files.", startText("  "))
}
