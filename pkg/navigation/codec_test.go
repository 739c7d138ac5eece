package navigation

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	origin := originDigest("docs")

	tests := []struct {
		name   string
		action Action
		token  string
	}{
		{"enter folder", EnterFolder(origin, "photos"), "d" + origin + ":photos"},
		{"enter folder relative to current", EnterFolder("", "photos"), "d:photos"},
		{"fetch file", FetchFile(origin, "readme.txt"), "f" + origin + ":readme.txt"},
		{"name with colon", FetchFile(origin, "a:b.txt"), "f" + origin + ":a:b.txt"},
		{"go parent", GoParent("docs/inner"), "p:docs/inner"},
		{"go parent to root", GoParent("."), "p:."},
		{"go home", GoHome(), "h"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(tt *testing.T) {
			token := Encode(tc.action)
			assert.Equal(tt, tc.token, token)

			decoded, err := Decode(token)
			require.NoError(tt, err)
			assert.Equal(tt, tc.action, decoded)
		})
	}
}

func TestEncode_LongValuesBecomeReferences(t *testing.T) {
	t.Parallel()
	origin := originDigest(".")

	long := strings.Repeat("ü", 40) + ".txt"
	for _, a := range []Action{
		FetchFile(origin, long),
		EnterFolder(origin, "#hashtag"),
		EnterFolder(origin, "bad\xffutf8"),
		GoParent(strings.Repeat("deep/", 20) + "dir"),
	} {
		token := Encode(a)
		assert.LessOrEqual(t, len(token), MaxTokenLength)
		assert.Contains(t, token, refPrefix)

		decoded, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, a.Kind, decoded.Kind)
		assert.Equal(t, a.Origin, decoded.Origin)
		assert.Empty(t, decoded.Name)
		assert.Empty(t, decoded.Path)
		value := a.Name
		if a.Kind == ActionGoParent {
			value = a.Path
		}
		assert.Equal(t, refDigest(value), decoded.Ref)
	}
}

func TestEncode_FitsExactlyAtLimit(t *testing.T) {
	t.Parallel()
	origin := originDigest(".")
	room := MaxTokenLength - len("d"+origin+":")

	fits := strings.Repeat("a", room)
	assert.Equal(t, "d"+origin+":"+fits, Encode(EnterFolder(origin, fits)))

	tooLong := strings.Repeat("a", room+1)
	assert.Equal(t, "d"+origin+":#"+refDigest(tooLong), Encode(EnterFolder(origin, tooLong)))
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	for _, token := range []string{
		"",
		"x",
		"hh",
		"p:",
		"d",
		"dabc:name",
		"d0123456:",
		"dZZZZZZZZ:name",
		"f0123456",
		"d:#nothex",
		"p:#0123",
		"d:" + strings.Repeat("a", MaxTokenLength),
		"d:\xff",
		"folder:docs",
	} {
		_, err := Decode(token)
		assert.True(t, errors.Is(err, ErrMalformedToken), "token %q should be malformed", token)
	}
}
