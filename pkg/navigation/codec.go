package navigation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxTokenLength is Telegram's limit on callback_data.
const MaxTokenLength = 64

const (
	originDigestLength = 8
	refDigestLength    = 16
	refPrefix          = "#"

	tagEnterFolder = 'd'
	tagFetchFile   = 'f'
	tokenGoHome    = "h"
	prefixGoParent = "p:"
)

var ErrMalformedToken = errors.New("malformed action token")

// Encode serializes an action. The result is at most MaxTokenLength bytes and
// valid UTF-8:
//
//	d<origin>:<name>   enter folder
//	f<origin>:<name>   fetch file
//	p:<path>           go to parent
//	h                  go home
//
// A name or path that doesn't fit, isn't valid UTF-8, or starts with "#" is
// replaced by "#" and a digest of it.
func Encode(a Action) string {
	switch a.Kind {
	case ActionEnterFolder, ActionFetchFile:
		tag := tagEnterFolder
		if a.Kind == ActionFetchFile {
			tag = tagFetchFile
		}
		head := string(tag) + a.Origin + ":"
		return head + carry(a.Name, a.Ref, MaxTokenLength-len(head))
	case ActionGoParent:
		return prefixGoParent + carry(a.Path, a.Ref, MaxTokenLength-len(prefixGoParent))
	default:
		return tokenGoHome
	}
}

func carry(value, ref string, room int) string {
	if ref != "" {
		return refPrefix + ref
	}
	if len(value) > room || !utf8.ValidString(value) || strings.HasPrefix(value, refPrefix) {
		return refPrefix + refDigest(value)
	}
	return value
}

// Decode is the inverse of Encode. Anything Encode could not have produced is
// rejected with ErrMalformedToken.
func Decode(token string) (Action, error) {
	if token == "" || len(token) > MaxTokenLength || !utf8.ValidString(token) {
		return Action{}, errors.WithStack(ErrMalformedToken)
	}

	switch {
	case token == tokenGoHome:
		return GoHome(), nil
	case strings.HasPrefix(token, prefixGoParent):
		a := Action{Kind: ActionGoParent}
		rest := strings.TrimPrefix(token, prefixGoParent)
		if rest == "" {
			return Action{}, errors.Wrap(ErrMalformedToken, "empty path")
		}
		if err := uncarry(rest, &a.Path, &a.Ref); err != nil {
			return Action{}, err
		}
		return a, nil
	case token[0] == tagEnterFolder || token[0] == tagFetchFile:
		a := Action{Kind: ActionEnterFolder}
		if token[0] == tagFetchFile {
			a.Kind = ActionFetchFile
		}
		origin, name, ok := strings.Cut(token[1:], ":")
		if !ok || name == "" {
			return Action{}, errors.Wrap(ErrMalformedToken, "missing name")
		}
		if origin != "" && !isDigest(origin, originDigestLength) {
			return Action{}, errors.Wrap(ErrMalformedToken, "bad origin")
		}
		a.Origin = origin
		if err := uncarry(name, &a.Name, &a.Ref); err != nil {
			return Action{}, err
		}
		return a, nil
	default:
		return Action{}, errors.Wrapf(ErrMalformedToken, "unknown tag %q", token[:1])
	}
}

func uncarry(raw string, value, ref *string) error {
	if !strings.HasPrefix(raw, refPrefix) {
		*value = raw
		return nil
	}
	digest := strings.TrimPrefix(raw, refPrefix)
	if !isDigest(digest, refDigestLength) {
		return errors.Wrap(ErrMalformedToken, "bad reference")
	}
	*ref = digest
	return nil
}

// originDigest identifies a rendered location by its root-relative path. A
// collision only matters between a location and one of its own ancestors,
// which is what the engine searches.
func originDigest(rel string) string {
	return digest(rel, originDigestLength)
}

func refDigest(value string) string {
	return digest(value, refDigestLength)
}

func digest(value string, length int) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:length]
}

func isDigest(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
