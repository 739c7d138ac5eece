package navigation

import (
	"github.com/burrowbot/burrow/pkg/pathguard"
)

type OutcomeKind int

const (
	OutcomeNavigated OutcomeKind = iota + 1
	OutcomeFileRequested
	OutcomeDenied
	OutcomeNotFound
	OutcomePermissionDenied
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNavigated:
		return "navigated"
	case OutcomeFileRequested:
		return "file_requested"
	case OutcomeDenied:
		return "denied"
	case OutcomeNotFound:
		return "not_found"
	case OutcomePermissionDenied:
		return "permission_denied"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileRequest tells the transport which confined file to send. The engine never
// reads file contents itself.
type FileRequest struct {
	Location pathguard.Location
	// Path is root-relative.
	Path string
	Name string
	Size int64
}

// Outcome is the result of applying one action. Exactly one of Listing and
// File is set for the successful kinds; the failure kinds only carry Reason,
// which is for logs and must never be shown to the user.
type Outcome struct {
	Kind    OutcomeKind
	Listing *Listing
	File    *FileRequest
	Reason  string
}

// Message is the text shown to the user for failure outcomes. It never
// includes a filesystem path.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeDenied:
		return "⚠️ Access denied."
	case OutcomeNotFound:
		return "❌ This item no longer exists."
	case OutcomePermissionDenied:
		return "⛔ No access to this item."
	case OutcomeFailed:
		return "⚠️ Something went wrong. Please try again."
	default:
		return ""
	}
}

func (o Outcome) OK() bool {
	return o.Kind == OutcomeNavigated || o.Kind == OutcomeFileRequested
}
