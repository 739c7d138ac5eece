// Package navigation holds the per-user browsing state machine. Users move
// around the root directory by applying actions; actions travel through the
// chat transport as short opaque tokens (see Codec) and are re-validated
// against the path guard and the filesystem every time they are applied.
package navigation

type ActionKind int

const (
	ActionEnterFolder ActionKind = iota + 1
	ActionFetchFile
	ActionGoParent
	ActionGoHome
)

func (k ActionKind) String() string {
	switch k {
	case ActionEnterFolder:
		return "enter_folder"
	case ActionFetchFile:
		return "fetch_file"
	case ActionGoParent:
		return "go_parent"
	case ActionGoHome:
		return "go_home"
	default:
		return "unknown"
	}
}

// Action is one user intent. Which fields are set depends on Kind:
// EnterFolder and FetchFile use Origin and Name, GoParent uses Path. Ref
// stands in for Name or Path when the value was too long to fit in a token and
// has to be looked up again at apply time.
type Action struct {
	Kind ActionKind
	// Origin is the digest of the location the action was rendered from.
	// Empty means the session's current location.
	Origin string
	Name   string
	// Path is root-relative and slash-separated.
	Path string
	Ref  string
}

func EnterFolder(origin, name string) Action {
	return Action{Kind: ActionEnterFolder, Origin: origin, Name: name}
}

func FetchFile(origin, name string) Action {
	return Action{Kind: ActionFetchFile, Origin: origin, Name: name}
}

func GoParent(path string) Action {
	return Action{Kind: ActionGoParent, Path: path}
}

func GoHome() Action {
	return Action{Kind: ActionGoHome}
}
