package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/burrowbot/burrow/pkg/filesystem"
	"github.com/burrowbot/burrow/pkg/metrics"
	"github.com/burrowbot/burrow/pkg/pathguard"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Lister is the part of the filesystem service the engine needs.
type Lister interface {
	List(ctx context.Context, loc pathguard.Location) (*filesystem.Listing, error)
	Stat(ctx context.Context, loc pathguard.Location) (*filesystem.Entry, error)
}

type Engine struct {
	guard    *pathguard.Guard
	lister   Lister
	sessions Registry
	parents  *parentRefs
}

func NewEngine(guard *pathguard.Guard, lister Lister, sessions Registry) *Engine {
	return &Engine{
		guard:    guard,
		lister:   lister,
		sessions: sessions,
		parents:  &parentRefs{paths: map[string]string{}},
	}
}

// parentRefs remembers the root-relative path behind every Back token that
// had to be shortened to a digest, so the token still names its own target
// wherever the session has moved since.
type parentRefs struct {
	mu    sync.RWMutex
	paths map[string]string
}

func (p *parentRefs) remember(ref, rel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths[ref] = rel
}

func (p *parentRefs) lookup(ref string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rel, ok := p.paths[ref]
	return rel, ok
}

func (e *Engine) Guard() *pathguard.Guard {
	return e.guard
}

// Open puts the user's session back at the root.
func (e *Engine) Open(userID int64) pathguard.Location {
	s := e.sessions.Get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveTo(e.guard.Root())
	return e.guard.Root()
}

func (e *Engine) Current(userID int64) pathguard.Location {
	return e.sessions.Get(userID).Current()
}

func (e *Engine) Sessions() []SessionSnapshot {
	return e.sessions.Snapshot()
}

// Render lists loc and builds a fresh token for every entry. It doesn't touch
// any session, and two calls against an unchanged directory give the same
// result.
func (e *Engine) Render(ctx context.Context, loc pathguard.Location) (*Listing, error) {
	start := time.Now()
	defer func() { metrics.ObserveListing(time.Since(start)) }()

	fl, err := e.lister.List(ctx, loc)
	if err != nil {
		return nil, err
	}

	display := e.guard.Display(loc)
	origin := originDigest(e.guard.Rel(loc))
	listing := &Listing{
		Location: loc,
		Path:     display,
		Header:   header(display),
		Items:    make([]Item, 0, len(fl.Directories)+len(fl.Files)),
	}
	for _, d := range fl.Directories {
		listing.Items = append(listing.Items, Item{
			Token: Encode(EnterFolder(origin, d.Name)),
			Label: entryLabel(filesystem.KindDirectory, d.Name),
			Kind:  filesystem.KindDirectory,
			Name:  d.Name,
		})
	}
	for _, f := range fl.Files {
		listing.Items = append(listing.Items, Item{
			Token: Encode(FetchFile(origin, f.Name)),
			Label: entryLabel(filesystem.KindRegularFile, f.Name),
			Kind:  filesystem.KindRegularFile,
			Name:  f.Name,
		})
	}

	if !e.guard.IsRoot(loc) {
		parent := e.guard.Rel(e.guard.Parent(loc))
		up := Encode(GoParent(parent))
		if a, err := Decode(up); err == nil && a.Ref != "" {
			e.parents.remember(a.Ref, parent)
		}
		listing.Up = &Item{
			Token: up,
			Label: labelBack,
			Kind:  filesystem.KindDirectory,
		}
		listing.Home = &Item{
			Token: Encode(GoHome()),
			Label: labelHome,
			Kind:  filesystem.KindDirectory,
		}
	}

	return listing, nil
}

// Browse is what the /browse command does: go home, whatever the session's
// current location is.
func (e *Engine) Browse(ctx context.Context, userID int64) Outcome {
	return e.ApplyAction(ctx, userID, GoHome())
}

// Apply decodes token and applies it to the user's session. Garbage tokens are
// treated as denied.
func (e *Engine) Apply(ctx context.Context, userID int64, token string) Outcome {
	action, err := Decode(token)
	if err != nil {
		logger.FromContext(ctx).Warn("malformed action token", logger.Data{
			"user_id": userID,
			"token":   token,
		})
		return Outcome{Kind: OutcomeDenied, Reason: err.Error()}
	}
	return e.ApplyAction(ctx, userID, action)
}

// ApplyAction validates the action against the guard and the filesystem, and
// only then moves the session. The session lock is held throughout so two
// applies for the same user can't interleave.
func (e *Engine) ApplyAction(ctx context.Context, userID int64, action Action) Outcome {
	log := logger.FromContext(ctx).Data(logger.Data{
		"user_id": userID,
		"action":  action.Kind.String(),
	})
	ctx = log.WithContext(ctx)

	s := e.sessions.Get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome Outcome
	switch action.Kind {
	case ActionEnterFolder:
		outcome = e.enterFolder(ctx, s, action)
	case ActionFetchFile:
		outcome = e.fetchFile(ctx, s, action)
	case ActionGoParent:
		outcome = e.goParent(ctx, s, action)
	case ActionGoHome:
		outcome = e.navigate(ctx, s, e.guard.Root())
	default:
		outcome = Outcome{Kind: OutcomeDenied, Reason: "unknown action"}
	}

	metrics.RecordOutcome(action.Kind.String(), outcome.Kind.String())
	log.Debug("applied action", logger.Data{
		"outcome":  outcome.Kind.String(),
		"location": e.guard.Display(s.current),
	})
	return outcome
}

func (e *Engine) enterFolder(ctx context.Context, s *Session, action Action) Outcome {
	origin, ok := e.resolveOrigin(s.current, action.Origin)
	if !ok {
		return notFound("origin is no longer an ancestor of the current location")
	}
	name, err := e.resolveName(ctx, origin, action, filesystem.KindDirectory)
	if err != nil {
		return e.failure(ctx, err)
	}
	target, err := e.guard.Child(origin, name)
	if err != nil {
		return e.failure(ctx, err)
	}
	return e.navigate(ctx, s, target)
}

func (e *Engine) fetchFile(ctx context.Context, s *Session, action Action) Outcome {
	origin, ok := e.resolveOrigin(s.current, action.Origin)
	if !ok {
		return notFound("origin is no longer an ancestor of the current location")
	}
	name, err := e.resolveName(ctx, origin, action, filesystem.KindRegularFile)
	if err != nil {
		return e.failure(ctx, err)
	}
	target, err := e.guard.Child(origin, name)
	if err != nil {
		return e.failure(ctx, err)
	}

	// The listing this token came from may be stale.
	entry, err := e.lister.Stat(ctx, target)
	if err != nil {
		return e.failure(ctx, err)
	}
	if entry.Kind != filesystem.KindRegularFile {
		return notFound("not a regular file")
	}

	return Outcome{
		Kind: OutcomeFileRequested,
		File: &FileRequest{
			Location: target,
			Path:     e.guard.Rel(target),
			Name:     name,
			Size:     entry.Size,
		},
	}
}

func (e *Engine) goParent(ctx context.Context, s *Session, action Action) Outcome {
	path := action.Path
	if action.Ref != "" {
		rel, ok := e.parents.lookup(action.Ref)
		if !ok {
			// Rendered before a restart. The target may still be above us.
			for _, loc := range e.guard.Ancestors(s.current) {
				if refDigest(e.guard.Rel(loc)) == action.Ref {
					return e.navigate(ctx, s, loc)
				}
			}
			return notFound("parent reference not found")
		}
		path = rel
	}

	target, err := e.guard.Resolve(path)
	if err != nil {
		return e.failure(ctx, err)
	}
	return e.navigate(ctx, s, target)
}

// navigate is the only place a session moves.
func (e *Engine) navigate(ctx context.Context, s *Session, target pathguard.Location) Outcome {
	listing, err := e.Render(ctx, target)
	if err != nil {
		return e.failure(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return e.failure(ctx, errors.WithStack(err))
	}
	s.moveTo(target)
	return Outcome{Kind: OutcomeNavigated, Listing: listing}
}

// resolveOrigin finds the location a token was rendered from among current and
// its ancestors. Searching the ancestors makes a double-tapped button resolve
// the same way the second time.
func (e *Engine) resolveOrigin(current pathguard.Location, origin string) (pathguard.Location, bool) {
	if origin == "" {
		return current, true
	}
	for _, loc := range e.guard.Ancestors(current) {
		if originDigest(e.guard.Rel(loc)) == origin {
			return loc, true
		}
	}
	return "", false
}

// resolveName returns the entry name an action refers to, looking it up in a
// fresh listing of origin when the token only carried a digest.
func (e *Engine) resolveName(ctx context.Context, origin pathguard.Location, action Action, kind filesystem.Kind) (string, error) {
	if action.Ref == "" {
		return action.Name, nil
	}
	fl, err := e.lister.List(ctx, origin)
	if err != nil {
		return "", err
	}
	entries := fl.Files
	if kind == filesystem.KindDirectory {
		entries = fl.Directories
	}
	for _, entry := range entries {
		if refDigest(entry.Name) == action.Ref {
			return entry.Name, nil
		}
	}
	return "", errors.Wrap(filesystem.ErrNotFound, "no entry matches reference")
}

func (e *Engine) failure(ctx context.Context, err error) Outcome {
	log := logger.FromContext(ctx)
	switch {
	case errors.Is(err, pathguard.ErrRejected):
		log.Warn("path rejected", logger.Data{"reason": err.Error()})
		return Outcome{Kind: OutcomeDenied, Reason: err.Error()}
	case errors.Is(err, filesystem.ErrNotFound):
		return Outcome{Kind: OutcomeNotFound, Reason: err.Error()}
	case errors.Is(err, filesystem.ErrPermissionDenied):
		log.Info("permission denied", logger.Data{"reason": err.Error()})
		return Outcome{Kind: OutcomePermissionDenied, Reason: err.Error()}
	default:
		log.Err(err).Error("navigation failed")
		return Outcome{Kind: OutcomeFailed, Reason: err.Error()}
	}
}

func notFound(reason string) Outcome {
	return Outcome{Kind: OutcomeNotFound, Reason: reason}
}
