package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/burrowbot/burrow/pkg/pathguard"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

var (
	// ErrNotFound covers a location that is gone or is not the expected type.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is an OS-level permission failure on the location
	// itself.
	ErrPermissionDenied = errors.New("permission denied")
)

type Kind string

const (
	KindDirectory   Kind = "directory"
	KindRegularFile Kind = "file"
	// KindUnreadable entries failed to stat. They are recorded but never
	// listed.
	KindUnreadable Kind = "unreadable"
	// KindOther covers devices, sockets, pipes and symlinks leading out of
	// the root.
	KindOther Kind = "other"
)

type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
	Size int64  `json:"size,omitempty"`
}

// Listing is the classified set of immediate children of a location. Each
// slice is sorted by raw name.
type Listing struct {
	Location    pathguard.Location
	Directories []Entry
	Files       []Entry
	Skipped     []Entry
}

type Options struct {
	HideDotfiles bool
	// HidePatterns are doublestar globs matched against root-relative paths,
	// e.g. "**/*.part" or "private/**".
	HidePatterns []string
}

// Service lists and opens entries under a guard's root. Hidden entries are
// left out of listings and reported as not found when asked for directly, so
// they can't be reached with a hand-made path either.
type Service struct {
	guard        *pathguard.Guard
	hideDotfiles bool
	hidePatterns []string
}

func NewService(guard *pathguard.Guard, opts Options) *Service {
	return &Service{
		guard:        guard,
		hideDotfiles: opts.HideDotfiles,
		hidePatterns: opts.HidePatterns,
	}
}

// List enumerates the immediate children of loc. A child that can't be
// classified is logged and left out instead of failing the whole listing.
func (s *Service) List(ctx context.Context, loc pathguard.Location) (*Listing, error) {
	log := logger.FromContext(ctx)

	if s.hidden(s.guard.Rel(loc)) {
		return nil, errors.Wrap(ErrNotFound, "hidden")
	}
	info, err := os.Stat(string(loc))
	if err != nil {
		return nil, classifyError(err)
	}
	if !info.IsDir() {
		return nil, errors.Wrap(ErrNotFound, "not a directory")
	}

	f, err := os.Open(string(loc))
	if err != nil {
		return nil, classifyError(err)
	}
	defer f.Close()

	dirEntries, err := f.ReadDir(-1)
	if err != nil {
		if len(dirEntries) == 0 {
			return nil, classifyError(err)
		}
		log.Warn("partial directory read", logger.Data{"path": s.guard.Rel(loc), "error": err.Error()})
	}

	listing := &Listing{
		Location:    loc,
		Directories: []Entry{},
		Files:       []Entry{},
		Skipped:     []Entry{},
	}

	for _, de := range dirEntries {
		if s.hidden(path.Join(s.guard.Rel(loc), de.Name())) {
			continue
		}

		entry := s.classifyEntry(ctx, loc, de)
		switch entry.Kind {
		case KindDirectory:
			listing.Directories = append(listing.Directories, entry)
		case KindRegularFile:
			listing.Files = append(listing.Files, entry)
		default:
			listing.Skipped = append(listing.Skipped, entry)
		}
	}

	sortEntries(listing.Directories)
	sortEntries(listing.Files)
	sortEntries(listing.Skipped)

	return listing, nil
}

// Stat re-checks a single location right before it's used.
func (s *Service) Stat(_ context.Context, loc pathguard.Location) (*Entry, error) {
	if s.hidden(s.guard.Rel(loc)) {
		return nil, errors.Wrap(ErrNotFound, "hidden")
	}
	info, err := os.Stat(string(loc))
	if err != nil {
		return nil, classifyError(err)
	}
	return &Entry{
		Name: path.Base(s.guard.Display(loc)),
		Path: s.guard.Rel(loc),
		Kind: kindOf(info),
		Size: sizeOf(info),
	}, nil
}

// Open opens a regular file for reading. The type is checked on the open
// handle so a file swapped for something else after Stat is still refused.
func (s *Service) Open(_ context.Context, loc pathguard.Location) (*os.File, *Entry, error) {
	if s.hidden(s.guard.Rel(loc)) {
		return nil, nil, errors.Wrap(ErrNotFound, "hidden")
	}
	f, err := os.Open(string(loc))
	if err != nil {
		return nil, nil, classifyError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, classifyError(err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, errors.Wrap(ErrNotFound, "not a regular file")
	}
	return f, &Entry{
		Name: path.Base(s.guard.Display(loc)),
		Path: s.guard.Rel(loc),
		Kind: KindRegularFile,
		Size: info.Size(),
	}, nil
}

// BrowseOptions has the same structure as BrowseQuery to allow direct type conversion.
type BrowseOptions BrowseQuery

// Browse is the paginated, directories-first view used by the HTTP API. Paths
// in the response are relative to the root.
func (s *Service) Browse(ctx context.Context, opts BrowseOptions) (*BrowseResponse, error) {
	loc, err := s.guard.Resolve(opts.Path)
	if err != nil {
		return nil, err
	}

	listing, err := s.List(ctx, loc)
	if err != nil {
		return nil, err
	}

	// Directories come before files, each already in name order.
	entries := make([]Entry, 0, len(listing.Directories)+len(listing.Files))
	for _, group := range [][]Entry{listing.Directories, listing.Files} {
		for _, e := range group {
			// Apply search filter (case-insensitive).
			if opts.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(opts.Search)) {
				continue
			}
			entries = append(entries, e)
		}
	}

	total := len(entries)

	// Apply pagination.
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	paginatedEntries := entries[start:end]
	hasMore := end < total

	parentPath := ""
	if !s.guard.IsRoot(loc) {
		parentPath = s.guard.Display(s.guard.Parent(loc))
	}

	return &BrowseResponse{
		CurrentPath: s.guard.Display(loc),
		ParentPath:  parentPath,
		Entries:     paginatedEntries,
		Total:       total,
		HasMore:     hasMore,
	}, nil
}

func (s *Service) classifyEntry(ctx context.Context, dir pathguard.Location, de fs.DirEntry) Entry {
	log := logger.FromContext(ctx)
	name := de.Name()
	entry := Entry{
		Name: name,
		Path: path.Join(s.guard.Rel(dir), name),
	}

	var info fs.FileInfo
	var err error
	if de.Type()&fs.ModeSymlink != 0 {
		// Only follow links whose target stays under the root.
		target, cerr := s.guard.Child(dir, name)
		if cerr != nil {
			log.Warn("skipping symlink outside root", logger.Data{"path": entry.Path})
			entry.Kind = KindOther
			return entry
		}
		info, err = os.Stat(string(target))
	} else {
		info, err = de.Info()
	}

	if err != nil {
		if os.IsPermission(err) {
			log.Warn("no access to entry", logger.Data{"path": entry.Path})
		} else {
			log.Err(err).Error("failed to stat entry", logger.Data{"path": entry.Path})
		}
		entry.Kind = KindUnreadable
		return entry
	}

	entry.Kind = kindOf(info)
	entry.Size = sizeOf(info)
	return entry
}

// hidden reports whether rel or any directory above it is excluded.
func (s *Service) hidden(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		if s.hideDotfiles && strings.HasPrefix(seg, ".") {
			return true
		}
		prefix := strings.Join(segments[:i+1], "/")
		for _, pattern := range s.hidePatterns {
			// Patterns are checked when the config is loaded.
			if ok, _ := doublestar.Match(pattern, prefix); ok {
				return true
			}
		}
	}
	return false
}

func kindOf(info fs.FileInfo) Kind {
	switch {
	case info.IsDir():
		return KindDirectory
	case info.Mode().IsRegular():
		return KindRegularFile
	default:
		return KindOther
	}
}

func sizeOf(info fs.FileInfo) int64 {
	if info.Mode().IsRegular() {
		return info.Size()
	}
	return 0
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// classifyError maps an OS error on the location itself to ErrNotFound,
// ErrPermissionDenied, or leaves it as an unexpected error.
func classifyError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), isNotDir(err):
		return errors.Wrap(ErrNotFound, err.Error())
	case errors.Is(err, fs.ErrPermission):
		return errors.Wrap(ErrPermissionDenied, err.Error())
	default:
		return errors.WithStack(err)
	}
}

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
