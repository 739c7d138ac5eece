package filesystem

// BrowseQuery contains query parameters for the browse endpoint. Path is
// relative to the root directory.
type BrowseQuery struct {
	Path   string `query:"path" json:"path,omitempty" default:"/" validate:"relpath"`
	Limit  int    `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search string `query:"search" json:"search,omitempty" validate:"max=255"`
}

type DownloadQuery struct {
	Path string `query:"path" json:"path" validate:"required,relpath"`
}

// BrowseResponse contains the response for the browse endpoint.
type BrowseResponse struct {
	CurrentPath string  `json:"current_path"`
	ParentPath  string  `json:"parent_path,omitempty"`
	Entries     []Entry `json:"entries"`
	Total       int     `json:"total"`
	HasMore     bool    `json:"has_more"`
}
