package navigation

type ApplyActionPayload struct {
	Token string `json:"token" validate:"required,token"`
}

type SessionResponse struct {
	UserID int64  `json:"user_id"`
	Path   string `json:"path"`
}

type FileResponse struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// OutcomeResponse is the JSON form of an Outcome. Reason is left out since it
// can carry real paths.
type OutcomeResponse struct {
	Outcome string        `json:"outcome"`
	Message string        `json:"message,omitempty"`
	Listing *Listing      `json:"listing,omitempty"`
	File    *FileResponse `json:"file,omitempty"`
}

func newOutcomeResponse(o Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Outcome: o.Kind.String(),
		Message: o.Message(),
		Listing: o.Listing,
	}
	if o.File != nil {
		resp.File = &FileResponse{
			Path: "/" + o.File.Path,
			Name: o.File.Name,
			Size: o.File.Size,
		}
	}
	return resp
}
