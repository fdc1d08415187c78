package domain

// ErrorPlaylist is the reserved playlist label carrying background-task
// failures that are not tied to any single node.
const ErrorPlaylist = "__error__"

// ProcessMsg is a per-track progress event.
type ProcessMsg struct {
	Playlist string `json:"playlist"`
	Str      string `json:"str"`
}

// ProcessResult is emitted by the pipeline engine on leaf completion and
// carried by the queue into the finalize hook. The engine copies
// Playlist from the processed node's own Playlist label.
type ProcessResult struct {
	WorkingPath string `json:"working_path"`
	SavedPath   string `json:"saved_path"`
	Name        string `json:"name"`
	Playlist    string `json:"playlist"`
}

// DownloadAnswer is the shape download_ok consumes: a ProcessResult's
// SavedPath (as Path), Name and Playlist, without WorkingPath.
type DownloadAnswer struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Playlist string `json:"playlist"`
}

// IntoDownloadAnswer converts a finished ProcessResult into the answer
// shape the coordinator's DownloadOk expects.
func (r ProcessResult) IntoDownloadAnswer() DownloadAnswer {
	return DownloadAnswer{Path: r.SavedPath, Name: r.Name, Playlist: r.Playlist}
}
