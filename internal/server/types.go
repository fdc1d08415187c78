package server

import (
	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/toolchain"
)

// ErrorResponse is the JSON shape returned for any failed command: the
// UI shell's command surface treats every error response as a plain
// string (spec §6), so Error is always a flattened message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a generic acknowledgement payload for commands that
// have no meaningful return value beyond success.
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdateRequest is the body for the update command: a revised mission
// plus the anchor mission identifying which existing Collection to
// rewrite.
type UpdateRequest struct {
	Mission domain.CollectMission `json:"mission"`
	Anchor  domain.CollectMission `json:"anchor"`
}

// MusicDeltaRequest is the body shared by fatigue/boost/cancel variants.
type MusicDeltaRequest struct {
	Delta float64 `json:"delta"`
}

// MusicRefRequest is the body for unstar/rmexclude: the Music row to
// add to or remove from a Collection's Exclude list.
type MusicRefRequest struct {
	Music domain.Music `json:"music"`
}

// UpdateWeblistRequest is the body for update_weblist: re-queues an
// Entry's web link under a (possibly renamed) playlist label.
type UpdateWeblistRequest struct {
	Playlist string `json:"playlist"`
}

// SavePathRequest is the body for update_save_path.
type SavePathRequest struct {
	Path string `json:"path"`
}

// SavePathResponse is the response for resolve_save_path/update_save_path.
type SavePathResponse struct {
	SavePath string `json:"save_path"`
}

// AudioFilesResponse is the response for all_audio_recursive.
type AudioFilesResponse struct {
	Files []string `json:"files"`
}

// ExistsResponse is the response for exists.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// LookMediaResponse is the response for look_media: the probed title.
type LookMediaResponse struct {
	Title string `json:"title"`
}

// UpdateInfoResponse mirrors toolchain.UpdateInfo for the *_check_update
// commands.
type UpdateInfoResponse = toolchain.UpdateInfo

// InstallResultResponse mirrors toolchain.InstallResult for the
// *_download_and_install and check_exists/ffmpeg_check_exists commands.
type InstallResultResponse = toolchain.InstallResult

// GithubOkResponse is the response for github_ok.
type GithubOkResponse struct {
	Ok bool `json:"ok"`
}

// FfmpegVersionResponse is the response for ffmpeg_version.
type FfmpegVersionResponse struct {
	Version string `json:"version"`
}

// TrimAllSilenceResponse is the response for the bulk re-trim
// maintenance operation.
type TrimAllSilenceResponse struct {
	Trimmed int `json:"trimmed"`
}
