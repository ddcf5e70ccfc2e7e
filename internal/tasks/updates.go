package tasks

import (
	"fmt"

	"github.com/desertthunder/tracklist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Mutate Phase = iota
	Refresh
	FetchPlaylists
	FetchPlaylist
	ExportPlaylist
	UploadExport
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case Mutate:
		return "mutate"
	case Refresh:
		return "refresh"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchPlaylist:
		return "fetch_playlist"
	case ExportPlaylist:
		return "export_playlist"
	case UploadExport:
		return "upload_export"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func mutateUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Mutate,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("%s...", name),
	}
}

func refreshUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Refresh,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("%s: refreshing...", name),
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: "Fetching playlists...",
	}
}

func foundPlaylistsUpdate(playlists []models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d playlists", len(playlists)),
		Data:    playlists,
	}
}

func fetchPlaylistUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching playlist %s...", step, total, id),
	}
}

func exportingPlaylistUpdate(step, total int, playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, playlist.Name),
		Data:    playlist,
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func uploadUpdate(bucket, key string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading s3://%s/%s...", bucket, key),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s...", path),
	}
}
