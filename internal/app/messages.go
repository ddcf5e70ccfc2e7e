package app

// Messages shown to the user. Remote messages take precedence where the API supplies one.
const (
	MsgCredentialsNeeded = "Email and password are required"
	MsgRegisterNeeded    = "Username, email and password are required"

	MsgLoadPlaylistsFailed  = "Failed to load playlists"
	MsgCreatePlaylistFailed = "Failed to create playlist"
	MsgDeletePlaylistFailed = "Failed to delete playlist"
	MsgPlaylistNameRequired = "Playlist name is required"

	MsgPlaylistNotFound     = "Playlist not found"
	MsgRenamePlaylistFailed = "Failed to rename playlist"
	MsgPlaylistRenamed      = "Playlist renamed"
	MsgSearchFailed         = "Spotify search failed"
	MsgSongAdded            = "Song added to playlist"
	MsgAddSongFailed        = "Failed to add song"
	MsgSongRemoved          = "Song removed from playlist"
	MsgRemoveSongFailed     = "Failed to remove song"
)
