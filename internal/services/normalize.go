package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/tidwall/gjson"
)

// recordSchema locates song fields inside one provider's track record.
//
// Every path is a gjson path. ArtistNames and ArtURLs must yield arrays.
type recordSchema struct {
	ID          string
	Title       string
	ArtistNames string
	Album       string
	ArtURLs     string
	DurationMS  string
	PreviewURL  string
}

var schemas = map[string]recordSchema{
	shared.ProviderRapidAPI: {
		ID:          "data.id",
		Title:       "data.name",
		ArtistNames: "data.artists.items.#.profile.name",
		Album:       "data.albumOfTrack.name",
		ArtURLs:     "data.albumOfTrack.coverArt.sources.#.url",
		DurationMS:  "data.duration.totalMilliseconds",
		PreviewURL:  "data.previewUrl",
	},
	shared.ProviderSpotify: {
		ID:          "id",
		Title:       "name",
		ArtistNames: "artists.#.name",
		Album:       "album.name",
		ArtURLs:     "album.images.#.url",
		DurationMS:  "duration_ms",
		PreviewURL:  "preview_url",
	},
}

// NormalizeSong maps a provider record into the playlist's song shape.
//
// Only a missing track id is an error ([shared.ErrMalformedProviderRecord]). Any other field that
// is absent or of the wrong type is left empty.
func NormalizeSong(r models.SearchResult) (models.Song, error) {
	provider := r.Provider
	if provider == "" {
		provider = shared.ProviderRapidAPI
	}

	schema, ok := schemas[provider]
	if !ok {
		return models.Song{}, fmt.Errorf("%w: unknown provider %q", shared.ErrMalformedProviderRecord, r.Provider)
	}

	if !gjson.ValidBytes(r.Raw) {
		return models.Song{}, fmt.Errorf("%w: record is not valid JSON", shared.ErrMalformedProviderRecord)
	}
	record := gjson.ParseBytes(r.Raw)

	id := stringAt(record, schema.ID)
	if strings.TrimSpace(id) == "" {
		return models.Song{}, fmt.Errorf("%w: missing track id at %s", shared.ErrMalformedProviderRecord, schema.ID)
	}

	song := models.Song{
		ProviderID: id,
		Title:      stringAt(record, schema.Title),
		Artist:     strings.Join(stringsAt(record, schema.ArtistNames), ", "),
		Album:      stringAt(record, schema.Album),
		PreviewURL: stringAt(record, schema.PreviewURL),
	}

	if urls := stringsAt(record, schema.ArtURLs); len(urls) > 0 {
		song.AlbumArtURL = urls[0]
	}

	if d := record.Get(schema.DurationMS); d.Type == gjson.Number {
		song.DurationMS = shared.IntPtr(int(d.Int()))
	}

	return song, nil
}

// NormalizeSongs normalizes every record, dropping malformed ones. skipped counts the drops.
func NormalizeSongs(results []models.SearchResult) (songs []models.Song, skipped int) {
	songs = make([]models.Song, 0, len(results))
	for _, r := range results {
		song, err := NormalizeSong(r)
		if err != nil {
			skipped++
			continue
		}
		songs = append(songs, song)
	}
	return songs, skipped
}

// stringAt returns the string at path, or "" when absent or not a string.
func stringAt(record gjson.Result, path string) string {
	v := record.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// stringsAt returns the non-empty strings of the array at path, in order.
func stringsAt(record gjson.Result, path string) []string {
	v := record.Get(path)
	if !v.IsArray() {
		return nil
	}

	var out []string
	for _, item := range v.Array() {
		if item.Type == gjson.String && item.Str != "" {
			out = append(out, item.Str)
		}
	}
	return out
}
