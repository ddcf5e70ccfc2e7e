package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/tracklist/internal/formatter"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	tu "github.com/desertthunder/tracklist/internal/testing"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = string(body)
	return &s3manager.UploadOutput{Location: aws.StringValue(in.Key)}, nil
}

func libraryMock() *tu.MockPlaylists {
	library := map[string]*models.Playlist{
		"p1": {ID: "p1", Name: "Road Trip", Songs: []models.Song{{ID: "s1", ProviderID: "sp1", Title: "Drive", Artist: "Rae, Joe"}}},
		"p2": {ID: "p2", Name: "Focus"},
	}
	return &tu.MockPlaylists{
		ListFn: func(context.Context) ([]models.Playlist, error) {
			return []models.Playlist{*library["p1"], *library["p2"]}, nil
		},
		GetFn: func(_ context.Context, id string) (*models.Playlist, error) {
			p, ok := library[id]
			if !ok {
				return nil, &shared.RemoteError{Kind: shared.ErrRemoteRejection, Status: 404, Message: "Playlist not found"}
			}
			return p, nil
		},
	}
}

func readManifest(t *testing.T, path string) formatter.Manifest {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m formatter.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	t.Run("ExportsEveryPlaylistWhenNoIDsGiven", func(t *testing.T) {
		dir := t.TempDir()
		mock := libraryMock()
		progress := make(chan ProgressUpdate, 64)

		result, err := NewExporter(mock).BulkExport(ctx, progress, nil, BulkExportOpts{
			Format:    formatter.FormatJSON,
			OutputDir: dir,
			RateLimit: 100,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalPlaylists)
		assert.Equal(t, 2, result.SuccessfulExports)
		assert.Zero(t, result.FailedExports)
		assert.Equal(t, filepath.Join(dir, "export_manifest.json"), result.ManifestPath)
		assert.Equal(t, "p1", result.Results[0].PlaylistID)
		assert.Equal(t, "p2", result.Results[1].PlaylistID)
		assert.FileExists(t, filepath.Join(dir, "p1.json"))
		assert.FileExists(t, filepath.Join(dir, "p2.json"))
		assert.Equal(t, "List", mock.CallLog()[0])

		m := readManifest(t, result.ManifestPath)
		assert.Equal(t, 2, m.Successful)
		assert.Equal(t, "json", m.Format)
		assert.NotEmpty(t, progress)
	})

	t.Run("PartialFailureIsRecorded", func(t *testing.T) {
		dir := t.TempDir()

		result, err := NewExporter(libraryMock()).BulkExport(ctx, nil, []string{"p1", "missing"}, BulkExportOpts{
			Format:     formatter.FormatCSV,
			OutputDir:  dir,
			NumWorkers: 2,
			RateLimit:  100,
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.SuccessfulExports)
		assert.Equal(t, 1, result.FailedExports)

		failed := result.Results[1]
		assert.False(t, failed.Success)
		assert.True(t, errors.Is(failed.Error, shared.ErrRemoteRejection))
		assert.Equal(t, "Unknown (missing)", failed.PlaylistName)

		assert.FileExists(t, filepath.Join(dir, "p1_songs.csv"))
		assert.FileExists(t, filepath.Join(dir, "p1_metadata.json"))

		m := readManifest(t, result.ManifestPath)
		require.Len(t, m.Playlists, 2)
		assert.Contains(t, m.Playlists[1].Error, "failed to fetch playlist")
	})

	t.Run("UploadsToBucket", func(t *testing.T) {
		dir := t.TempDir()
		uploader := &fakeUploader{}

		result, err := NewExporter(libraryMock(), WithUploader(uploader)).BulkExport(ctx, nil, []string{"p1"}, BulkExportOpts{
			Format:    formatter.FormatText,
			OutputDir: dir,
			RateLimit: 100,
			Bucket:    "exports",
			Prefix:    "/tracklist/",
		})
		require.NoError(t, err)
		require.Equal(t, 1, result.SuccessfulExports)

		assert.Equal(t, []string{"tracklist/p1_songs.txt"}, result.Results[0].Keys)
		assert.Contains(t, uploader.objects["exports/tracklist/p1_songs.txt"], "1. Rae, Joe - Drive")
		assert.Contains(t, uploader.objects, "exports/tracklist/export_manifest.json")
	})

	t.Run("UploadFailureFailsThatPlaylist", func(t *testing.T) {
		uploader := &fakeUploader{err: errors.New("access denied")}

		result, err := NewExporter(libraryMock(), WithUploader(uploader)).BulkExport(ctx, nil, []string{"p1"}, BulkExportOpts{
			OutputDir: t.TempDir(),
			RateLimit: 100,
			Bucket:    "exports",
		})
		require.Error(t, err, "manifest upload fails with the same uploader")
		require.NotNil(t, result)
		assert.Equal(t, 1, result.FailedExports)
		assert.ErrorContains(t, result.Results[0].Error, "access denied")
	})

	t.Run("BucketWithoutUploader", func(t *testing.T) {
		_, err := NewExporter(libraryMock()).BulkExport(ctx, nil, nil, BulkExportOpts{Bucket: "exports", OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := NewExporter(libraryMock()).BulkExport(ctx, nil, nil, BulkExportOpts{Format: "xml", OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("ListFailure", func(t *testing.T) {
		mock := &tu.MockPlaylists{
			ListFn: func(context.Context) ([]models.Playlist, error) {
				return nil, &shared.RemoteError{Kind: shared.ErrAuthorization, Status: 401}
			},
		}
		_, err := NewExporter(mock).BulkExport(ctx, nil, nil, BulkExportOpts{OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, shared.ErrAuthorization)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		result, err := NewExporter(libraryMock()).BulkExport(canceled, nil, []string{"p1", "p2"}, BulkExportOpts{OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Empty(t, result.ManifestPath)
	})
}

func TestWritePlaylist(t *testing.T) {
	playlist := &models.Playlist{ID: "p9", Name: "Mix"}

	tests := []struct {
		format string
		want   []string
	}{
		{formatter.FormatJSON, []string{"p9.json"}},
		{formatter.FormatCSV, []string{"p9_songs.csv", "p9_metadata.json"}},
		{formatter.FormatText, []string{"p9_songs.txt"}},
		{formatter.FormatMarkdown, []string{filepath.Join("p9", "README.md")}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			files, err := WritePlaylist(context.Background(), playlist, tt.format, dir, false)
			require.NoError(t, err)

			require.Len(t, files, len(tt.want))
			for i, name := range tt.want {
				assert.Equal(t, filepath.Join(dir, name), files[i])
				assert.FileExists(t, files[i])
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "tracklist/p1.json", objectKey("/tracklist/", "out", filepath.Join("out", "p1.json")))
	assert.Equal(t, "p1/README.md", objectKey("", "out", filepath.Join("out", "p1", "README.md")))
	assert.Equal(t, "x/elsewhere.json", objectKey("x", "out", filepath.Join("..", "elsewhere.json")))
}
