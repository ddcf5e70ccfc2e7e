package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/formatter"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/shared"
	"golang.org/x/time/rate"
)

const manifestName = "export_manifest.json"

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format      string  // Export format: json, csv, markdown, txt
	OutputDir   string  // Base output directory (default: tracklist_export_{epoch})
	NumWorkers  int     // Concurrent workers (default: 5, max: 10)
	RateLimit   float64 // Playlist fetches per second (default: 5)
	FetchCovers bool    // Download album art for markdown exports
	Bucket      string  // Upload exported files to this S3 bucket when set
	Prefix      string  // Key prefix inside Bucket
}

// PlaylistExportResult is the outcome for one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Keys         []string // S3 object keys, when uploaded
	Error        error

	index int
}

// BulkExportResult summarizes a bulk export. Results are in input order.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

type playlistExportJob struct {
	index    int
	playlist *models.Playlist
}

// Exporter writes playlists fetched from the playlist API to disk.
type Exporter struct {
	playlists services.Playlists
	uploader  s3manageriface.UploaderAPI
	logger    *log.Logger
}

// ExporterOption configures an [Exporter].
type ExporterOption func(*Exporter)

// WithUploader sets the S3 upload manager used when [BulkExportOpts.Bucket] is set.
func WithUploader(u s3manageriface.UploaderAPI) ExporterOption {
	return func(e *Exporter) { e.uploader = u }
}

// WithExportLogger sets the logger.
func WithExportLogger(l *log.Logger) ExporterOption {
	return func(e *Exporter) { e.logger = l }
}

// NewExporter creates an Exporter reading from playlists.
func NewExporter(playlists services.Playlists, opts ...ExporterOption) *Exporter {
	e := &Exporter{playlists: playlists, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// An empty ids exports every playlist the user owns. Playlist fetches are paced by the limiter
// and fed to a worker pool; a failed playlist is recorded and the rest continue. The manifest is
// written even when some playlists fail.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Bucket != "" && e.uploader == nil {
		return nil, fmt.Errorf("%w: no S3 uploader configured for bucket %s", shared.ErrServiceUnavailable, opts.Bucket)
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tracklist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if len(ids) == 0 {
		sendProgress(prog, fetchPlaylistsUpdate())
		all, err := e.playlists.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}
		sendProgress(prog, foundPlaylistsUpdate(all))
		for _, p := range all {
			ids = append(ids, p.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan playlistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchPlaylistUpdate(i+1, len(ids), id))
			playlist, err := e.playlists.Get(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
					index:        i,
				}
				continue
			}

			jobs <- playlistExportJob{index: i, playlist: playlist}
			sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), playlist))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "err", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return a.index - b.index })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteBulkExportManifest(buildManifest(result, opts), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if opts.Bucket != "" {
		key := objectKey(opts.Prefix, opts.OutputDir, manifestPath)
		sendProgress(prog, uploadUpdate(opts.Bucket, key))
		if err := uploadFile(ctx, e.uploader, opts.Bucket, key, manifestPath); err != nil {
			return result, fmt.Errorf("export completed but failed to upload manifest: %w", err)
		}
	}

	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan playlistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- PlaylistExportResult{
				PlaylistID:   job.playlist.ID,
				PlaylistName: job.playlist.Name,
				Error:        ctx.Err(),
				index:        job.index,
			}
			continue
		default:
		}

		results <- e.exportSinglePlaylist(ctx, job, opts)
	}
}

// exportSinglePlaylist exports a single playlist and uploads its files when a bucket is set.
func (e *Exporter) exportSinglePlaylist(ctx context.Context, j playlistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.playlist.ID,
		PlaylistName: j.playlist.Name,
		Files:        []string{},
		index:        j.index,
	}

	files, err := WritePlaylist(ctx, j.playlist, opts.Format, opts.OutputDir, opts.FetchCovers)
	if err != nil {
		result.Error = err
		return result
	}
	result.Files = files

	if opts.Bucket != "" {
		for _, file := range files {
			key := objectKey(opts.Prefix, opts.OutputDir, file)
			if err := uploadFile(ctx, e.uploader, opts.Bucket, key, file); err != nil {
				result.Error = err
				return result
			}
			result.Keys = append(result.Keys, key)
		}
	}

	result.Success = true
	return result
}

// WritePlaylist writes one playlist into dir in the given format and returns the files created.
func WritePlaylist(ctx context.Context, playlist *models.Playlist, format, dir string, fetchCover bool) ([]string, error) {
	switch format {
	case formatter.FormatCSV:
		res, err := formatter.WriteCSVExport(playlist, filepath.Join(dir, playlist.ID))
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.SongsFile, res.MetadataFile}, nil

	case formatter.FormatMarkdown:
		res, err := formatter.WriteMarkdownExport(ctx, playlist, filepath.Join(dir, playlist.ID), fetchCover)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil

	case formatter.FormatText:
		path, err := formatter.WriteTextExport(playlist, filepath.Join(dir, playlist.ID+"_songs.txt"))
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil

	default:
		path, err := formatter.WriteJSONExport(playlist, filepath.Join(dir, playlist.ID+".json"))
		if err != nil {
			return nil, fmt.Errorf("JSON export failed: %w", err)
		}
		return []string{path}, nil
	}
}

func buildManifest(result *BulkExportResult, opts BulkExportOpts) formatter.Manifest {
	m := formatter.Manifest{
		ExportedAt:      time.Now().UTC(),
		Format:          opts.Format,
		OutputDirectory: result.OutputDirectory,
		Bucket:          opts.Bucket,
		Total:           result.TotalPlaylists,
		Successful:      result.SuccessfulExports,
		Failed:          result.FailedExports,
		Playlists:       make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := formatter.ManifestEntry{
			ID:      r.PlaylistID,
			Name:    r.PlaylistName,
			Success: r.Success,
			Files:   r.Files,
			Keys:    r.Keys,
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}
	return m
}
