// package tasks implements long-running catalogue operations.
//
// The core abstraction is LibraryEngine, which mirrors the remote song
// catalogue into the local cache page by page. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentayninh0710/mpx/internal/models"
	"github.com/nguyentayninh0710/mpx/internal/services"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultPageSize is the page size used for catalogue sync when none is
// given. The server caps page_size at 200.
const DefaultPageSize = 100

// SongLister is the catalogue surface the engine pulls from.
// Implemented by services.MusicPlayerService.
type SongLister interface {
	Songs(ctx context.Context, query services.SongQuery) ([]models.Song, error)
}

// SongCacher is the local write surface the engine pushes into.
// Implemented by repositories.SongRepository.
type SongCacher interface {
	Upsert(entry *models.CachedSong) error
}

// SyncOptions controls a catalogue sync run.
type SyncOptions struct {
	PageSize int                // rows per page, defaults to DefaultPageSize
	Query    services.SongQuery // optional server-side filters; paging fields are overwritten
}

// SyncResult summarizes a completed catalogue sync.
type SyncResult struct {
	PagesFetched int
	SongsSynced  int
	Failed       int
	Elapsed      time.Duration
}

// LibraryEngine mirrors the remote catalogue into the local cache.
type LibraryEngine struct {
	api     SongLister
	cache   SongCacher
	limiter *rate.Limiter
	now     func() time.Time
}

// NewLibraryEngine creates a LibraryEngine. A nil limiter disables request
// pacing.
func NewLibraryEngine(api SongLister, cache SongCacher, limiter *rate.Limiter) *LibraryEngine {
	return &LibraryEngine{
		api:     api,
		cache:   cache,
		limiter: limiter,
		now:     time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Sync pages through the remote catalogue and upserts every row into the
// local cache. Paging stops at the first short page. Rows failing local
// validation are counted and skipped rather than aborting the run.
func (e *LibraryEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOptions) (*SyncResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: song cache not initialized", shared.ErrServiceUnavailable)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	started := e.now()
	result := &SyncResult{}

	for page := 1; ; page++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return result, fmt.Errorf("sync canceled: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sync canceled: %w", err)
		}

		e.sendProgress(progress, fetchPageUpdate(page))

		query := opts.Query
		query.Page = page
		query.PageSize = pageSize
		// Deterministic paging regardless of the caller's sort preference.
		query.Sort = "id_asc"

		songs, err := e.api.Songs(ctx, query)
		if err != nil {
			return result, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		result.PagesFetched++
		if len(songs) > 0 {
			e.sendProgress(progress, cachePageUpdate(page, len(songs)))
			syncedAt := e.now().UTC()

			for _, song := range songs {
				entry := models.NewCachedSong(song, syncedAt)
				if err := e.cache.Upsert(entry); err != nil {
					result.Failed++
					continue
				}
				result.SongsSynced++
			}
		}

		if len(songs) < pageSize {
			break
		}
	}

	result.Elapsed = e.now().Sub(started)
	e.sendProgress(progress, syncDoneUpdate(result))
	return result, nil
}
