package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	CacheSongs
	SyncDone
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case CacheSongs:
		return "cache_songs"
	case SyncDone:
		return "sync_done"
	default:
		return ""
	}
}

func fetchPageUpdate(page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Message: fmt.Sprintf("Fetching catalogue page %d...", page),
	}
}

func cachePageUpdate(page, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheSongs,
		Step:    page,
		Message: fmt.Sprintf("[page %d] caching %d songs", page, count),
	}
}

func syncDoneUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncDone,
		Step:    result.PagesFetched,
		Total:   result.PagesFetched,
		Message: fmt.Sprintf("Synced %d songs across %d pages", result.SongsSynced, result.PagesFetched),
		Data:    result,
	}
}
