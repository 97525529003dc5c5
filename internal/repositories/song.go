package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/nguyentayninh0710/mpx/internal/models"
)

// SongRepository implements models.Repository[*models.CachedSong] over the
// local catalogue mirror.
//
// Writes come from catalogue sync, which replays server rows wholesale, so
// every write is an upsert keyed on the server-assigned song ID.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

const songColumns = `
	song_id, title, duration, url_file, cover_image_url, thumbnail_url,
	genre, language, lyrics, spotify_track_id, spotify_track_uri,
	spotify_track_url, spotify_preview_url, synced_at
`

// Upsert inserts a [models.CachedSong] or overwrites the row with the same song ID
func (r *SongRepository) Upsert(entry *models.CachedSong) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO songs (` + songColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(song_id) DO UPDATE SET
			title = excluded.title,
			duration = excluded.duration,
			url_file = excluded.url_file,
			cover_image_url = excluded.cover_image_url,
			thumbnail_url = excluded.thumbnail_url,
			genre = excluded.genre,
			language = excluded.language,
			lyrics = excluded.lyrics,
			spotify_track_id = excluded.spotify_track_id,
			spotify_track_uri = excluded.spotify_track_uri,
			spotify_track_url = excluded.spotify_track_url,
			spotify_preview_url = excluded.spotify_preview_url,
			synced_at = excluded.synced_at
	`

	song := entry.Song()
	_, err := r.db.Exec(query,
		song.SongID,
		nullable(song.Title),
		nullable(song.Duration),
		nullable(song.URLFile),
		nullable(song.CoverImageURL),
		nullable(song.ThumbnailURL),
		nullable(song.Genre),
		nullable(song.Language),
		nullable(song.Lyrics),
		nullable(song.SpotifyTrackID),
		nullable(song.SpotifyTrackURI),
		nullable(song.SpotifyTrackURL),
		nullable(song.SpotifyPreviewURL),
		entry.SyncedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert song: %w", err)
	}

	return nil
}

// Get retrieves a cached song by its server-assigned ID
func (r *SongRepository) Get(id string) (*models.CachedSong, error) {
	songID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid song ID %q: %w", id, err)
	}

	query := "SELECT " + songColumns + " FROM songs WHERE song_id = ?"
	return r.scanOne(r.db.QueryRow(query, songID))
}

// Delete removes a cached song by its server-assigned ID
func (r *SongRepository) Delete(id string) error {
	songID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid song ID %q: %w", id, err)
	}

	result, err := r.db.Exec("DELETE FROM songs WHERE song_id = ?", songID)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	return rowsAffected(result, "song")
}

// List retrieves all cached songs matching the given criteria.
//
// Supported criteria: "genre", "language" (exact match), "q" (substring match
// on title, genre and language), "has_preview" (bool). Results are ordered by
// song ID ascending.
func (r *SongRepository) List(criteria map[string]any) ([]*models.CachedSong, error) {
	query := "SELECT " + songColumns + " FROM songs"
	where, args := buildSongFilter(criteria)
	query += where + " ORDER BY song_id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var entries []*models.CachedSong
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Count returns the number of cached songs matching the given criteria
func (r *SongRepository) Count(criteria map[string]any) (int, error) {
	query := "SELECT COUNT(*) FROM songs"
	where, args := buildSongFilter(criteria)

	var count int
	if err := r.db.QueryRow(query+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

func buildSongFilter(criteria map[string]any) (string, []any) {
	clauses := []string{}
	args := []any{}

	if title, ok := criteria["title"].(string); ok && title != "" {
		clauses = append(clauses, "title LIKE ?")
		args = append(args, "%"+title+"%")
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		clauses = append(clauses, "genre = ?")
		args = append(args, genre)
	}

	if language, ok := criteria["language"].(string); ok && language != "" {
		clauses = append(clauses, "language = ?")
		args = append(args, language)
	}

	if q, ok := criteria["q"].(string); ok && q != "" {
		like := "%" + q + "%"
		clauses = append(clauses, "(title LIKE ? OR genre LIKE ? OR language LIKE ?)")
		args = append(args, like, like, like)
	}

	if hasPreview, ok := criteria["has_preview"].(bool); ok {
		if hasPreview {
			clauses = append(clauses, "spotify_preview_url IS NOT NULL AND spotify_preview_url <> ''")
		} else {
			clauses = append(clauses, "(spotify_preview_url IS NULL OR spotify_preview_url = '')")
		}
	}

	if len(clauses) == 0 {
		return "", args
	}

	where := " WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

type songScanner interface {
	Scan(dest ...any) error
}

func scanSong(row songScanner) (*models.CachedSong, error) {
	var (
		songID   int64
		title    sql.NullString
		duration sql.NullString
		urlFile  sql.NullString
		cover    sql.NullString
		thumb    sql.NullString
		genre    sql.NullString
		language sql.NullString
		lyrics   sql.NullString
		spID     sql.NullString
		spURI    sql.NullString
		spURL    sql.NullString
		spPrev   sql.NullString
		syncedAt time.Time
	)

	err := row.Scan(&songID, &title, &duration, &urlFile, &cover, &thumb,
		&genre, &language, &lyrics, &spID, &spURI, &spURL, &spPrev, &syncedAt)
	if err != nil {
		return nil, err
	}

	song := models.Song{
		SongID:            songID,
		Title:             title.String,
		Duration:          duration.String,
		URLFile:           urlFile.String,
		CoverImageURL:     cover.String,
		ThumbnailURL:      thumb.String,
		Genre:             genre.String,
		Language:          language.String,
		Lyrics:            lyrics.String,
		SpotifyTrackID:    spID.String,
		SpotifyTrackURI:   spURI.String,
		SpotifyTrackURL:   spURL.String,
		SpotifyPreviewURL: spPrev.String,
	}

	return models.NewCachedSong(song, syncedAt), nil
}

// scanOne scans a single [sql.Row] into a [models.CachedSong]
func (r *SongRepository) scanOne(row *sql.Row) (*models.CachedSong, error) {
	entry, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("song not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return entry, nil
}

// scanRow scans a row from [sql.Rows] into a [models.CachedSong]
func (r *SongRepository) scanRow(rows *sql.Rows) (*models.CachedSong, error) {
	entry, err := scanSong(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return entry, nil
}
