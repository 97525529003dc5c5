package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Song mirrors a catalogue entry as returned by the songs endpoints.
//
// Every field except the ID is nullable server-side; absent fields decode to
// their zero value. Duration is the server's HH:MM:SS rendering.
type Song struct {
	SongID            int64  `json:"song_id"`
	Title             string `json:"title,omitempty"`
	Duration          string `json:"duration,omitempty"`
	URLFile           string `json:"url_file,omitempty"`
	CoverImageURL     string `json:"cover_image_url,omitempty"`
	ThumbnailURL      string `json:"thumbnail_url,omitempty"`
	Genre             string `json:"genre,omitempty"`
	Language          string `json:"language,omitempty"`
	Lyrics            string `json:"lyrics,omitempty"`
	SpotifyTrackID    string `json:"spotify_track_id,omitempty"`
	SpotifyTrackURI   string `json:"spotify_track_uri,omitempty"`
	SpotifyTrackURL   string `json:"spotify_track_url,omitempty"`
	SpotifyPreviewURL string `json:"spotify_preview_url,omitempty"`
}

// HasPreview reports whether the song carries a playable Spotify preview URL.
func (s Song) HasPreview() bool {
	return strings.TrimSpace(s.SpotifyPreviewURL) != ""
}

var durationRe = regexp.MustCompile(`^(\d{1,2}):([0-5]\d):([0-5]\d)$`)

// DurationSeconds parses the HH:MM:SS duration into seconds.
// Returns 0 for an absent or malformed duration.
func (s Song) DurationSeconds() int {
	m := durationRe.FindStringSubmatch(s.Duration)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return h*3600 + min*60 + sec
}

// User mirrors the account profile returned by the profile endpoint.
type User struct {
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CachedSong is a catalogue entry persisted in the local SQLite mirror.
type CachedSong struct {
	song     Song
	syncedAt time.Time
}

// NewCachedSong wraps a wire Song for persistence, stamped at the given sync time.
func NewCachedSong(song Song, syncedAt time.Time) *CachedSong {
	return &CachedSong{song: song, syncedAt: syncedAt}
}

// ID returns the server-assigned song ID as a string
func (c *CachedSong) ID() string {
	return strconv.FormatInt(c.song.SongID, 10)
}

// Song returns the underlying wire DTO
func (c *CachedSong) Song() Song {
	return c.song
}

// SyncedAt returns when this entry was last written from the API
func (c *CachedSong) SyncedAt() time.Time {
	return c.syncedAt
}

// SetSyncedAt updates the sync timestamp
func (c *CachedSong) SetSyncedAt(t time.Time) {
	c.syncedAt = t
}

// Validate checks that the entry carries a server ID and a well-formed duration
func (c *CachedSong) Validate() error {
	if c.song.SongID <= 0 {
		return fmt.Errorf("song ID must be positive, got %d", c.song.SongID)
	}
	if c.song.Duration != "" && !durationRe.MatchString(c.song.Duration) {
		return fmt.Errorf("malformed duration %q, want HH:MM:SS", c.song.Duration)
	}
	return nil
}
