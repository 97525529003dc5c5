package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nguyentayninh0710/mpx/internal/formatter"
	"github.com/nguyentayninh0710/mpx/internal/models"
	"github.com/nguyentayninh0710/mpx/internal/repositories"
	"github.com/nguyentayninh0710/mpx/internal/services"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"github.com/nguyentayninh0710/mpx/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// SongsList lists catalogue entries, either from the server or from the local
// cache when --cached is set.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	var songs []models.Song
	var err error

	if cmd.Bool("cached") {
		songs, err = r.cachedSongs(cmd)
	} else {
		query := services.SongQuery{
			Q:        cmd.String("query"),
			Title:    cmd.String("title"),
			Genre:    cmd.String("genre"),
			Language: cmd.String("language"),
			Sort:     cmd.String("sort"),
			Page:     cmd.Int("page"),
			PageSize: cmd.Int("page-size"),
		}
		if cmd.IsSet("has-preview") {
			hasPreview := cmd.Bool("has-preview")
			query.HasPreview = &hasPreview
		}

		r.logger.Debug("listing songs", "page", query.Page, "page_size", query.PageSize)
		songs, err = r.api.Songs(ctx, query)
	}

	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(songs, pretty)
	}

	if len(songs) == 0 {
		return r.writePlain("No songs found\n")
	}

	r.writePlain("%-6s %-40s %-10s %-12s %s\n", "ID", "TITLE", "DURATION", "GENRE", "PREVIEW")
	for _, song := range songs {
		preview := ""
		if song.HasPreview() {
			preview = "✓"
		}
		r.writePlain("%-6d %s %-10s %-12s %s\n",
			song.SongID, cell(song.Title, 40), song.Duration, song.Genre, preview)
	}
	return r.writePlain("\n%d songs\n", len(songs))
}

// cachedSongs reads the local catalogue cache with the list command's filters.
func (r *Runner) cachedSongs(cmd *cli.Command) ([]models.Song, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	criteria := map[string]any{}
	if q := cmd.String("query"); q != "" {
		criteria["q"] = q
	}
	if title := cmd.String("title"); title != "" {
		criteria["title"] = title
	}
	if genre := cmd.String("genre"); genre != "" {
		criteria["genre"] = genre
	}
	if language := cmd.String("language"); language != "" {
		criteria["language"] = language
	}
	if cmd.IsSet("has-preview") {
		criteria["has_preview"] = cmd.Bool("has-preview")
	}

	entries, err := repositories.NewSongRepository(db).List(criteria)
	if err != nil {
		return nil, err
	}

	songs := make([]models.Song, len(entries))
	for i, entry := range entries {
		songs[i] = entry.Song()
	}
	return songs, nil
}

// SongsGet shows a single song by its server ID.
func (r *Runner) SongsGet(ctx context.Context, cmd *cli.Command) error {
	rawID := cmd.StringArg("id")
	if rawID == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: song id must be numeric, got %q", shared.ErrInvalidArgument, rawID)
	}

	song, err := r.api.Song(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if song.SpotifyTrackURL == "" {
			r.logger.Warn("song has no Spotify page", "id", song.SongID)
		} else if err := shared.OpenBrowser(song.SpotifyTrackURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	r.writePlain("%s (id %d)\n", song.Title, song.SongID)
	writeField := func(label, value string) {
		if value != "" {
			r.writePlain("%s: %s\n", label, value)
		}
	}
	writeField("Duration", song.Duration)
	writeField("Genre", song.Genre)
	writeField("Language", song.Language)
	writeField("Spotify", song.SpotifyTrackURL)
	writeField("Preview", song.SpotifyPreviewURL)

	if cmd.Bool("lyrics") {
		if song.Lyrics == "" {
			r.writePlain("\nNo lyrics available\n")
		} else {
			r.writePlain("\n%s\n", song.Lyrics)
		}
	}
	return nil
}

// SongsSync mirrors the remote catalogue into the local cache.
func (r *Runner) SongsSync(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if rps := cmd.Float("rate"); rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	repo := repositories.NewSongRepository(db)
	engine := tasks.NewLibraryEngine(r.api, repo, limiter)

	opts := tasks.SyncOptions{
		PageSize: cmd.Int("page-size"),
		Query:    services.SongQuery{Genre: cmd.String("genre")},
	}

	r.logger.Info("starting catalogue sync", "page_size", opts.PageSize)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.Sync(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("✓ Sync complete: %d songs across %d pages in %s\n",
		result.SongsSynced, result.PagesFetched, result.Elapsed.Round(10*time.Millisecond))
	if result.Failed > 0 {
		r.writePlain("Skipped %d invalid rows\n", result.Failed)
	}
	return nil
}

// SongsExport writes the cached catalogue to a file or stdout.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	heading := "Song Catalogue"
	if genre := cmd.String("genre"); genre != "" {
		criteria["genre"] = genre
		heading = fmt.Sprintf("Song Catalogue — %s", genre)
	}

	entries, err := repositories.NewSongRepository(db).List(criteria)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.writePlain("Nothing to export; run 'mpx songs sync' first\n")
	}

	songs := make([]models.Song, len(entries))
	for i, entry := range entries {
		songs[i] = entry.Song()
	}

	format := cmd.String("format")
	data, err := formatter.Export(songs, format, heading)
	if err != nil {
		return err
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		return r.writePlain("%s", string(data))
	}

	if err := formatter.WriteFile(outputPath, data); err != nil {
		return err
	}

	r.logger.Info("catalogue exported", "path", outputPath, "format", format)
	return r.writePlain("✓ Exported %d songs to %s\n", len(songs), outputPath)
}

// cell truncates and pads s to a fixed display width, counting terminal
// columns rather than bytes so multibyte titles stay intact and aligned.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
