// package formatter provides functions to export catalogue data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nguyentayninh0710/mpx/internal/models"
)

// ExportToCSV converts a song list to CSV format with columns: ID, Title, Duration, Genre, Language, SpotifyTrackID, PreviewURL
func ExportToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Duration", "Genre", "Language", "SpotifyTrackID", "PreviewURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			strconv.FormatInt(song.SongID, 10),
			song.Title,
			song.Duration,
			song.Genre,
			song.Language,
			song.SpotifyTrackID,
			song.SpotifyPreviewURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a song list to a Markdown document titled with the given heading
func ExportToMarkdown(songs []models.Song, heading string) ([]byte, error) {
	var buf bytes.Buffer

	if heading == "" {
		heading = "Song Catalogue"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	buf.WriteString("## Songs\n\n")
	for i, song := range songs {
		genrePart := ""
		if song.Genre != "" {
			genrePart = fmt.Sprintf(" (%s)", song.Genre)
		}
		durationPart := ""
		if song.Duration != "" {
			durationPart = fmt.Sprintf(" [%s]", song.Duration)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s%s\n", i+1, song.Title, genrePart, durationPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a song list to plain text format
func ExportToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(songs)))
	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s", i+1, song.Title))
		if song.Duration != "" {
			buf.WriteString(fmt.Sprintf(" [%s]", song.Duration))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// Export renders songs in the given format ("csv", "markdown" or "text").
func Export(songs []models.Song, format, heading string) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(songs)
	case "markdown", "md":
		return ExportToMarkdown(songs, heading)
	case "text", "txt", "":
		return ExportToText(songs)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteFile writes rendered export data to path, creating parent directories
// as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
