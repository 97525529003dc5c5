// package repositories provides the local persistence layer.
//
// SessionKV implements session.KV over the session_kv table so cached
// credentials survive across runs. SongRepository implements
// models.Repository[*models.CachedSong] over the synced catalogue mirror.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"
)

// nullable converts an empty string to a SQL NULL so absent catalogue fields
// round-trip the way the server sends them.
func nullable(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// rowsAffected returns an error when an exec touched no rows.
func rowsAffected(result sql.Result, subject string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found", subject)
	}
	return nil
}
