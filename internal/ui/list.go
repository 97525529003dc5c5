package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/nguyentayninh0710/mpx/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := i.song.Genre
	if desc == "" {
		desc = "Unknown genre"
	}
	if i.song.Duration != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Duration)
	}
	if i.song.HasPreview() {
		desc = fmt.Sprintf("%s • preview", desc)
	}
	return desc
}
