package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nguyentayninh0710/mpx/internal/models"
	"github.com/nguyentayninh0710/mpx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	SongDetailView
	SyncView
	ResultView
)

// Catalogue is the read surface the TUI browses.
// Implemented by repositories.SongRepository.
type Catalogue interface {
	List(criteria map[string]any) ([]*models.CachedSong, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalogue    Catalogue
	engine       *tasks.LibraryEngine
	width        int
	height       int
	songList     list.Model
	selected     *models.Song
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SyncResult
	err          error
	help         help.Model
	keys         keyMap
}

type songsLoadedMsg struct {
	songs []models.Song
	err   error
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, catalogue Catalogue, engine *tasks.LibraryEngine) *Model {
	return &Model{
		ctx:       ctx,
		view:      SongListView,
		catalogue: catalogue,
		engine:    engine,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by loading the local catalogue.
func (m *Model) Init() tea.Cmd {
	return m.loadSongs()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.songList.Width() == 0 {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case SongDetailView:
			return m.handleDetailKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case songsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.songs))
		for i, song := range msg.songs {
			items[i] = songItem{song: song}
		}
		m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.songList.Title = fmt.Sprintf("Song Catalogue (%d)", len(msg.songs))
		m.songList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SongListView:
		return m.renderSongList()
	case SongDetailView:
		return m.renderDetail()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.view = SyncView
		return m, m.startSync()
	case "enter":
		selected := m.songList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(songItem); ok {
				song := item.song
				m.selected = &song
				m.view = SongDetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SongListView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = SongListView
		m.result = nil
		m.err = nil
		return m, m.loadSongs()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == SongListView {
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSongs() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.catalogue.List(nil)
		if err != nil {
			return songsLoadedMsg{err: err}
		}

		songs := make([]models.Song, len(entries))
		for i, entry := range entries {
			songs[i] = entry.Song()
		}
		return songsLoadedMsg{songs: songs}
	}
}

func (m *Model) startSync() tea.Cmd {
	if m.engine == nil {
		m.err = fmt.Errorf("sync engine not configured")
		m.view = ResultView
		return nil
	}

	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan

	go func() {
		result, err := m.engine.Sync(m.ctx, progress, tasks.SyncOptions{})
		m.result = result
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderSongList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.sync, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return styles.err.Render("No song selected\n\nPress esc to go back")
	}

	song := m.selected
	title := styles.title.Render(song.Title)

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	writeField := func(label, value string) {
		if value != "" {
			b.WriteString(fmt.Sprintf("%s: %s\n", label, value))
		}
	}

	writeField("Duration", song.Duration)
	writeField("Genre", song.Genre)
	writeField("Language", song.Language)
	writeField("Spotify", song.SpotifyTrackURL)
	writeField("Preview", song.SpotifyPreviewURL)

	if song.Lyrics != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Lyrics"))
		b.WriteString("\n")
		b.WriteString(song.Lyrics)
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))

	return b.String()
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Catalogue")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPage:
		phase = fmt.Sprintf("Fetching page %d...", m.progress.Step)
	case tasks.CacheSongs:
		phase = "Caching songs..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nPages fetched: %d\nSongs synced: %d\nElapsed: %s",
		m.result.PagesFetched,
		m.result.SongsSynced,
		m.result.Elapsed.Round(time.Millisecond),
	)

	var failed string
	if m.result.Failed > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("Skipped %d invalid rows", m.result.Failed))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
