// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the song catalogue:
//  1. [SongListView] : Browse and filter the synced catalogue
//  2. [SongDetailView] : Inspect a song's metadata and lyrics
//  3. [SyncView] : Monitor real-time catalogue sync progress
//  4. [ResultView] : Display sync statistics
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the LibraryEngine, providing non-blocking status reporting during sync.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
