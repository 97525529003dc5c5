// Package models defines domain entities and persistence interfaces for the mpx client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring the MusicPlayer API wire shapes
//   - [Song] : Catalogue entry with playback URLs and Spotify identifiers
//   - [User] : Account profile returned by the authenticated profile endpoint
//
// 2. Persistent Entities: Database-backed models cached locally
//   - [CachedSong] : A catalogue entry synced into the local SQLite mirror
//
// Persistent entities implement the Model interface providing identity, sync timestamps and validation.
// The Repository[T] interface defines the standard access operations for the local cache.
package models
