// Package services contains HTTP clients for the MusicPlayer API.
//
// [MusicPlayerService] is the typed client covering the auth, profile and
// catalogue endpoints. It satisfies session.AuthAPI so the session guard can
// drive silent token refresh through it. [APIService] is an untyped escape
// hatch for ad-hoc requests against arbitrary paths.
package services
