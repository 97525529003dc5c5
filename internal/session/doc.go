// Package session owns the access/refresh token pair cached on the client.
//
// The package contains three pieces:
//
//   - [KV] : the injectable backing store (in-memory for tests, SQLite in
//     internal/repositories for production). All session state lives behind
//     this interface; no other package touches the raw keys.
//   - [Store] : a typed facade over KV managing the six session keys (two
//     token legs, their expiries, the cached profile and its timestamp).
//   - [Guard] : the per-run state machine deciding whether the cached access
//     token is still usable, refreshing it transparently, and funneling every
//     terminal auth failure into a single one-shot login redirect.
//
// The guard treats a server-side 401 as authoritative over local expiry math:
// a locally valid token can still be rejected (revoked session, clock skew),
// and any rejected refresh or profile call erases the cached session and
// fires the redirect hook. There is no retry policy; one failed refresh is
// fatal for the session.
//
// Concurrent refreshes from separate processes sharing the same store are not
// coordinated. Writes are single-key upserts, so the race resolves as last
// writer wins.
package session
