package session

import "time"

// DefaultLeeway is the safety margin subtracted from the access token expiry
// check, guarding against a token that expires mid-request.
const DefaultLeeway = 15 * time.Second

// TokenPair holds the bearer credential pair issued by the MusicPlayer API.
//
// Expiries are absolute epoch seconds, matching the wire shape of the login
// and refresh endpoints. The refresh leg is optional: it is present only when
// the caller opted into persistent login.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresAt int64  `json:"refresh_expires_at,omitempty"`
}

// AccessValid reports whether the access leg is usable at the given instant.
//
// The token counts as valid only if it survives past now+leeway, so a token
// expiring within the margin is treated as already expired.
func (p TokenPair) AccessValid(now time.Time, leeway time.Duration) bool {
	if p.AccessToken == "" {
		return false
	}
	return p.AccessExpiresAt > now.Add(leeway).Unix()
}

// RefreshValid reports whether the refresh leg can still be exchanged for a
// new access token. An absent or expired refresh token means no silent
// renewal is possible and the caller must re-authenticate.
func (p TokenPair) RefreshValid(now time.Time) bool {
	if p.RefreshToken == "" {
		return false
	}
	return p.RefreshExpiresAt > now.Unix()
}
