package sessions

import (
	"time"
)

// StorageKey is the single key the session is persisted under.
const StorageKey = "citypulse.session"

// Session is the bearer token issued by the backend together with its absolute
// expiry. There is at most one Session per client.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session holds a token that has not expired at now.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && !now.After(s.ExpiresAt)
}

// storedSession is the persisted form: {"token": "...", "expiresAt": <unix ms>}.
type storedSession struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (s Session) stored() storedSession {
	return storedSession{Token: s.Token, ExpiresAt: s.ExpiresAt.UnixMilli()}
}

func (s storedSession) session() (Session, bool) {
	if s.Token == "" || s.ExpiresAt == 0 {
		return Session{}, false
	}
	return Session{Token: s.Token, ExpiresAt: time.UnixMilli(s.ExpiresAt)}, true
}
