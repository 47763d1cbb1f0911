package models

import "fmt"

// Identity is the caller's current principal: either an authenticated user
// or an anonymous browsing session. Exactly one of the two fields is set.
// Identities are lookup keys only; they are never persisted on their own.
type Identity struct {
	UserID    int64
	SessionID string
}

func Authenticated(userID int64) Identity {
	return Identity{UserID: userID}
}

func Anonymous(sessionID string) Identity {
	return Identity{SessionID: sessionID}
}

func (id Identity) IsAuthenticated() bool {
	return id.UserID > 0
}

// Valid reports whether the identity matches exactly one recognized
// variant. A zero identity, or one carrying both a user id and a session
// id, is malformed.
func (id Identity) Valid() bool {
	return (id.UserID > 0) != (id.SessionID != "")
}

// Key returns a stable string form used for cache keys and per-identity
// serialization.
func (id Identity) Key() string {
	if id.IsAuthenticated() {
		return fmt.Sprintf("user:%d", id.UserID)
	}
	return fmt.Sprintf("session:%s", id.SessionID)
}
