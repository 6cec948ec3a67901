package session

import "time"

// EventType identifies an auth state change.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Session is the token pair plus the minimal identity claims the auth
// backend issues with it.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Event is one auth notification. Session is nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}
