// Package session defines the explicit actor handle passed into every
// core operation. It replaces the process-wide current-user global:
// multiple sessions can act against the same store concurrently.
package session

// Session identifies the authenticated actor of a call. Only the email
// is carried; the user record is re-derived from storage on each access
// because it can change between calls.
type Session struct {
	Email string
}

// New returns a session for the given actor email.
func New(email string) *Session {
	return &Session{Email: email}
}
