package core

import "errors"

// Login failure reasons surfaced to the client.
const (
	ReasonUnknownUser     = "unknown_user"
	ReasonAlreadyLoggedIn = "already_logged_in"
)

// ErrAlreadyIdentified is returned when a connection attempts a second
// login. A connection's identity is set at most once for its lifetime.
var ErrAlreadyIdentified = errors.New("connection already identified")

// ErrNotRegistered is returned when a session mutation targets a
// connection the registry does not know about.
var ErrNotRegistered = errors.New("connection not registered")
