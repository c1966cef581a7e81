package domain

// Credentials back the basic-auth header of every REST call.
type Credentials struct {
	Username string
	Password string
}

// Identity is the session identity: set once at login or session restore,
// immutable for the rest of the session.
type Identity struct {
	UserID      UserID
	DisplayName string
	Credentials Credentials
}
