package auth

// APIKey represents a row in the api_keys table. The key is a bearer secret
// scoped to exactly one team.
type APIKey struct {
	ID     string
	Key    string
	TeamID string
}

// Identity is the team a request authenticated as. The guard attaches it to
// the request context.
type Identity struct {
	TeamID   string
	TeamName string
	APIKey   string
}
