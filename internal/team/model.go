package team

// Team represents a row in the teams table. A team is the tenant boundary:
// it owns posts and API keys.
type Team struct {
	ID   string
	Name string
}
