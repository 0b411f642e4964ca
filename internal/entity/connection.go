package entity

// SelfStatus is stored as the connection status of the scraped account itself,
// which has no "connected since" date.
const SelfStatus = "-"

// Connection is one person extracted from a profile or connections page.
// It mirrors a row of the `connections` table minus the generated id.
type Connection struct {
	Name             string
	Occupation       string
	ConnectionStatus string // Free text such as "Connected 2 weeks ago", or SelfStatus
	ProfileURL       string // Absolute URL
}

// Fields returns the column-to-value mapping used when inserting the record.
func (c Connection) Fields() map[string]any {
	return map[string]any{
		"name":              c.Name,
		"occupation":        c.Occupation,
		"connection_status": c.ConnectionStatus,
		"profile_url":       c.ProfileURL,
	}
}

func (c Connection) String() string {
	return c.Name
}
