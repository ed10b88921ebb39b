// internal/app/bootstrap/appconfig.go
package bootstrap

import "github.com/GeddesWorks/quotes/internal/app/docstore"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging level, request limits); AppConfig is everything specific to
// this application. The struct is passed to most lifecycle hooks, so
// anything needed during startup, request handling, or shutdown lives
// here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: quotes-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Collection names. Overridable so several deployments can share
	// one database without colliding.
	GroupsCollection      string
	MembershipsCollection string
	PersonsCollection     string
	QuotesCollection      string
	InvitesCollection     string

	// Shared sign-in passcode, stored as a bcrypt hash. Blank disables
	// the passcode gate entirely (trust mode for closed deployments).
	PasscodeHash string
}

// docstoreConfig maps the configured names onto the document-store
// collection config the stores consume.
func (c AppConfig) docstoreConfig() docstore.Config {
	return docstore.Config{
		Database:    c.MongoDatabase,
		Groups:      c.GroupsCollection,
		Memberships: c.MembershipsCollection,
		Persons:     c.PersonsCollection,
		Quotes:      c.QuotesCollection,
		Invites:     c.InvitesCollection,
	}
}
