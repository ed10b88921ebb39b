// internal/domain/models/group.go
package models

import (
	"time"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// Group is one collaborative workspace: a roster of members who attach
// quotes to people. Created once, mutated only on rename or ownership
// transfer, never deleted by this application.
type Group struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Fields returns the document field map for storage.
func (g Group) Fields() map[string]any {
	return map[string]any{
		"name":       g.Name,
		"owner_id":   g.OwnerID,
		"created_at": g.CreatedAt,
	}
}

// GroupFromDocument decodes a stored document into a Group.
func GroupFromDocument(d docstore.Document) Group {
	return Group{
		ID:        d.ID,
		Name:      fieldString(d.Fields, "name"),
		OwnerID:   fieldString(d.Fields, "owner_id"),
		CreatedAt: fieldTime(d.Fields, "created_at"),
	}
}
