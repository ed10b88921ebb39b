// internal/domain/models/person.go
package models

import (
	"time"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// Person is a quote subject. A placeholder person stands in for someone
// who has not joined the group; IsPlaceholder implies UserID is empty.
// A non-placeholder person corresponds 1:1 with a membership through
// Membership.PersonID.
type Person struct {
	ID            string    `bson:"_id" json:"id"`
	GroupID       string    `bson:"group_id" json:"group_id"`
	Name          string    `bson:"name" json:"name"`
	UserID        string    `bson:"user_id" json:"user_id"`
	IsPlaceholder bool      `bson:"is_placeholder" json:"is_placeholder"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	CreatedBy     string    `bson:"created_by" json:"created_by"`
}

// Fields returns the document field map for storage.
func (p Person) Fields() map[string]any {
	return map[string]any{
		"group_id":       p.GroupID,
		"name":           p.Name,
		"user_id":        p.UserID,
		"is_placeholder": p.IsPlaceholder,
		"created_at":     p.CreatedAt,
		"created_by":     p.CreatedBy,
	}
}

// PersonFromDocument decodes a stored document into a Person.
func PersonFromDocument(d docstore.Document) Person {
	return Person{
		ID:            d.ID,
		GroupID:       fieldString(d.Fields, "group_id"),
		Name:          fieldString(d.Fields, "name"),
		UserID:        fieldString(d.Fields, "user_id"),
		IsPlaceholder: fieldBool(d.Fields, "is_placeholder"),
		CreatedAt:     fieldTime(d.Fields, "created_at"),
		CreatedBy:     fieldString(d.Fields, "created_by"),
	}
}
