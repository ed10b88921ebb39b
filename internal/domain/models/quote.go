// internal/domain/models/quote.go
package models

import (
	"time"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// Quote is an attributed quotation. Immutable after creation except for
// PersonID and SourcePlaceholderID, which change only during the
// placeholder claim/unclaim protocol. PersonID always references a
// person in the same group.
//
// CreatedByName is a snapshot of the author's display name at creation
// time so attribution survives the author leaving the group.
type Quote struct {
	ID                  string    `bson:"_id" json:"id"`
	GroupID             string    `bson:"group_id" json:"group_id"`
	PersonID            string    `bson:"person_id" json:"person_id"`
	Text                string    `bson:"text" json:"text"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	CreatedBy           string    `bson:"created_by" json:"created_by"`
	CreatedByName       string    `bson:"created_by_name" json:"created_by_name"`
	SourcePlaceholderID string    `bson:"source_placeholder_id" json:"source_placeholder_id,omitempty"`
}

// Fields returns the document field map for storage.
func (q Quote) Fields() map[string]any {
	return map[string]any{
		"group_id":              q.GroupID,
		"person_id":             q.PersonID,
		"text":                  q.Text,
		"created_at":            q.CreatedAt,
		"created_by":            q.CreatedBy,
		"created_by_name":       q.CreatedByName,
		"source_placeholder_id": q.SourcePlaceholderID,
	}
}

// QuoteFromDocument decodes a stored document into a Quote.
func QuoteFromDocument(d docstore.Document) Quote {
	return Quote{
		ID:                  d.ID,
		GroupID:             fieldString(d.Fields, "group_id"),
		PersonID:            fieldString(d.Fields, "person_id"),
		Text:                fieldString(d.Fields, "text"),
		CreatedAt:           fieldTime(d.Fields, "created_at"),
		CreatedBy:           fieldString(d.Fields, "created_by"),
		CreatedByName:       fieldString(d.Fields, "created_by_name"),
		SourcePlaceholderID: fieldString(d.Fields, "source_placeholder_id"),
	}
}
