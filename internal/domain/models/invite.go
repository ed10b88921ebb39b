// internal/domain/models/invite.go
package models

import (
	"time"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// Invite is a short human-enterable code that grants entry to a group.
// Codes are globally unique across all invites and normalized to upper
// case. GroupName is denormalized onto the invite so an outsider
// resolving a code can see which group it opens before joining.
type Invite struct {
	ID        string    `bson:"_id" json:"id"`
	GroupID   string    `bson:"group_id" json:"group_id"`
	GroupName string    `bson:"group_name" json:"group_name"`
	Name      string    `bson:"name" json:"name"`
	Code      string    `bson:"code" json:"code"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
}

// Fields returns the document field map for storage.
func (i Invite) Fields() map[string]any {
	return map[string]any{
		"group_id":   i.GroupID,
		"group_name": i.GroupName,
		"name":       i.Name,
		"code":       i.Code,
		"created_at": i.CreatedAt,
		"created_by": i.CreatedBy,
	}
}

// InviteFromDocument decodes a stored document into an Invite.
func InviteFromDocument(d docstore.Document) Invite {
	return Invite{
		ID:        d.ID,
		GroupID:   fieldString(d.Fields, "group_id"),
		GroupName: fieldString(d.Fields, "group_name"),
		Name:      fieldString(d.Fields, "name"),
		Code:      fieldString(d.Fields, "code"),
		CreatedAt: fieldTime(d.Fields, "created_at"),
		CreatedBy: fieldString(d.Fields, "created_by"),
	}
}
