// internal/domain/models/membership.go
package models

import (
	"time"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// Membership roles form a promotion lattice: member -> admin -> owner.
// Exactly one membership per group holds RoleOwner at all times.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether role is one of the three membership roles.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}

// Membership is the authoritative join between users and groups.
// Exactly one document per (group_id, user_id); uniqueness is enforced
// by a store-side index.
//
// PersonID links the member to the Person document that represents them
// as a quote subject. The claim fields record which placeholder (if any)
// this member has absorbed; at most one claim per membership.
type Membership struct {
	ID                     string    `bson:"_id" json:"id"`
	GroupID                string    `bson:"group_id" json:"group_id"`
	UserID                 string    `bson:"user_id" json:"user_id"`
	Role                   string    `bson:"role" json:"role"`
	DisplayName            string    `bson:"display_name" json:"display_name"`
	PersonID               string    `bson:"person_id" json:"person_id"`
	ClaimedPlaceholderID   string    `bson:"claimed_placeholder_id" json:"claimed_placeholder_id,omitempty"`
	ClaimedPlaceholderName string    `bson:"claimed_placeholder_name" json:"claimed_placeholder_name,omitempty"`
	CreatedAt              time.Time `bson:"created_at" json:"created_at"`
}

// IsAdmin reports whether this membership carries admin authority.
// Owners are admins for every permission purpose.
func (m Membership) IsAdmin() bool {
	return m.Role == RoleAdmin || m.Role == RoleOwner
}

// HasClaim reports whether this membership has absorbed a placeholder.
func (m Membership) HasClaim() bool {
	return m.ClaimedPlaceholderID != ""
}

// Fields returns the document field map for storage.
func (m Membership) Fields() map[string]any {
	return map[string]any{
		"group_id":                 m.GroupID,
		"user_id":                  m.UserID,
		"role":                     m.Role,
		"display_name":             m.DisplayName,
		"person_id":                m.PersonID,
		"claimed_placeholder_id":   m.ClaimedPlaceholderID,
		"claimed_placeholder_name": m.ClaimedPlaceholderName,
		"created_at":               m.CreatedAt,
	}
}

// MembershipFromDocument decodes a stored document into a Membership.
func MembershipFromDocument(d docstore.Document) Membership {
	return Membership{
		ID:                     d.ID,
		GroupID:                fieldString(d.Fields, "group_id"),
		UserID:                 fieldString(d.Fields, "user_id"),
		Role:                   fieldString(d.Fields, "role"),
		DisplayName:            fieldString(d.Fields, "display_name"),
		PersonID:               fieldString(d.Fields, "person_id"),
		ClaimedPlaceholderID:   fieldString(d.Fields, "claimed_placeholder_id"),
		ClaimedPlaceholderName: fieldString(d.Fields, "claimed_placeholder_name"),
		CreatedAt:              fieldTime(d.Fields, "created_at"),
	}
}
