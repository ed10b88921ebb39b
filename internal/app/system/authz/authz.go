// Package authz provides the actor identity type and the membership
// lookups every lifecycle operation uses for its role checks. The
// document store enforces ACLs at rest; these checks are the
// server-side statement of the same policy, so authorization failures
// are reported as forbidden rather than silently no-oping.
package authz

import (
	"context"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/domain/models"
)

// Actor is the identity invoking an operation, as asserted by the
// session layer. Every operation requires a non-empty actor ID; absence
// is a fatal precondition failure, not a recoverable error.
type Actor struct {
	ID   string
	Name string
}

// Require validates the actor precondition.
func (a Actor) Require() error {
	if a.ID == "" {
		return apperr.Validation("actor identity is required")
	}
	return nil
}

// MembershipOf loads the actor-or-target membership for (group, user).
// Returns a not-found error if the user has no membership in the group.
func MembershipOf(ctx context.Context, client docstore.Client, cfg docstore.Config, groupID, userID string) (models.Membership, error) {
	page, err := client.List(ctx, cfg.Memberships, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("group_id", groupID),
			docstore.Eq("user_id", userID),
		},
		Limit: 1,
	})
	if err != nil {
		return models.Membership{}, apperr.Wrap(err, "load membership for user %s", userID)
	}
	if len(page.Documents) == 0 {
		return models.Membership{}, apperr.NotFound("user %s is not a member of this group", userID)
	}
	return models.MembershipFromDocument(page.Documents[0]), nil
}

// RequireMember ensures the actor belongs to the group and returns the
// membership. A missing membership surfaces as forbidden, not
// not-found: the caller asked to act, not to look up.
func RequireMember(ctx context.Context, client docstore.Client, cfg docstore.Config, groupID string, actor Actor) (models.Membership, error) {
	if err := actor.Require(); err != nil {
		return models.Membership{}, err
	}
	m, err := MembershipOf(ctx, client, cfg, groupID, actor.ID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return models.Membership{}, apperr.Forbidden("you are not a member of this group")
	}
	return m, err
}

// RequireAdmin ensures the actor is an admin (or the owner) of the group.
func RequireAdmin(ctx context.Context, client docstore.Client, cfg docstore.Config, groupID string, actor Actor) (models.Membership, error) {
	m, err := RequireMember(ctx, client, cfg, groupID, actor)
	if err != nil {
		return models.Membership{}, err
	}
	if !m.IsAdmin() {
		return models.Membership{}, apperr.Forbidden("admin role required")
	}
	return m, nil
}
