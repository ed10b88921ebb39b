// internal/app/store/groupstore/groupstore.go
package groupstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/policy/aclpolicy"
	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/app/system/authz"
	"github.com/GeddesWorks/quotes/internal/app/system/htmlsanitize"
	"github.com/GeddesWorks/quotes/internal/app/system/permsync"
	"github.com/GeddesWorks/quotes/internal/domain/models"
)

// Store manages the group lifecycle: creation with its founding owner,
// rename, ownership transfer, and on-demand permission sync.
type Store struct {
	client docstore.Client
	cfg    docstore.Config
	sync   *permsync.Reconciler
	log    *zap.Logger
}

// New constructs a group Store.
func New(client docstore.Client, cfg docstore.Config, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		sync:   permsync.New(client, cfg, logger),
		log:    logger,
	}
}

// CreateWithOwner creates a group, the owner's person, and the owner's
// membership, then reconciles. The actor becomes the single owner.
func (s *Store) CreateWithOwner(ctx context.Context, actor authz.Actor, name string) (models.Group, error) {
	if err := actor.Require(); err != nil {
		return models.Group{}, err
	}
	name = htmlsanitize.Plain(name)
	if name == "" {
		return models.Group{}, apperr.Validation("group name is required")
	}

	now := time.Now().UTC()
	group := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   actor.ID,
		CreatedAt: now,
	}
	person := models.Person{
		ID:            uuid.NewString(),
		GroupID:       group.ID,
		Name:          htmlsanitize.Plain(actor.Name),
		UserID:        actor.ID,
		IsPlaceholder: false,
		CreatedAt:     now,
		CreatedBy:     actor.ID,
	}
	membership := models.Membership{
		ID:          uuid.NewString(),
		GroupID:     group.ID,
		UserID:      actor.ID,
		Role:        models.RoleOwner,
		DisplayName: htmlsanitize.Plain(actor.Name),
		PersonID:    person.ID,
		CreatedAt:   now,
	}

	// Single-member roster; the post-create sync is a fixpoint no-op
	// but guards against a partial earlier attempt.
	members := []string{actor.ID}
	if err := s.client.Create(ctx, s.cfg.Groups, group.ID, group.Fields(), aclpolicy.Group(members, members, actor.ID)); err != nil {
		return models.Group{}, apperr.Wrap(err, "create group")
	}
	if err := s.client.Create(ctx, s.cfg.Persons, person.ID, person.Fields(), aclpolicy.Person(members, members, false)); err != nil {
		return models.Group{}, apperr.Wrap(err, "create owner person")
	}
	if err := s.client.Create(ctx, s.cfg.Memberships, membership.ID, membership.Fields(), aclpolicy.Membership(members, members, actor.ID)); err != nil {
		return models.Group{}, apperr.Wrap(err, "create owner membership")
	}
	if _, err := s.sync.Sync(ctx, group.ID); err != nil {
		return models.Group{}, err
	}

	s.log.Info("group created",
		zap.String("group_id", group.ID),
		zap.String("owner_id", actor.ID))
	return group, nil
}

// Get returns a group the actor belongs to.
func (s *Store) Get(ctx context.Context, actor authz.Actor, groupID string) (models.Group, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return models.Group{}, err
	}
	doc, err := s.client.Get(ctx, s.cfg.Groups, groupID)
	if err != nil {
		return models.Group{}, apperr.Wrap(err, "load group %s", groupID)
	}
	return models.GroupFromDocument(doc), nil
}

// ListForUser returns every group the actor has a membership in.
func (s *Store) ListForUser(ctx context.Context, actor authz.Actor) ([]models.Group, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	docs, err := docstore.ListAll(ctx, s.client, s.cfg.Memberships, []docstore.Filter{
		docstore.Eq("user_id", actor.ID),
	})
	if err != nil {
		return nil, apperr.Wrap(err, "list memberships for user %s", actor.ID)
	}

	groups := make([]models.Group, 0, len(docs))
	for _, d := range docs {
		m := models.MembershipFromDocument(d)
		groupDoc, err := s.client.Get(ctx, s.cfg.Groups, m.GroupID)
		if err != nil {
			return nil, apperr.Wrap(err, "load group %s", m.GroupID)
		}
		groups = append(groups, models.GroupFromDocument(groupDoc))
	}
	return groups, nil
}

// Rename changes the group name and refreshes the name denormalized
// onto its invites. Admin only.
func (s *Store) Rename(ctx context.Context, actor authz.Actor, groupID, name string) (models.Group, error) {
	if _, err := authz.RequireAdmin(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return models.Group{}, err
	}
	name = htmlsanitize.Plain(name)
	if name == "" {
		return models.Group{}, apperr.Validation("group name is required")
	}

	if err := s.client.Update(ctx, s.cfg.Groups, groupID, map[string]any{"name": name}, nil); err != nil {
		return models.Group{}, apperr.Wrap(err, "rename group %s", groupID)
	}

	// Invites carry the group name for pre-join display; keep them
	// consistent. Fail-fast and resumable like any reconciliation.
	invites, err := docstore.ListAll(ctx, s.client, s.cfg.Invites, []docstore.Filter{
		docstore.Eq("group_id", groupID),
	})
	if err != nil {
		return models.Group{}, apperr.Wrap(err, "list invites for group %s", groupID)
	}
	for _, d := range invites {
		if models.InviteFromDocument(d).GroupName == name {
			continue
		}
		if err := s.client.Update(ctx, s.cfg.Invites, d.ID, map[string]any{"group_name": name}, nil); err != nil {
			return models.Group{}, apperr.Wrap(err, "update invite %s group name", d.ID)
		}
	}

	doc, err := s.client.Get(ctx, s.cfg.Groups, groupID)
	if err != nil {
		return models.Group{}, apperr.Wrap(err, "load group %s", groupID)
	}
	return models.GroupFromDocument(doc), nil
}

// TransferOwnership moves the owner role to another member. Only the
// current owner may start it, and it is the only path that changes a
// group's owner. Step order follows the group document first: every
// later write is re-derived from current state, so a partial failure
// leaves OwnerID pointing at the intended owner and a re-run applies
// only the missing role writes. While the roles are mid-transfer no
// membership may hold owner, so the re-run is accepted from the
// demoted previous owner or from the named next owner.
func (s *Store) TransferOwnership(ctx context.Context, actor authz.Actor, groupID, nextOwnerUserID string) error {
	m, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return err
	}
	if nextOwnerUserID == "" {
		return apperr.Validation("next owner is required")
	}

	groupDoc, err := s.client.Get(ctx, s.cfg.Groups, groupID)
	if err != nil {
		return apperr.Wrap(err, "load group %s", groupID)
	}
	group := models.GroupFromDocument(groupDoc)

	if m.Role == models.RoleOwner {
		if nextOwnerUserID == actor.ID {
			return apperr.Validation("you are already the owner")
		}
	} else {
		resuming := group.OwnerID == nextOwnerUserID &&
			(m.IsAdmin() || actor.ID == nextOwnerUserID)
		if !resuming {
			return apperr.Forbidden("owner role required")
		}
	}

	next, err := authz.MembershipOf(ctx, s.client, s.cfg, groupID, nextOwnerUserID)
	if err != nil {
		return err
	}

	if group.OwnerID != next.UserID {
		if err := s.client.Update(ctx, s.cfg.Groups, groupID, map[string]any{"owner_id": next.UserID}, nil); err != nil {
			return apperr.Wrap(err, "set group owner")
		}
	}
	if m.Role == models.RoleOwner {
		if err := s.client.Update(ctx, s.cfg.Memberships, m.ID, map[string]any{"role": models.RoleAdmin}, nil); err != nil {
			return apperr.Wrap(err, "demote previous owner")
		}
	}
	if next.Role != models.RoleOwner {
		if err := s.client.Update(ctx, s.cfg.Memberships, next.ID, map[string]any{"role": models.RoleOwner}, nil); err != nil {
			return apperr.Wrap(err, "promote next owner")
		}
	}
	if _, err := s.sync.Sync(ctx, groupID); err != nil {
		return err
	}

	s.log.Info("ownership transferred",
		zap.String("group_id", groupID),
		zap.String("from", actor.ID),
		zap.String("to", nextOwnerUserID))
	return nil
}

// SyncPermissions reconciles every document ACL of the group against
// the current roster. Any member may request it; the operation is
// idempotent.
func (s *Store) SyncPermissions(ctx context.Context, actor authz.Actor, groupID string) (permsync.Roster, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return permsync.Roster{}, err
	}
	return s.sync.Sync(ctx, groupID)
}
