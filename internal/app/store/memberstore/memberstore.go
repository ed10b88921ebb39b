// internal/app/store/memberstore/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"strings"
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

// Store manages the membership lifecycle: join-by-code, role changes,
// and removal or self-leave. Every mutation ends with a permission
// reconciliation so document ACLs track the roster.
type Store struct {
	client docstore.Client
	cfg    docstore.Config
	sync   *permsync.Reconciler
	log    *zap.Logger
}

// New constructs a membership Store.
func New(client docstore.Client, cfg docstore.Config, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		sync:   permsync.New(client, cfg, logger),
		log:    logger,
	}
}

// JoinByCode resolves an invite code and adds the actor to its group
// with the member role, creating the person that represents them.
// Joining a group the actor already belongs to returns the existing
// membership unchanged. The post-join reconciliation runs without an
// authorization check on the actor: the new member cannot yet pass the
// admin-membership lookup normal authorization uses.
func (s *Store) JoinByCode(ctx context.Context, actor authz.Actor, code string) (models.Membership, error) {
	if err := actor.Require(); err != nil {
		return models.Membership{}, err
	}
	code = normalizeCode(code)
	if code == "" {
		return models.Membership{}, apperr.Validation("invite code is required")
	}

	invite, err := s.resolveInvite(ctx, code)
	if err != nil {
		return models.Membership{}, err
	}

	existing, err := authz.MembershipOf(ctx, s.client, s.cfg, invite.GroupID, actor.ID)
	if err == nil {
		return existing, nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return models.Membership{}, err
	}

	roster, err := s.sync.LoadRoster(ctx, invite.GroupID)
	if err != nil {
		return models.Membership{}, err
	}
	members := append(append([]string(nil), roster.MemberIDs...), actor.ID)

	now := time.Now().UTC()
	person := models.Person{
		ID:            uuid.NewString(),
		GroupID:       invite.GroupID,
		Name:          htmlsanitize.Plain(actor.Name),
		UserID:        actor.ID,
		IsPlaceholder: false,
		CreatedAt:     now,
		CreatedBy:     actor.ID,
	}
	membership := models.Membership{
		ID:          uuid.NewString(),
		GroupID:     invite.GroupID,
		UserID:      actor.ID,
		Role:        models.RoleMember,
		DisplayName: htmlsanitize.Plain(actor.Name),
		PersonID:    person.ID,
		CreatedAt:   now,
	}

	if err := s.client.Create(ctx, s.cfg.Persons, person.ID, person.Fields(), aclpolicy.Person(members, roster.AdminIDs, false)); err != nil {
		return models.Membership{}, apperr.Wrap(err, "create person on join")
	}
	if err := s.client.Create(ctx, s.cfg.Memberships, membership.ID, membership.Fields(), aclpolicy.Membership(members, roster.AdminIDs, actor.ID)); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			// A concurrent join won the race; the membership that
			// exists is the one we wanted. Clean up our orphan person.
			_ = s.client.Delete(ctx, s.cfg.Persons, person.ID)
			return authz.MembershipOf(ctx, s.client, s.cfg, invite.GroupID, actor.ID)
		}
		return models.Membership{}, apperr.Wrap(err, "create membership on join")
	}

	if _, err := s.sync.Sync(ctx, invite.GroupID); err != nil {
		return models.Membership{}, err
	}

	s.log.Info("member joined",
		zap.String("group_id", invite.GroupID),
		zap.String("user_id", actor.ID))
	return membership, nil
}

// UpdateRole promotes a member to admin or demotes an admin to member.
// Promotion requires an admin; demotion requires the owner. The owner's
// own membership is never a valid target: ownership moves only through
// TransferOwnership.
func (s *Store) UpdateRole(ctx context.Context, actor authz.Actor, groupID, targetUserID, role string) (models.Membership, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return models.Membership{}, apperr.Validation("role must be %q or %q", models.RoleAdmin, models.RoleMember)
	}

	me, err := authz.RequireAdmin(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return models.Membership{}, err
	}
	target, err := authz.MembershipOf(ctx, s.client, s.cfg, groupID, targetUserID)
	if err != nil {
		return models.Membership{}, err
	}
	if target.Role == models.RoleOwner {
		return models.Membership{}, apperr.Forbidden("the owner's role changes only through ownership transfer")
	}
	if role == models.RoleMember && target.Role == models.RoleAdmin && me.Role != models.RoleOwner {
		return models.Membership{}, apperr.Forbidden("only the owner may demote an admin")
	}

	if target.Role == role {
		return target, nil
	}

	if err := s.client.Update(ctx, s.cfg.Memberships, target.ID, map[string]any{"role": role}, nil); err != nil {
		return models.Membership{}, apperr.Wrap(err, "update role for user %s", targetUserID)
	}
	target.Role = role
	if _, err := s.sync.Sync(ctx, groupID); err != nil {
		return models.Membership{}, err
	}

	s.log.Info("member role updated",
		zap.String("group_id", groupID),
		zap.String("user_id", targetUserID),
		zap.String("role", role))
	return target, nil
}

// Remove takes a member out of the group. Any member may remove
// themselves (self-leave) unless they are the owner, who must transfer
// first. Admins remove members; only the owner removes an admin. If the
// departing member's person has quotes it becomes an orphaned
// placeholder so the history survives; otherwise the person is deleted.
func (s *Store) Remove(ctx context.Context, actor authz.Actor, groupID, targetUserID string) error {
	me, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return err
	}
	target, err := authz.MembershipOf(ctx, s.client, s.cfg, groupID, targetUserID)
	if err != nil {
		return err
	}

	if target.Role == models.RoleOwner {
		return apperr.Forbidden("the owner must transfer ownership before leaving")
	}
	selfLeave := actor.ID == targetUserID
	if !selfLeave {
		switch {
		case target.Role == models.RoleAdmin && me.Role != models.RoleOwner:
			return apperr.Forbidden("only the owner may remove an admin")
		case !me.IsAdmin():
			return apperr.Forbidden("admin role required to remove a member")
		}
	}

	if err := s.retirePerson(ctx, groupID, target); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, s.cfg.Memberships, target.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return apperr.Wrap(err, "delete membership for user %s", targetUserID)
	}

	if _, err := s.sync.Sync(ctx, groupID); err != nil {
		if selfLeave {
			// The departed caller may no longer be able to read the
			// roster; stale ACLs on a group they just left are
			// acceptable and the next lifecycle operation fixes them.
			s.log.Warn("post-leave permission sync skipped",
				zap.String("group_id", groupID),
				zap.String("user_id", targetUserID),
				zap.Error(err))
			return nil
		}
		return err
	}

	s.log.Info("member removed",
		zap.String("group_id", groupID),
		zap.String("user_id", targetUserID),
		zap.Bool("self_leave", selfLeave))
	return nil
}

// Roster returns every membership of the group. Member only.
func (s *Store) Roster(ctx context.Context, actor authz.Actor, groupID string) ([]models.Membership, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return nil, err
	}
	roster, err := s.sync.LoadRoster(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return roster.Memberships, nil
}

// retirePerson converts the departing member's person into an orphaned
// placeholder when quotes reference it, or deletes it when none do.
func (s *Store) retirePerson(ctx context.Context, groupID string, target models.Membership) error {
	if target.PersonID == "" {
		return nil
	}

	page, err := s.client.List(ctx, s.cfg.Quotes, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("person_id", target.PersonID)},
		Limit:   1,
	})
	if err != nil {
		return apperr.Wrap(err, "check quotes for person %s", target.PersonID)
	}

	if len(page.Documents) > 0 {
		err := s.client.Update(ctx, s.cfg.Persons, target.PersonID, map[string]any{
			"user_id":        "",
			"is_placeholder": true,
		}, nil)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return apperr.Wrap(err, "orphan person %s", target.PersonID)
		}
		return nil
	}

	if err := s.client.Delete(ctx, s.cfg.Persons, target.PersonID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return apperr.Wrap(err, "delete person %s", target.PersonID)
	}
	return nil
}

func (s *Store) resolveInvite(ctx context.Context, code string) (models.Invite, error) {
	page, err := s.client.List(ctx, s.cfg.Invites, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("code", code)},
		Limit:   1,
	})
	if err != nil {
		return models.Invite{}, apperr.Wrap(err, "resolve invite code")
	}
	if len(page.Documents) == 0 {
		return models.Invite{}, apperr.NotFound("invalid invite code")
	}
	return models.InviteFromDocument(page.Documents[0]), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
