// internal/app/store/invitestore/invitestore.go
package invitestore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/policy/aclpolicy"
	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/app/system/authz"
	"github.com/GeddesWorks/quotes/internal/app/system/htmlsanitize"
	"github.com/GeddesWorks/quotes/internal/app/system/invitecode"
	"github.com/GeddesWorks/quotes/internal/app/system/permsync"
	"github.com/GeddesWorks/quotes/internal/domain/models"
)

// Store manages invite documents: code generation, labeling, and
// resolution. Invites are the only documents readable by users outside
// the group, so an outsider can resolve a code before joining.
type Store struct {
	client docstore.Client
	cfg    docstore.Config
	sync   *permsync.Reconciler
	gen    *invitecode.Generator
	log    *zap.Logger
}

// New constructs an invite Store.
func New(client docstore.Client, cfg docstore.Config, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		sync:   permsync.New(client, cfg, logger),
		gen:    invitecode.New(),
		log:    logger,
	}
}

// NewWithGenerator constructs a Store with an injected code generator.
// Used by tests to force collisions.
func NewWithGenerator(client docstore.Client, cfg docstore.Config, gen *invitecode.Generator, logger *zap.Logger) *Store {
	s := New(client, cfg, logger)
	s.gen = gen
	return s
}

// NormalizeCode upper-cases and trims a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create generates a collision-free code and creates the invite.
// Admin only.
func (s *Store) Create(ctx context.Context, actor authz.Actor, groupID, label string) (models.Invite, error) {
	if _, err := authz.RequireAdmin(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return models.Invite{}, err
	}

	groupDoc, err := s.client.Get(ctx, s.cfg.Groups, groupID)
	if err != nil {
		return models.Invite{}, apperr.Wrap(err, "load group %s", groupID)
	}
	group := models.GroupFromDocument(groupDoc)

	code, err := s.gen.Generate(func(candidate string) (bool, error) {
		return s.codeTaken(ctx, candidate)
	})
	if err != nil {
		return models.Invite{}, err
	}

	roster, err := s.sync.LoadRoster(ctx, groupID)
	if err != nil {
		return models.Invite{}, err
	}

	invite := models.Invite{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		GroupName: group.Name,
		Name:      htmlsanitize.Plain(label),
		Code:      code,
		CreatedAt: time.Now().UTC(),
		CreatedBy: actor.ID,
	}
	if err := s.client.Create(ctx, s.cfg.Invites, invite.ID, invite.Fields(), aclpolicy.Invite(roster.AdminIDs)); err != nil {
		return models.Invite{}, apperr.Wrap(err, "create invite for group %s", groupID)
	}

	s.log.Info("invite created",
		zap.String("group_id", groupID),
		zap.String("invite_id", invite.ID),
		zap.String("created_by", actor.ID))
	return invite, nil
}

// Rename changes an invite's label. Admin only.
func (s *Store) Rename(ctx context.Context, actor authz.Actor, groupID, inviteID, label string) (models.Invite, error) {
	if _, err := authz.RequireAdmin(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return models.Invite{}, err
	}

	invite, err := s.get(ctx, groupID, inviteID)
	if err != nil {
		return models.Invite{}, err
	}
	invite.Name = htmlsanitize.Plain(label)
	if err := s.client.Update(ctx, s.cfg.Invites, inviteID, map[string]any{"name": invite.Name}, nil); err != nil {
		return models.Invite{}, apperr.Wrap(err, "rename invite %s", inviteID)
	}
	return invite, nil
}

// Delete removes an invite. Admin only.
func (s *Store) Delete(ctx context.Context, actor authz.Actor, groupID, inviteID string) error {
	if _, err := authz.RequireAdmin(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return err
	}
	if _, err := s.get(ctx, groupID, inviteID); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, s.cfg.Invites, inviteID); err != nil {
		return apperr.Wrap(err, "delete invite %s", inviteID)
	}
	return nil
}

// Resolve looks up an invite by code. Any authenticated user may
// resolve; this is how an outsider learns which group a code opens.
func (s *Store) Resolve(ctx context.Context, actor authz.Actor, code string) (models.Invite, error) {
	if err := actor.Require(); err != nil {
		return models.Invite{}, err
	}
	code = NormalizeCode(code)
	if code == "" {
		return models.Invite{}, apperr.Validation("invite code is required")
	}

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

// ListForGroup returns every invite of a group. Member only.
func (s *Store) ListForGroup(ctx context.Context, actor authz.Actor, groupID string) ([]models.Invite, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return nil, err
	}
	docs, err := docstore.ListAll(ctx, s.client, s.cfg.Invites, []docstore.Filter{
		docstore.Eq("group_id", groupID),
	})
	if err != nil {
		return nil, apperr.Wrap(err, "list invites for group %s", groupID)
	}
	invites := make([]models.Invite, 0, len(docs))
	for _, d := range docs {
		invites = append(invites, models.InviteFromDocument(d))
	}
	return invites, nil
}

func (s *Store) get(ctx context.Context, groupID, inviteID string) (models.Invite, error) {
	doc, err := s.client.Get(ctx, s.cfg.Invites, inviteID)
	if err != nil {
		return models.Invite{}, apperr.Wrap(err, "load invite %s", inviteID)
	}
	invite := models.InviteFromDocument(doc)
	if invite.GroupID != groupID {
		// Cross-group references read as absent, not forbidden.
		return models.Invite{}, apperr.NotFound("invite %s not found in this group", inviteID)
	}
	return invite, nil
}

// codeTaken probes global code uniqueness across all groups.
func (s *Store) codeTaken(ctx context.Context, code string) (bool, error) {
	page, err := s.client.List(ctx, s.cfg.Invites, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("code", code)},
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(page.Documents) > 0, nil
}
