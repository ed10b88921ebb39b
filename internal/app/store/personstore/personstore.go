// internal/app/store/personstore/personstore.go
package personstore

import (
	"context"
	"errors"
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

// Store manages persons and the placeholder claim protocol.
type Store struct {
	client docstore.Client
	cfg    docstore.Config
	sync   *permsync.Reconciler
	log    *zap.Logger
}

// New constructs a person Store.
func New(client docstore.Client, cfg docstore.Config, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		sync:   permsync.New(client, cfg, logger),
		log:    logger,
	}
}

// CreatePlaceholder adds a placeholder person so quotes can be
// attributed to someone who has not joined yet. Any member may create
// one.
func (s *Store) CreatePlaceholder(ctx context.Context, actor authz.Actor, groupID, name string) (models.Person, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return models.Person{}, err
	}
	name = htmlsanitize.Plain(name)
	if name == "" {
		return models.Person{}, apperr.Validation("person name is required")
	}

	roster, err := s.sync.LoadRoster(ctx, groupID)
	if err != nil {
		return models.Person{}, err
	}

	person := models.Person{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		Name:          name,
		UserID:        "",
		IsPlaceholder: true,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     actor.ID,
	}
	acl := aclpolicy.Person(roster.MemberIDs, roster.AdminIDs, true)
	if err := s.client.Create(ctx, s.cfg.Persons, person.ID, person.Fields(), acl); err != nil {
		return models.Person{}, apperr.Wrap(err, "create placeholder person")
	}
	return person, nil
}

// List returns every person in the group.
func (s *Store) List(ctx context.Context, actor authz.Actor, groupID string) ([]models.Person, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return nil, err
	}
	docs, err := docstore.ListAll(ctx, s.client, s.cfg.Persons, []docstore.Filter{
		docstore.Eq("group_id", groupID),
	})
	if err != nil {
		return nil, apperr.Wrap(err, "list persons for group %s", groupID)
	}
	persons := make([]models.Person, 0, len(docs))
	for _, d := range docs {
		persons = append(persons, models.PersonFromDocument(d))
	}
	return persons, nil
}

// ListClaimable returns the placeholders the actor may claim: those
// created before the actor's own membership. The cutoff is an advisory
// ordering heuristic that keeps a member from claiming a placeholder
// someone else created mid-session, not a hard lock.
func (s *Store) ListClaimable(ctx context.Context, actor authz.Actor, groupID string) ([]models.Person, error) {
	m, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return nil, err
	}
	persons, err := s.List(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	claimable := persons[:0]
	for _, p := range persons {
		if p.IsPlaceholder && p.CreatedAt.Before(m.CreatedAt) {
			claimable = append(claimable, p)
		}
	}
	return claimable, nil
}

// Remove deletes an unclaimed, quote-less placeholder. Real members'
// persons are removed only through member removal, and a placeholder
// with quotes keeps its history.
func (s *Store) Remove(ctx context.Context, actor authz.Actor, groupID, personID string) error {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return err
	}
	person, err := s.get(ctx, groupID, personID)
	if err != nil {
		return err
	}
	if !person.IsPlaceholder {
		return apperr.Forbidden("remove the member from the roster instead of deleting their person")
	}

	page, err := s.client.List(ctx, s.cfg.Quotes, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("person_id", personID)},
		Limit:   1,
	})
	if err != nil {
		return apperr.Wrap(err, "check quotes for person %s", personID)
	}
	if len(page.Documents) > 0 {
		return apperr.Conflict("person still has quotes")
	}

	if err := s.client.Delete(ctx, s.cfg.Persons, personID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return apperr.Wrap(err, "delete person %s", personID)
	}
	return nil
}

// Claim binds a placeholder's quote history to the calling member. The
// member must have a person of their own and no claim yet. Quotes are
// reassigned first, each tagged with the placeholder's id for
// provenance; the claim is recorded on the membership; the placeholder
// is deleted last because it is the one irreversible step. A re-run
// after a partial failure re-derives what is left from current state.
func (s *Store) Claim(ctx context.Context, actor authz.Actor, groupID, placeholderID string) (models.Membership, error) {
	m, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return models.Membership{}, err
	}
	if m.PersonID == "" {
		return models.Membership{}, apperr.Validation("your membership has no person to receive the quotes")
	}
	if m.HasClaim() && m.ClaimedPlaceholderID != placeholderID {
		return models.Membership{}, apperr.Conflict("you have already claimed a placeholder")
	}

	placeholder, err := s.get(ctx, groupID, placeholderID)
	resuming := m.ClaimedPlaceholderID == placeholderID
	if err != nil {
		// A resumed claim may find the placeholder already deleted;
		// everything else is a real failure.
		if !(resuming && apperr.IsKind(err, apperr.KindNotFound)) {
			return models.Membership{}, err
		}
	} else if !placeholder.IsPlaceholder {
		return models.Membership{}, apperr.Validation("person is not a placeholder")
	}

	// Reassign every quote still pointing at the placeholder. Already
	// moved quotes no longer match the filter, so a retry skips them.
	quoteDocs, err := docstore.ListAll(ctx, s.client, s.cfg.Quotes, []docstore.Filter{
		docstore.Eq("person_id", placeholderID),
	})
	if err != nil {
		return models.Membership{}, apperr.Wrap(err, "list quotes for placeholder %s", placeholderID)
	}
	for _, d := range quoteDocs {
		err := s.client.Update(ctx, s.cfg.Quotes, d.ID, map[string]any{
			"person_id":             m.PersonID,
			"source_placeholder_id": placeholderID,
		}, nil)
		if err != nil {
			return models.Membership{}, apperr.Wrap(err, "reassign quote %s", d.ID)
		}
	}

	if !resuming {
		err := s.client.Update(ctx, s.cfg.Memberships, m.ID, map[string]any{
			"claimed_placeholder_id":   placeholderID,
			"claimed_placeholder_name": placeholder.Name,
		}, nil)
		if err != nil {
			return models.Membership{}, apperr.Wrap(err, "record claim on membership")
		}
		m.ClaimedPlaceholderID = placeholderID
		m.ClaimedPlaceholderName = placeholder.Name
	}

	if err := s.client.Delete(ctx, s.cfg.Persons, placeholderID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return models.Membership{}, apperr.Wrap(err, "delete claimed placeholder %s", placeholderID)
	}

	s.log.Info("placeholder claimed",
		zap.String("group_id", groupID),
		zap.String("user_id", actor.ID),
		zap.String("placeholder_id", placeholderID),
		zap.Int("quotes_reassigned", len(quoteDocs)))
	return m, nil
}

// Unclaim reverses a claim: a new placeholder is created with the
// previously claimed name, the quotes tagged with the original
// placeholder move onto it, and the claim fields are cleared last. The
// original placeholder's id is gone; provenance is preserved by name
// and content, not id continuity. The replacement id is derived from
// the claim itself, so a re-run after a partial failure lands on the
// placeholder the first attempt created instead of minting a second
// one and splitting the history.
func (s *Store) Unclaim(ctx context.Context, actor authz.Actor, groupID string) (models.Person, error) {
	m, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return models.Person{}, err
	}
	if !m.HasClaim() {
		return models.Person{}, apperr.Validation("no claimed placeholder to release")
	}

	roster, err := s.sync.LoadRoster(ctx, groupID)
	if err != nil {
		return models.Person{}, err
	}

	placeholder := models.Person{
		ID:            unclaimPlaceholderID(m),
		GroupID:       groupID,
		Name:          m.ClaimedPlaceholderName,
		UserID:        "",
		IsPlaceholder: true,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     actor.ID,
	}
	acl := aclpolicy.Person(roster.MemberIDs, roster.AdminIDs, true)
	err = s.client.Create(ctx, s.cfg.Persons, placeholder.ID, placeholder.Fields(), acl)
	if err != nil && !errors.Is(err, docstore.ErrConflict) {
		return models.Person{}, apperr.Wrap(err, "create placeholder on unclaim")
	}

	quoteDocs, err := docstore.ListAll(ctx, s.client, s.cfg.Quotes, []docstore.Filter{
		docstore.Eq("source_placeholder_id", m.ClaimedPlaceholderID),
	})
	if err != nil {
		return models.Person{}, apperr.Wrap(err, "list claimed quotes")
	}
	for _, d := range quoteDocs {
		err := s.client.Update(ctx, s.cfg.Quotes, d.ID, map[string]any{
			"person_id":             placeholder.ID,
			"source_placeholder_id": "",
		}, nil)
		if err != nil {
			return models.Person{}, apperr.Wrap(err, "return quote %s to placeholder", d.ID)
		}
	}

	err = s.client.Update(ctx, s.cfg.Memberships, m.ID, map[string]any{
		"claimed_placeholder_id":   "",
		"claimed_placeholder_name": "",
	}, nil)
	if err != nil {
		return models.Person{}, apperr.Wrap(err, "clear claim on membership")
	}

	s.log.Info("placeholder unclaimed",
		zap.String("group_id", groupID),
		zap.String("user_id", actor.ID),
		zap.String("new_placeholder_id", placeholder.ID),
		zap.Int("quotes_returned", len(quoteDocs)))
	return placeholder, nil
}

// unclaimPlaceholderID names the replacement placeholder for one
// specific claim. The same membership releasing the same claim always
// derives the same id; a later claim records a different placeholder
// id, so repeated claim/unclaim cycles still get distinct persons.
func unclaimPlaceholderID(m models.Membership) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("unclaim:"+m.ID+":"+m.ClaimedPlaceholderID)).String()
}

func (s *Store) get(ctx context.Context, groupID, personID string) (models.Person, error) {
	doc, err := s.client.Get(ctx, s.cfg.Persons, personID)
	if err != nil {
		return models.Person{}, apperr.Wrap(err, "load person %s", personID)
	}
	person := models.PersonFromDocument(doc)
	if person.GroupID != groupID {
		return models.Person{}, apperr.NotFound("person %s not found in this group", personID)
	}
	return person, nil
}
