// internal/app/store/quotestore/quotestore.go
package quotestore

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

// Store manages quote documents. Any member logs quotes; deletion is
// admin scope.
type Store struct {
	client docstore.Client
	cfg    docstore.Config
	sync   *permsync.Reconciler
	log    *zap.Logger
}

// New constructs a quote Store.
func New(client docstore.Client, cfg docstore.Config, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		sync:   permsync.New(client, cfg, logger),
		log:    logger,
	}
}

// Create attributes a new quote to a person in the group. The author's
// display name is snapshotted so attribution survives the author
// leaving.
func (s *Store) Create(ctx context.Context, actor authz.Actor, groupID, personID, text string) (models.Quote, error) {
	m, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor)
	if err != nil {
		return models.Quote{}, err
	}
	text = htmlsanitize.Plain(text)
	if text == "" {
		return models.Quote{}, apperr.Validation("quote text is required")
	}

	personDoc, err := s.client.Get(ctx, s.cfg.Persons, personID)
	if err != nil {
		return models.Quote{}, apperr.Wrap(err, "load person %s", personID)
	}
	if models.PersonFromDocument(personDoc).GroupID != groupID {
		return models.Quote{}, apperr.NotFound("person %s not found in this group", personID)
	}

	roster, err := s.sync.LoadRoster(ctx, groupID)
	if err != nil {
		return models.Quote{}, err
	}

	authorName := m.DisplayName
	if authorName == "" {
		authorName = actor.Name
	}
	quote := models.Quote{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		PersonID:      personID,
		Text:          text,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     actor.ID,
		CreatedByName: authorName,
	}
	acl := aclpolicy.Quote(roster.MemberIDs, roster.AdminIDs)
	if err := s.client.Create(ctx, s.cfg.Quotes, quote.ID, quote.Fields(), acl); err != nil {
		return models.Quote{}, apperr.Wrap(err, "create quote")
	}
	return quote, nil
}

// Delete removes a quote. Admin only, matching the delete scope of the
// document's ACL.
func (s *Store) Delete(ctx context.Context, actor authz.Actor, groupID, quoteID string) error {
	if _, err := authz.RequireAdmin(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return err
	}
	doc, err := s.client.Get(ctx, s.cfg.Quotes, quoteID)
	if err != nil {
		return apperr.Wrap(err, "load quote %s", quoteID)
	}
	if models.QuoteFromDocument(doc).GroupID != groupID {
		return apperr.NotFound("quote %s not found in this group", quoteID)
	}
	if err := s.client.Delete(ctx, s.cfg.Quotes, quoteID); err != nil {
		return apperr.Wrap(err, "delete quote %s", quoteID)
	}
	return nil
}

// ListForGroup returns every quote of a group.
func (s *Store) ListForGroup(ctx context.Context, actor authz.Actor, groupID string) ([]models.Quote, error) {
	return s.list(ctx, actor, groupID, []docstore.Filter{docstore.Eq("group_id", groupID)})
}

// ListForPerson returns the quotes attributed to one person.
func (s *Store) ListForPerson(ctx context.Context, actor authz.Actor, groupID, personID string) ([]models.Quote, error) {
	return s.list(ctx, actor, groupID, []docstore.Filter{
		docstore.Eq("group_id", groupID),
		docstore.Eq("person_id", personID),
	})
}

func (s *Store) list(ctx context.Context, actor authz.Actor, groupID string, filters []docstore.Filter) ([]models.Quote, error) {
	if _, err := authz.RequireMember(ctx, s.client, s.cfg, groupID, actor); err != nil {
		return nil, err
	}
	docs, err := docstore.ListAll(ctx, s.client, s.cfg.Quotes, filters)
	if err != nil {
		return nil, apperr.Wrap(err, "list quotes for group %s", groupID)
	}
	quotes := make([]models.Quote, 0, len(docs))
	for _, d := range docs {
		quotes = append(quotes, models.QuoteFromDocument(d))
	}
	return quotes, nil
}
