// Package permsync keeps every document's ACL consistent with the
// current membership roster. Reconciliation is a fixpoint operation:
// desired state is re-derived from the roster snapshot rather than
// applied as deltas, each write is independently idempotent, and a
// document is written only when its ACL actually differs. Running it
// twice against an already-correct group performs zero writes, and
// concurrent runs converge rather than diverge.
package permsync

import (
	"context"

	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/policy/aclpolicy"
	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/domain/models"
)

// Roster is the membership snapshot a reconciliation is computed from.
// AdminIDs always includes the owner.
type Roster struct {
	MemberIDs   []string
	AdminIDs    []string
	OwnerID     string
	Memberships []models.Membership
}

// Reconciler recomputes and applies the minimal ACL writes for a group.
type Reconciler struct {
	client docstore.Client
	cfg    docstore.Config
	log    *zap.Logger
}

// New constructs a Reconciler.
func New(client docstore.Client, cfg docstore.Config, logger *zap.Logger) *Reconciler {
	return &Reconciler{client: client, cfg: cfg, log: logger}
}

// LoadRoster reads the full membership roster for a group, paging until
// a short page signals completion, and derives member/admin/owner sets.
// If no membership holds the owner role (a transient state mid
// ownership transfer), the first admin stands in as owner.
func (r *Reconciler) LoadRoster(ctx context.Context, groupID string) (Roster, error) {
	docs, err := docstore.ListAll(ctx, r.client, r.cfg.Memberships, []docstore.Filter{
		docstore.Eq("group_id", groupID),
	})
	if err != nil {
		return Roster{}, apperr.Wrap(err, "load roster for group %s", groupID)
	}

	roster := Roster{}
	for _, d := range docs {
		m := models.MembershipFromDocument(d)
		roster.Memberships = append(roster.Memberships, m)
		roster.MemberIDs = append(roster.MemberIDs, m.UserID)
		if m.IsAdmin() {
			roster.AdminIDs = append(roster.AdminIDs, m.UserID)
		}
		if m.Role == models.RoleOwner && roster.OwnerID == "" {
			roster.OwnerID = m.UserID
		}
	}
	if roster.OwnerID == "" && len(roster.AdminIDs) > 0 {
		roster.OwnerID = roster.AdminIDs[0]
	}
	return roster, nil
}

// collectionSync is one entry of the declarative kind table: which
// collection to scan for the group and how to derive the desired ACL
// for each of its documents. Adding a sixth document kind means adding
// a row here.
type collectionSync struct {
	name       string
	collection func(cfg docstore.Config) string
	desired    func(roster Roster, d docstore.Document) docstore.ACL
}

var kindTable = []collectionSync{
	{
		name:       "memberships",
		collection: func(cfg docstore.Config) string { return cfg.Memberships },
		desired: func(roster Roster, d docstore.Document) docstore.ACL {
			m := models.MembershipFromDocument(d)
			return aclpolicy.Membership(roster.MemberIDs, roster.AdminIDs, m.UserID)
		},
	},
	{
		name:       "persons",
		collection: func(cfg docstore.Config) string { return cfg.Persons },
		desired: func(roster Roster, d docstore.Document) docstore.ACL {
			p := models.PersonFromDocument(d)
			return aclpolicy.Person(roster.MemberIDs, roster.AdminIDs, p.IsPlaceholder)
		},
	},
	{
		name:       "quotes",
		collection: func(cfg docstore.Config) string { return cfg.Quotes },
		desired: func(roster Roster, d docstore.Document) docstore.ACL {
			return aclpolicy.Quote(roster.MemberIDs, roster.AdminIDs)
		},
	},
	{
		name:       "invites",
		collection: func(cfg docstore.Config) string { return cfg.Invites },
		desired: func(roster Roster, d docstore.Document) docstore.ACL {
			return aclpolicy.Invite(roster.AdminIDs)
		},
	},
}

// Sync reconciles the group document and every membership, person,
// quote, and invite belonging to the group. Any single document update
// failure aborts the remaining loop for that collection and surfaces
// the error; a later call re-scans and finishes the job.
func (r *Reconciler) Sync(ctx context.Context, groupID string) (Roster, error) {
	roster, err := r.LoadRoster(ctx, groupID)
	if err != nil {
		return Roster{}, err
	}

	writes := 0

	// The group document first: it is fetched by ID, not by filter.
	groupDoc, err := r.client.Get(ctx, r.cfg.Groups, groupID)
	if err != nil {
		return roster, apperr.Wrap(err, "load group %s", groupID)
	}
	desired := aclpolicy.Group(roster.MemberIDs, roster.AdminIDs, roster.OwnerID)
	if !groupDoc.ACL.Equal(desired) {
		if err := r.client.Update(ctx, r.cfg.Groups, groupID, nil, desired); err != nil {
			return roster, apperr.Wrap(err, "sync group document %s", groupID)
		}
		writes++
	}

	for _, kind := range kindTable {
		n, err := r.syncCollection(ctx, kind, roster, groupID)
		writes += n
		if err != nil {
			return roster, err
		}
	}

	r.log.Debug("permission sync complete",
		zap.String("group_id", groupID),
		zap.Int("members", len(roster.MemberIDs)),
		zap.Int("writes", writes))
	return roster, nil
}

func (r *Reconciler) syncCollection(ctx context.Context, kind collectionSync, roster Roster, groupID string) (int, error) {
	collection := kind.collection(r.cfg)
	docs, err := docstore.ListAll(ctx, r.client, collection, []docstore.Filter{
		docstore.Eq("group_id", groupID),
	})
	if err != nil {
		return 0, apperr.Wrap(err, "scan %s for group %s", kind.name, groupID)
	}

	writes := 0
	for _, d := range docs {
		desired := kind.desired(roster, d)
		if d.ACL.Equal(desired) {
			continue
		}
		if err := r.client.Update(ctx, collection, d.ID, nil, desired); err != nil {
			// Fail fast; reconciliation is resumable.
			return writes, apperr.Wrap(err, "sync %s document %s", kind.name, d.ID)
		}
		writes++
	}
	return writes, nil
}
