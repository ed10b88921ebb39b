// Package testutil provides shared fixtures for store and handler
// tests. Tests run against the in-memory document store so they need
// no external services.
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/docstore/memstore"
	"github.com/GeddesWorks/quotes/internal/app/store/groupstore"
	"github.com/GeddesWorks/quotes/internal/app/store/invitestore"
	"github.com/GeddesWorks/quotes/internal/app/store/memberstore"
	"github.com/GeddesWorks/quotes/internal/app/store/personstore"
	"github.com/GeddesWorks/quotes/internal/app/store/quotestore"
	"github.com/GeddesWorks/quotes/internal/app/system/authz"
	"github.com/GeddesWorks/quotes/internal/app/system/permsync"
)

// Env bundles an in-memory store with every domain store wired to it,
// mirroring the production wiring in bootstrap.
type Env struct {
	Client  *memstore.Store
	Cfg     docstore.Config
	Log     *zap.Logger
	Groups  *groupstore.Store
	Members *memberstore.Store
	Persons *personstore.Store
	Quotes  *quotestore.Store
	Invites *invitestore.Store
	Sync    *permsync.Reconciler
}

// NewEnv builds a fresh Env with the same unique indexes production
// declares in mongostore.EnsureIndexes.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	client := memstore.New()
	cfg := docstore.DefaultConfig()
	client.AddUniqueIndex(cfg.Memberships, "group_id", "user_id")
	client.AddUniqueIndex(cfg.Invites, "code")

	logger := zap.NewNop()
	return &Env{
		Client:  client,
		Cfg:     cfg,
		Log:     logger,
		Groups:  groupstore.New(client, cfg, logger),
		Members: memberstore.New(client, cfg, logger),
		Persons: personstore.New(client, cfg, logger),
		Quotes:  quotestore.New(client, cfg, logger),
		Invites: invitestore.New(client, cfg, logger),
		Sync:    permsync.New(client, cfg, logger),
	}
}

// TestContext returns a context with a deadline suitable for tests.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Actor builds an authz.Actor for tests.
func Actor(id, name string) authz.Actor {
	return authz.Actor{ID: id, Name: name}
}
