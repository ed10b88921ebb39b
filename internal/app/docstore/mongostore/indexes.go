package mongostore

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// EnsureIndexes creates the store-side indexes the application relies
// upon. Called at startup; each index creation is idempotent. Errors
// are aggregated so every problem is visible and startup can fail fast.
func EnsureIndexes(ctx context.Context, db *mongo.Database, cfg docstore.Config, logger *zap.Logger) error {
	var problems []string

	// One membership per (group, user). Backs the single-membership
	// invariant the join path relies on.
	if err := ensure(ctx, db, cfg.Memberships, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_membership_group_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_membership_user"),
		},
	}); err != nil {
		problems = append(problems, cfg.Memberships+": "+err.Error())
	}

	// Invite codes are globally unique; the generator probes this
	// collection before accepting a candidate code.
	if err := ensure(ctx, db, cfg.Invites, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("idx_invite_code").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_invite_group"),
		},
	}); err != nil {
		problems = append(problems, cfg.Invites+": "+err.Error())
	}

	if err := ensure(ctx, db, cfg.Persons, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_person_group"),
		},
	}); err != nil {
		problems = append(problems, cfg.Persons+": "+err.Error())
	}

	if err := ensure(ctx, db, cfg.Quotes, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_quote_group"),
		},
		{
			Keys:    bson.D{{Key: "person_id", Value: 1}},
			Options: options.Index().SetName("idx_quote_person"),
		},
	}); err != nil {
		problems = append(problems, cfg.Quotes+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	logger.Info("document store indexes ensured")
	return nil
}

func ensure(ctx context.Context, db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
	return err
}
