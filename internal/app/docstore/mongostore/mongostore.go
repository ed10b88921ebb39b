// Package mongostore implements docstore.Client on MongoDB. Document
// fields live at the top level of each record; the enforced ACL is kept
// under the reserved "_acl" key. List results are ordered by _id so
// look-ahead pagination is stable.
package mongostore

import (
	"context"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

const aclKey = "_acl"

type Store struct {
	db *mongo.Database
}

// New wraps a Mongo database as a docstore client.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any, acl docstore.ACL) error {
	doc := bson.M{"_id": id, aclKey: aclToBSON(acl)}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return fmt.Errorf("create %s/%s: %w", collection, id, docstore.ErrConflict)
		}
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeDocument(raw), nil
}

func (s *Store) List(ctx context.Context, collection string, q docstore.Query) (docstore.Page, error) {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return docstore.Page{}, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	page := docstore.Page{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return docstore.Page{}, fmt.Errorf("list %s: decode: %w", collection, err)
		}
		page.Documents = append(page.Documents, decodeDocument(raw))
	}
	if err := cur.Err(); err != nil {
		return docstore.Page{}, fmt.Errorf("list %s: cursor: %w", collection, err)
	}
	return page, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, acl docstore.ACL) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	if acl != nil {
		set[aclKey] = aclToBSON(acl)
	}
	if len(set) == 0 {
		return nil
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return nil
}

func aclToBSON(acl docstore.ACL) bson.A {
	out := make(bson.A, 0, len(acl))
	for _, r := range acl {
		out = append(out, bson.M{"subject": r.Subject, "action": string(r.Action)})
	}
	return out
}

func decodeDocument(raw bson.M) docstore.Document {
	d := docstore.Document{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "_id":
			if id, ok := v.(string); ok {
				d.ID = id
			}
		case aclKey:
			d.ACL = decodeACL(v)
		default:
			d.Fields[k] = normalizeValue(v)
		}
	}
	return d
}

func decodeACL(v any) docstore.ACL {
	arr, ok := v.(primitive.A)
	if !ok {
		return nil
	}
	acl := make(docstore.ACL, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(bson.M)
		if !ok {
			continue
		}
		subject, _ := m["subject"].(string)
		action, _ := m["action"].(string)
		acl = append(acl, docstore.Rule{Subject: subject, Action: docstore.Action(action)})
	}
	return acl
}

// normalizeValue maps BSON driver types back to the plain Go types the
// field helpers expect.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}
