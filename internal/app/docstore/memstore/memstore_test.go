package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/docstore/memstore"
)

func TestUniqueIndex(t *testing.T) {
	store := memstore.New()
	store.AddUniqueIndex("memberships", "group_id", "user_id")
	ctx := context.Background()

	fields := map[string]any{"group_id": "g1", "user_id": "u1"}
	if err := store.Create(ctx, "memberships", "m1", fields, nil); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	err := store.Create(ctx, "memberships", "m2", map[string]any{"group_id": "g1", "user_id": "u1"}, nil)
	if !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("duplicate tuple: expected ErrConflict, got %v", err)
	}

	// Same user in a different group is fine.
	if err := store.Create(ctx, "memberships", "m3", map[string]any{"group_id": "g2", "user_id": "u1"}, nil); err != nil {
		t.Errorf("different group create failed: %v", err)
	}

	// Deleting frees the tuple.
	if err := store.Delete(ctx, "memberships", "m1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Create(ctx, "memberships", "m4", map[string]any{"group_id": "g1", "user_id": "u1"}, nil); err != nil {
		t.Errorf("create after delete failed: %v", err)
	}
}

func TestDuplicateID(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	if err := store.Create(ctx, "groups", "g1", map[string]any{"name": "a"}, nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := store.Create(ctx, "groups", "g1", map[string]any{"name": "b"}, nil)
	if !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("duplicate id: expected ErrConflict, got %v", err)
	}
}

func TestUpdate_PartialFieldsAndACL(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	acl := docstore.ACL{}.Grant(docstore.UserSubject("u1"), docstore.ActionRead)
	if err := store.Create(ctx, "groups", "g1", map[string]any{"name": "a", "owner_id": "u1"}, acl); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A nil ACL leaves the existing one untouched.
	if err := store.Update(ctx, "groups", "g1", map[string]any{"name": "b"}, nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	d, err := store.Get(ctx, "groups", "g1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if d.Fields["name"] != "b" || d.Fields["owner_id"] != "u1" {
		t.Errorf("partial update fields: got %v", d.Fields)
	}
	if !d.ACL.Equal(acl) {
		t.Errorf("ACL changed by nil-ACL update: got %v", d.ACL)
	}

	// Nil fields with a new ACL touches only the ACL.
	newACL := acl.Grant(docstore.UserSubject("u2"), docstore.ActionRead)
	if err := store.Update(ctx, "groups", "g1", nil, newACL); err != nil {
		t.Fatalf("ACL-only update failed: %v", err)
	}
	d, err = store.Get(ctx, "groups", "g1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if d.Fields["name"] != "b" {
		t.Errorf("ACL-only update changed fields: got %v", d.Fields)
	}
	if !d.ACL.Equal(newACL) {
		t.Errorf("ACL not applied: got %v", d.ACL)
	}
}

func TestGet_ReturnsCopies(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	if err := store.Create(ctx, "groups", "g1", map[string]any{"name": "a"}, nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	d, _ := store.Get(ctx, "groups", "g1")
	d.Fields["name"] = "mutated"

	again, _ := store.Get(ctx, "groups", "g1")
	if again.Fields["name"] != "a" {
		t.Error("mutating a returned document should not touch the store")
	}
}

func TestNotFound(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	if _, err := store.Get(ctx, "groups", "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if err := store.Update(ctx, "groups", "missing", nil, nil); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "groups", "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}
