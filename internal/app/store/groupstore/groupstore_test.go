package groupstore_test

import (
	"errors"
	"testing"

	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/app/system/authz"
	"github.com/GeddesWorks/quotes/internal/domain/models"
	"github.com/GeddesWorks/quotes/internal/testutil"
)

func TestStore_CreateWithOwner(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Olive Owner")

	group, err := env.Groups.CreateWithOwner(ctx, owner, "Quote Night")
	if err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}
	if group.ID == "" {
		t.Error("expected group ID to be assigned")
	}
	if group.OwnerID != owner.ID {
		t.Errorf("OwnerID: got %q, want %q", group.OwnerID, owner.ID)
	}
	if group.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	roster, err := env.Members.Roster(ctx, owner, group.ID)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("roster size: got %d, want 1", len(roster))
	}
	m := roster[0]
	if m.Role != models.RoleOwner {
		t.Errorf("founding membership role: got %q, want owner", m.Role)
	}
	if m.PersonID == "" {
		t.Error("founding membership should link to a person")
	}

	// The owner's person exists and is not a placeholder.
	persons, err := env.Persons.List(ctx, owner, group.ID)
	if err != nil {
		t.Fatalf("List persons failed: %v", err)
	}
	if len(persons) != 1 || persons[0].IsPlaceholder {
		t.Errorf("expected exactly one real person for the owner, got %+v", persons)
	}
}

func TestStore_CreateWithOwner_BlankName(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)

	_, err := env.Groups.CreateWithOwner(ctx, testutil.Actor("u1", "User"), "   ")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for blank name, got %v", err)
	}
}

func TestStore_Get_RequiresMembership(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")

	group, err := env.Groups.CreateWithOwner(ctx, owner, "Quote Night")
	if err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	if _, err := env.Groups.Get(ctx, owner, group.ID); err != nil {
		t.Errorf("member Get failed: %v", err)
	}

	_, err = env.Groups.Get(ctx, testutil.Actor("outsider", "Out Sider"), group.ID)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("outsider Get: expected forbidden, got %v", err)
	}
}

func TestStore_ListForUser(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")

	g1, err := env.Groups.CreateWithOwner(ctx, owner, "First")
	if err != nil {
		t.Fatalf("create first group: %v", err)
	}
	if _, err := env.Groups.CreateWithOwner(ctx, testutil.Actor("other", "Other"), "Second"); err != nil {
		t.Fatalf("create second group: %v", err)
	}

	groups, err := env.Groups.ListForUser(ctx, owner)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != g1.ID {
		t.Errorf("expected only the owner's group, got %+v", groups)
	}
}

func TestStore_Rename(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")

	group, err := env.Groups.CreateWithOwner(ctx, owner, "Old Name")
	if err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}
	invite, err := env.Invites.Create(ctx, owner, group.ID, "general")
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	renamed, err := env.Groups.Rename(ctx, owner, group.ID, "New Name")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "New Name" {
		t.Errorf("Name: got %q, want %q", renamed.Name, "New Name")
	}

	// The denormalized name on invites follows the rename.
	refreshed, err := env.Invites.ListForGroup(ctx, owner, group.ID)
	if err != nil {
		t.Fatalf("list invites: %v", err)
	}
	if len(refreshed) != 1 || refreshed[0].ID != invite.ID {
		t.Fatalf("expected the one invite back, got %+v", refreshed)
	}
	if refreshed[0].GroupName != "New Name" {
		t.Errorf("invite group name: got %q, want %q", refreshed[0].GroupName, "New Name")
	}
}

func TestStore_Rename_MemberForbidden(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")
	member := testutil.Actor("u-member", "Member")

	group := mustGroupWithMember(t, env, owner, member)

	_, err := env.Groups.Rename(ctx, member, group.ID, "Hijacked")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("member rename: expected forbidden, got %v", err)
	}
}

func TestStore_TransferOwnership(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")
	member := testutil.Actor("u-member", "Member")

	group := mustGroupWithMember(t, env, owner, member)

	if err := env.Groups.TransferOwnership(ctx, owner, group.ID, member.ID); err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}

	got, err := env.Groups.Get(ctx, member, group.ID)
	if err != nil {
		t.Fatalf("Get after transfer: %v", err)
	}
	if got.OwnerID != member.ID {
		t.Errorf("OwnerID after transfer: got %q, want %q", got.OwnerID, member.ID)
	}

	roster, err := env.Members.Roster(ctx, member, group.ID)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	owners := 0
	for _, m := range roster {
		switch m.UserID {
		case owner.ID:
			if m.Role != models.RoleAdmin {
				t.Errorf("previous owner role: got %q, want admin", m.Role)
			}
		case member.ID:
			if m.Role != models.RoleOwner {
				t.Errorf("new owner role: got %q, want owner", m.Role)
			}
		}
		if m.Role == models.RoleOwner {
			owners++
		}
	}
	if owners != 1 {
		t.Errorf("group has %d owners, want exactly 1", owners)
	}
}

func TestStore_TransferOwnership_Validation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")
	member := testutil.Actor("u-member", "Member")

	group := mustGroupWithMember(t, env, owner, member)

	if err := env.Groups.TransferOwnership(ctx, owner, group.ID, owner.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("self transfer: expected validation error, got %v", err)
	}
	if err := env.Groups.TransferOwnership(ctx, member, group.ID, member.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("non-owner transfer: expected forbidden, got %v", err)
	}
	if err := env.Groups.TransferOwnership(ctx, owner, group.ID, "nobody"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("transfer to non-member: expected not found, got %v", err)
	}
}

func TestStore_TransferOwnership_ResumesAfterPartialFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")
	member := testutil.Actor("u-member", "Member")

	group := mustGroupWithMember(t, env, owner, member)

	// Interrupt the transfer after the demote but before the promote,
	// leaving no membership with the owner role.
	membershipWrites := 0
	env.Client.FailUpdate(func(collection, id string) error {
		if collection != env.Cfg.Memberships {
			return nil
		}
		membershipWrites++
		if membershipWrites == 2 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err := env.Groups.TransferOwnership(ctx, owner, group.ID, member.ID); err == nil {
		t.Fatal("expected the interrupted transfer to fail")
	}
	env.Client.FailUpdate(nil)

	// Either party may re-run the transfer to completion. The demoted
	// previous owner retries here.
	if err := env.Groups.TransferOwnership(ctx, owner, group.ID, member.ID); err != nil {
		t.Fatalf("retried TransferOwnership failed: %v", err)
	}

	roster, err := env.Members.Roster(ctx, member, group.ID)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	owners := 0
	for _, m := range roster {
		if m.Role == models.RoleOwner {
			owners++
			if m.UserID != member.ID {
				t.Errorf("owner role held by %q, want %q", m.UserID, member.ID)
			}
		}
	}
	if owners != 1 {
		t.Fatalf("owner-role memberships after retry: got %d, want 1", owners)
	}
	got, err := env.Groups.Get(ctx, member, group.ID)
	if err != nil {
		t.Fatalf("Get after transfer: %v", err)
	}
	if got.OwnerID != member.ID {
		t.Errorf("OwnerID after retry: got %q, want %q", got.OwnerID, member.ID)
	}
}

func TestStore_TransferOwnership_NextOwnerCanResume(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")
	member := testutil.Actor("u-member", "Member")
	bystander := testutil.Actor("u-other", "Other")

	group := mustGroupWithMember(t, env, owner, member)
	invite, err := env.Invites.Create(ctx, owner, group.ID, "extra")
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if _, err := env.Members.JoinByCode(ctx, bystander, invite.Code); err != nil {
		t.Fatalf("join: %v", err)
	}

	membershipWrites := 0
	env.Client.FailUpdate(func(collection, id string) error {
		if collection != env.Cfg.Memberships {
			return nil
		}
		membershipWrites++
		if membershipWrites == 2 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err := env.Groups.TransferOwnership(ctx, owner, group.ID, member.ID); err == nil {
		t.Fatal("expected the interrupted transfer to fail")
	}
	env.Client.FailUpdate(nil)

	// A member who was not named in the transfer cannot finish it.
	if err := env.Groups.TransferOwnership(ctx, bystander, group.ID, bystander.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("bystander resume: expected forbidden, got %v", err)
	}

	// The named next owner can.
	if err := env.Groups.TransferOwnership(ctx, member, group.ID, member.ID); err != nil {
		t.Fatalf("next-owner resume failed: %v", err)
	}
	roster, err := env.Members.Roster(ctx, member, group.ID)
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	owners := 0
	for _, m := range roster {
		if m.Role == models.RoleOwner {
			owners++
			if m.UserID != member.ID {
				t.Errorf("owner role held by %q, want %q", m.UserID, member.ID)
			}
		}
	}
	if owners != 1 {
		t.Fatalf("owner-role memberships after resume: got %d, want 1", owners)
	}
}

func TestStore_SyncPermissions_Idempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Owner")
	member := testutil.Actor("u-member", "Member")

	group := mustGroupWithMember(t, env, owner, member)

	if _, err := env.Groups.SyncPermissions(ctx, member, group.ID); err != nil {
		t.Fatalf("first SyncPermissions failed: %v", err)
	}
	env.Client.ResetCounters()
	if _, err := env.Groups.SyncPermissions(ctx, member, group.ID); err != nil {
		t.Fatalf("second SyncPermissions failed: %v", err)
	}
	if n := env.Client.Updates(); n != 0 {
		t.Errorf("repeat sync performed %d writes, want 0", n)
	}
}

// mustGroupWithMember creates a group and joins member via an invite.
func mustGroupWithMember(t *testing.T, env *testutil.Env, owner, member authz.Actor) models.Group {
	t.Helper()
	ctx := testutil.TestContext(t)

	group, err := env.Groups.CreateWithOwner(ctx, owner, "Quote Night")
	if err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}
	invite, err := env.Invites.Create(ctx, owner, group.ID, "general")
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if _, err := env.Members.JoinByCode(ctx, member, invite.Code); err != nil {
		t.Fatalf("JoinByCode failed: %v", err)
	}
	return group
}
