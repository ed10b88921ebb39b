package aclpolicy_test

import (
	"testing"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/policy/aclpolicy"
)

func hasRule(acl docstore.ACL, subject string, action docstore.Action) bool {
	for _, r := range acl {
		if r.Subject == subject && r.Action == action {
			return true
		}
	}
	return false
}

func TestGroup(t *testing.T) {
	members := []string{"owner1", "admin1", "member1"}
	admins := []string{"owner1", "admin1"}

	acl := aclpolicy.Group(members, admins, "owner1")

	for _, id := range members {
		if !hasRule(acl, docstore.UserSubject(id), docstore.ActionRead) {
			t.Errorf("member %s should read the group", id)
		}
	}
	if !hasRule(acl, docstore.UserSubject("admin1"), docstore.ActionUpdate) {
		t.Error("admin should update the group")
	}
	if hasRule(acl, docstore.UserSubject("member1"), docstore.ActionUpdate) {
		t.Error("plain member should not update the group")
	}
	if !hasRule(acl, docstore.UserSubject("owner1"), docstore.ActionDelete) {
		t.Error("owner should delete the group")
	}
	if hasRule(acl, docstore.UserSubject("admin1"), docstore.ActionDelete) {
		t.Error("non-owner admin should not delete the group")
	}
}

func TestMembership_SelfScope(t *testing.T) {
	members := []string{"owner1", "member1", "member2"}
	admins := []string{"owner1"}

	acl := aclpolicy.Membership(members, admins, "member1")

	if !hasRule(acl, docstore.UserSubject("member1"), docstore.ActionDelete) {
		t.Error("the membership's own user should be able to delete it (self-leave)")
	}
	if !hasRule(acl, docstore.UserSubject("member1"), docstore.ActionUpdate) {
		t.Error("the membership's own user should be able to update it")
	}
	if hasRule(acl, docstore.UserSubject("member2"), docstore.ActionDelete) {
		t.Error("an unrelated member should not delete someone else's membership")
	}
	if !hasRule(acl, docstore.UserSubject("owner1"), docstore.ActionDelete) {
		t.Error("admins should delete any membership")
	}
}

func TestPerson_PlaceholderDeleteScope(t *testing.T) {
	members := []string{"owner1", "member1"}
	admins := []string{"owner1"}

	placeholder := aclpolicy.Person(members, admins, true)
	if !hasRule(placeholder, docstore.UserSubject("member1"), docstore.ActionDelete) {
		t.Error("any member should delete a placeholder person")
	}

	real := aclpolicy.Person(members, admins, false)
	if hasRule(real, docstore.UserSubject("member1"), docstore.ActionDelete) {
		t.Error("plain member should not delete a real member's person")
	}
	if !hasRule(real, docstore.UserSubject("owner1"), docstore.ActionDelete) {
		t.Error("admin should delete a real member's person")
	}
	if !hasRule(real, docstore.UserSubject("member1"), docstore.ActionUpdate) {
		t.Error("any member should update a person")
	}
}

func TestQuote(t *testing.T) {
	members := []string{"owner1", "member1"}
	admins := []string{"owner1"}

	acl := aclpolicy.Quote(members, admins)

	if !hasRule(acl, docstore.UserSubject("member1"), docstore.ActionUpdate) {
		t.Error("any member should update quotes")
	}
	if hasRule(acl, docstore.UserSubject("member1"), docstore.ActionDelete) {
		t.Error("plain member should not delete quotes")
	}
	if !hasRule(acl, docstore.UserSubject("owner1"), docstore.ActionDelete) {
		t.Error("admin should delete quotes")
	}
}

func TestInvite_AnyAuthenticatedReads(t *testing.T) {
	acl := aclpolicy.Invite([]string{"owner1"})

	if !hasRule(acl, docstore.AnySubject, docstore.ActionRead) {
		t.Error("any authenticated user should read invites")
	}
	if !hasRule(acl, docstore.UserSubject("owner1"), docstore.ActionDelete) {
		t.Error("admin should delete invites")
	}
	if !hasRule(acl, docstore.UserSubject("owner1"), docstore.ActionUpdate) {
		t.Error("admin should update invites")
	}
}

func TestGrantEach_SkipsBlankIDs(t *testing.T) {
	acl := aclpolicy.Group([]string{"u1", ""}, []string{""}, "")

	for _, r := range acl {
		if r.Subject == docstore.UserSubject("") {
			t.Errorf("blank user IDs should produce no rules, got %v", r)
		}
	}
}
