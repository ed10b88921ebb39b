package personstore_test

import (
	"errors"
	"testing"

	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/app/system/authz"
	"github.com/GeddesWorks/quotes/internal/domain/models"
	"github.com/GeddesWorks/quotes/internal/testutil"
)

type fixture struct {
	env   *testutil.Env
	owner authz.Actor
	group models.Group
	code  string
}

func setup(t *testing.T) fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	ctx := testutil.TestContext(t)
	owner := testutil.Actor("u-owner", "Olive Owner")

	group, err := env.Groups.CreateWithOwner(ctx, owner, "Quote Night")
	if err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}
	invite, err := env.Invites.Create(ctx, owner, group.ID, "general")
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	return fixture{env: env, owner: owner, group: group, code: invite.Code}
}

func TestStore_CreatePlaceholder(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	p, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Absent <b>Friend</b>")
	if err != nil {
		t.Fatalf("CreatePlaceholder failed: %v", err)
	}
	if !p.IsPlaceholder {
		t.Error("expected IsPlaceholder to be set")
	}
	if p.UserID != "" {
		t.Errorf("placeholder UserID should be empty, got %q", p.UserID)
	}
	if p.Name != "Absent Friend" {
		t.Errorf("name should be sanitized to plain text, got %q", p.Name)
	}
	if p.CreatedBy != f.owner.ID {
		t.Errorf("CreatedBy: got %q, want %q", p.CreatedBy, f.owner.ID)
	}

	_, err = f.env.Persons.CreatePlaceholder(ctx, testutil.Actor("outsider", "Out"), f.group.ID, "X")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("outsider create: expected forbidden, got %v", err)
	}
}

func TestStore_ListClaimable(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	// Placeholder created before the member joins is claimable by them;
	// one created after is not.
	before, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Old Friend")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}

	member := testutil.Actor("u-member", "Member")
	if _, err := f.env.Members.JoinByCode(ctx, member, f.code); err != nil {
		t.Fatalf("join: %v", err)
	}

	after, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "New Friend")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}

	claimable, err := f.env.Persons.ListClaimable(ctx, member, f.group.ID)
	if err != nil {
		t.Fatalf("ListClaimable failed: %v", err)
	}
	ids := map[string]bool{}
	for _, p := range claimable {
		ids[p.ID] = true
	}
	if !ids[before.ID] {
		t.Error("placeholder created before the membership should be claimable")
	}
	if ids[after.ID] {
		t.Error("placeholder created after the membership should not be listed")
	}
}

func TestStore_Remove(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	empty, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Nobody")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if err := f.env.Persons.Remove(ctx, f.owner, f.group.ID, empty.ID); err != nil {
		t.Errorf("removing a quoteless placeholder failed: %v", err)
	}

	quoted, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Quoted")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if _, err := f.env.Quotes.Create(ctx, f.owner, f.group.ID, quoted.ID, "remember this"); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if err := f.env.Persons.Remove(ctx, f.owner, f.group.ID, quoted.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("removing a quoted placeholder: expected conflict, got %v", err)
	}

	// A real member's person is off limits here.
	roster, err := f.env.Members.Roster(ctx, f.owner, f.group.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if err := f.env.Persons.Remove(ctx, f.owner, f.group.ID, roster[0].PersonID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("removing a member's person: expected forbidden, got %v", err)
	}
}

func TestStore_ClaimAndUnclaim(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	placeholder, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Future Member")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if _, err := f.env.Quotes.Create(ctx, f.owner, f.group.ID, placeholder.ID, "first quote"); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if _, err := f.env.Quotes.Create(ctx, f.owner, f.group.ID, placeholder.ID, "second quote"); err != nil {
		t.Fatalf("create quote: %v", err)
	}

	member := testutil.Actor("u-member", "Future Member")
	joined, err := f.env.Members.JoinByCode(ctx, member, f.code)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	m, err := f.env.Persons.Claim(ctx, member, f.group.ID, placeholder.ID)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if m.ClaimedPlaceholderID != placeholder.ID {
		t.Errorf("claim not recorded: %+v", m)
	}
	if m.ClaimedPlaceholderName != "Future Member" {
		t.Errorf("claimed name: got %q, want %q", m.ClaimedPlaceholderName, "Future Member")
	}

	// Every quote moved to the member's person, tagged with provenance.
	quotes, err := f.env.Quotes.ListForPerson(ctx, member, f.group.ID, joined.PersonID)
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("reassigned quotes: got %d, want 2", len(quotes))
	}
	for _, q := range quotes {
		if q.SourcePlaceholderID != placeholder.ID {
			t.Errorf("quote %s missing placeholder provenance", q.ID)
		}
	}

	// The placeholder itself is gone.
	persons, err := f.env.Persons.List(ctx, member, f.group.ID)
	if err != nil {
		t.Fatalf("list persons: %v", err)
	}
	for _, p := range persons {
		if p.ID == placeholder.ID {
			t.Error("claimed placeholder should be deleted")
		}
	}

	// Unclaim recreates a placeholder and moves the quotes back.
	restored, err := f.env.Persons.Unclaim(ctx, member, f.group.ID)
	if err != nil {
		t.Fatalf("Unclaim failed: %v", err)
	}
	if !restored.IsPlaceholder || restored.Name != "Future Member" {
		t.Errorf("restored placeholder: got %+v", restored)
	}
	if restored.ID == placeholder.ID {
		t.Error("unclaim mints a new placeholder id")
	}

	back, err := f.env.Quotes.ListForPerson(ctx, member, f.group.ID, restored.ID)
	if err != nil {
		t.Fatalf("list restored quotes: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("restored quotes: got %d, want 2", len(back))
	}
	for _, q := range back {
		if q.SourcePlaceholderID != "" {
			t.Errorf("restored quote %s should have provenance cleared", q.ID)
		}
	}

	// The claim fields were cleared.
	if _, err := f.env.Persons.Unclaim(ctx, member, f.group.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("second unclaim: expected validation error, got %v", err)
	}
}

func TestStore_Unclaim_ResumesAfterPartialFailure(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	placeholder, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Flaky Friend")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if _, err := f.env.Quotes.Create(ctx, f.owner, f.group.ID, placeholder.ID, "first quote"); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if _, err := f.env.Quotes.Create(ctx, f.owner, f.group.ID, placeholder.ID, "second quote"); err != nil {
		t.Fatalf("create quote: %v", err)
	}

	member := testutil.Actor("u-member", "Flaky Friend")
	if _, err := f.env.Members.JoinByCode(ctx, member, f.code); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.env.Persons.Claim(ctx, member, f.group.ID, placeholder.ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// Interrupt the unclaim between its two quote moves: the first quote
	// already sits on the replacement placeholder, the second does not.
	quoteWrites := 0
	f.env.Client.FailUpdate(func(collection, id string) error {
		if collection != f.env.Cfg.Quotes {
			return nil
		}
		quoteWrites++
		if quoteWrites == 2 {
			return errors.New("connection reset")
		}
		return nil
	})
	if _, err := f.env.Persons.Unclaim(ctx, member, f.group.ID); err == nil {
		t.Fatal("expected the interrupted unclaim to fail")
	}
	f.env.Client.FailUpdate(nil)

	restored, err := f.env.Persons.Unclaim(ctx, member, f.group.ID)
	if err != nil {
		t.Fatalf("retried Unclaim failed: %v", err)
	}

	// The retry converges on the placeholder the first attempt created
	// instead of minting a second one.
	persons, err := f.env.Persons.List(ctx, member, f.group.ID)
	if err != nil {
		t.Fatalf("list persons: %v", err)
	}
	placeholders := 0
	for _, p := range persons {
		if p.IsPlaceholder {
			placeholders++
			if p.ID != restored.ID {
				t.Errorf("unexpected extra placeholder %s", p.ID)
			}
		}
	}
	if placeholders != 1 {
		t.Fatalf("placeholders after retry: got %d, want 1", placeholders)
	}

	back, err := f.env.Quotes.ListForPerson(ctx, member, f.group.ID, restored.ID)
	if err != nil {
		t.Fatalf("list restored quotes: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("restored quotes: got %d, want 2", len(back))
	}
	for _, q := range back {
		if q.SourcePlaceholderID != "" {
			t.Errorf("restored quote %s should have provenance cleared", q.ID)
		}
	}

	// The claim is released.
	if _, err := f.env.Persons.Unclaim(ctx, member, f.group.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("unclaim after completion: expected validation error, got %v", err)
	}
}

func TestStore_Claim_SecondClaimConflicts(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	first, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "First")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	second, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Second")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}

	member := testutil.Actor("u-member", "Member")
	if _, err := f.env.Members.JoinByCode(ctx, member, f.code); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := f.env.Persons.Claim(ctx, member, f.group.ID, first.ID); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := f.env.Persons.Claim(ctx, member, f.group.ID, second.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("second claim: expected conflict, got %v", err)
	}
}

func TestStore_Claim_Resume(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	placeholder, err := f.env.Persons.CreatePlaceholder(ctx, f.owner, f.group.ID, "Claimed")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}

	member := testutil.Actor("u-member", "Member")
	if _, err := f.env.Members.JoinByCode(ctx, member, f.code); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := f.env.Persons.Claim(ctx, member, f.group.ID, placeholder.ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	// Re-issuing the identical claim after completion is a no-op, even
	// though the placeholder no longer exists.
	m, err := f.env.Persons.Claim(ctx, member, f.group.ID, placeholder.ID)
	if err != nil {
		t.Fatalf("resumed claim failed: %v", err)
	}
	if m.ClaimedPlaceholderID != placeholder.ID {
		t.Errorf("resumed claim lost the recorded id: %+v", m)
	}
}

func TestStore_Claim_RejectsRealPerson(t *testing.T) {
	f := setup(t)
	ctx := testutil.TestContext(t)

	member := testutil.Actor("u-member", "Member")
	if _, err := f.env.Members.JoinByCode(ctx, member, f.code); err != nil {
		t.Fatalf("join: %v", err)
	}
	roster, err := f.env.Members.Roster(ctx, f.owner, f.group.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	var ownerPersonID string
	for _, m := range roster {
		if m.UserID == f.owner.ID {
			ownerPersonID = m.PersonID
		}
	}

	if _, err := f.env.Persons.Claim(ctx, member, f.group.ID, ownerPersonID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("claiming a real person: expected validation error, got %v", err)
	}
}
