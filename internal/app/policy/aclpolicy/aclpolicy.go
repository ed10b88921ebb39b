// Package aclpolicy derives the required access-control list for every
// managed document kind from a roster snapshot. The store enforces the
// lists; this package only computes them.
//
// Authorization rules:
//   - Reads are group-scoped everywhere except invites, which any
//     authenticated user may read so an outsider can resolve a code.
//   - Content (quotes, placeholder persons) is editable by any member to
//     support collaborative logging.
//   - Membership, role, and ownership changes plus deletions require
//     admin or self scope.
//
// adminIDs always includes the owner. Every function is a pure function
// of its arguments; there is no hidden state.
package aclpolicy

import "github.com/GeddesWorks/quotes/internal/app/docstore"

// Group: every member reads, admins update (rename), only the owner
// deletes.
func Group(memberIDs, adminIDs []string, ownerID string) docstore.ACL {
	acl := readAll(memberIDs)
	acl = grantEach(acl, adminIDs, docstore.ActionUpdate)
	if ownerID != "" {
		acl = acl.Grant(docstore.UserSubject(ownerID), docstore.ActionDelete)
	}
	return acl
}

// Membership: every member reads; admins and the membership's own user
// update and delete (self-edit of display name, self-leave).
func Membership(memberIDs, adminIDs []string, userID string) docstore.ACL {
	acl := readAll(memberIDs)
	acl = grantEach(acl, adminIDs, docstore.ActionUpdate, docstore.ActionDelete)
	if userID != "" {
		acl = acl.Grant(docstore.UserSubject(userID), docstore.ActionUpdate, docstore.ActionDelete)
	}
	return acl
}

// Person: every member reads and updates. Placeholders may be deleted by
// any member (they are collaborative scaffolding); a real member's
// person is deleted only by admins.
func Person(memberIDs, adminIDs []string, isPlaceholder bool) docstore.ACL {
	acl := readAll(memberIDs)
	acl = grantEach(acl, memberIDs, docstore.ActionUpdate)
	if isPlaceholder {
		acl = grantEach(acl, memberIDs, docstore.ActionDelete)
	} else {
		acl = grantEach(acl, adminIDs, docstore.ActionDelete)
	}
	return acl
}

// Quote: every member reads and updates (claim reassignment touches
// quotes), admins delete.
func Quote(memberIDs, adminIDs []string) docstore.ACL {
	acl := readAll(memberIDs)
	acl = grantEach(acl, memberIDs, docstore.ActionUpdate)
	acl = grantEach(acl, adminIDs, docstore.ActionDelete)
	return acl
}

// Invite: any authenticated user reads (join-by-code happens before
// membership), admins update and delete.
func Invite(adminIDs []string) docstore.ACL {
	acl := docstore.ACL{}.Grant(docstore.AnySubject, docstore.ActionRead)
	acl = grantEach(acl, adminIDs, docstore.ActionUpdate, docstore.ActionDelete)
	return acl
}

func readAll(memberIDs []string) docstore.ACL {
	return grantEach(docstore.ACL{}, memberIDs, docstore.ActionRead)
}

func grantEach(acl docstore.ACL, userIDs []string, actions ...docstore.Action) docstore.ACL {
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		acl = acl.Grant(docstore.UserSubject(id), actions...)
	}
	return acl
}
