package docstore

import "sort"

// Action is a permitted operation on a document.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AnySubject grants an action to any authenticated user. Used only for
// invite reads so an outsider can resolve a code before joining.
const AnySubject = "users"

// UserSubject returns the ACL subject string for a single user identity.
func UserSubject(userID string) string {
	return "user:" + userID
}

// Rule grants one action to one subject.
type Rule struct {
	Subject string `bson:"subject" json:"subject"`
	Action  Action `bson:"action" json:"action"`
}

// ACL is the set of rules attached to a document. Order carries no
// meaning; two ACLs with the same rules are equal.
type ACL []Rule

// Equal reports whether a and b grant exactly the same rights,
// ignoring order and duplicates.
func (a ACL) Equal(b ACL) bool {
	return a.canonical() == b.canonical()
}

func (a ACL) canonical() string {
	keys := make([]string, 0, len(a))
	seen := make(map[string]struct{}, len(a))
	for _, r := range a {
		k := r.Subject + "\x00" + string(r.Action)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "\x01"
	}
	return out
}

// Grant appends a rule for each action.
func (a ACL) Grant(subject string, actions ...Action) ACL {
	for _, act := range actions {
		a = append(a, Rule{Subject: subject, Action: act})
	}
	return a
}
